package services

import "github.com/tuitionhub/server/internal/models"

// Actor is the signed-in account a call is made on behalf of.
type Actor struct {
	ID   uint
	Role models.Role
}

func ActorOf(a models.Account) Actor { return Actor{ID: a.ID, Role: a.Role} }

// owns reports whether the actor may manage data belonging to teacherID.
// Super-admins can read and repair any teacher's data.
func (a Actor) owns(teacherID uint) bool {
	switch a.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleTeacher:
		return a.ID == teacherID
	}
	return false
}
