package handlers

import (
	"net/http"

	"github.com/tuitionhub/server/internal/services"
)

type createTeacherRequest struct {
	Name     string `json:"name" validate:"notblank,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type updateTeacherRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Active   *bool   `json:"active"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// GET /api/admin/teachers
func ListTeachers(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := services.ListTeachers(env.DB)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"teachers": rows})
	}
}

// POST /api/admin/teachers
func CreateTeacher(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTeacherRequest
		if !bind(w, r, &req) {
			return
		}
		acct, err := services.CreateTeacher(env.DB, services.AccountInput{
			Name: req.Name, Email: req.Email, Phone: req.Phone, Password: req.Password,
		})
		if err != nil {
			env.fail(w, r, err)
			return
		}
		env.Log.Info("teacher created", acct.Email)
		writeJSON(w, http.StatusCreated, acct)
	}
}

// PATCH /api/admin/teachers/{id}
func UpdateTeacher(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		var req updateTeacherRequest
		if !bind(w, r, &req) {
			return
		}
		acct, err := services.UpdateTeacher(env.DB, id, services.TeacherPatch{
			Name: req.Name, Phone: req.Phone, Active: req.Active, Password: req.Password,
		})
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

// DELETE /api/admin/teachers/{id}
func DeleteTeacher(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		if err := services.DeleteTeacher(env.DB, id); err != nil {
			env.fail(w, r, err)
			return
		}
		env.Log.Info("teacher deleted", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/admin/stats
func AdminStats(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := services.Stats(env.DB, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
