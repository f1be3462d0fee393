package services

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/models"
)

const MinPasswordLen = 8

func checkPassword(pwd string) error {
	if len(pwd) < MinPasswordLen {
		return invalid("password", "must be at least 8 characters")
	}
	return nil
}

type AccountInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func (in *AccountInput) normalise() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	email, ok := NormEmail(in.Email)
	if !ok || email == "" {
		return invalid("email", "is not a valid email address")
	}
	in.Email = email
	if strings.TrimSpace(in.Phone) != "" {
		phone := NormPhone(in.Phone)
		if phone == "" {
			return invalid("phone", "is not a valid phone number")
		}
		in.Phone = phone
	}
	return checkPassword(in.Password)
}

func createAccount(db *gorm.DB, role models.Role, in AccountInput) (*models.Account, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}
	acct := models.Account{Name: in.Name, Email: in.Email, Phone: in.Phone, Role: role, Active: true}
	if err := acct.SetPassword(in.Password); err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	var n int64
	if err := db.Model(&models.Account{}).Where("email = ?", acct.Email).Count(&n).Error; err != nil {
		return nil, errors.Wrap(err, "check email")
	}
	if n > 0 {
		return nil, ErrConflict
	}
	if err := db.Create(&acct).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, errors.Wrap(err, "create account")
	}
	return &acct, nil
}

func CreateTeacher(db *gorm.DB, in AccountInput) (*models.Account, error) {
	return createAccount(db, models.RoleTeacher, in)
}

func CreateSuperAdmin(db *gorm.DB, in AccountInput) (*models.Account, error) {
	return createAccount(db, models.RoleSuperAdmin, in)
}

type TeacherRow struct {
	models.Account
	BatchCount   int64 `json:"batchCount"`
	StudentCount int64 `json:"studentCount"`
}

type countRow struct {
	TeacherID uint
	N         int64
}

func ListTeachers(db *gorm.DB) ([]TeacherRow, error) {
	var accts []models.Account
	if err := db.Where("role = ?", models.RoleTeacher).Order("name ASC, id ASC").Find(&accts).Error; err != nil {
		return nil, errors.Wrap(err, "list teachers")
	}

	var batches, students []countRow
	if err := db.Model(&models.Batch{}).
		Select("teacher_id, COUNT(*) AS n").Group("teacher_id").
		Scan(&batches).Error; err != nil {
		return nil, errors.Wrap(err, "count batches")
	}
	if err := db.Table("students").
		Select("batches.teacher_id AS teacher_id, COUNT(students.id) AS n").
		Joins("JOIN batches ON batches.id = students.batch_id").
		Group("batches.teacher_id").
		Scan(&students).Error; err != nil {
		return nil, errors.Wrap(err, "count students")
	}
	nb := make(map[uint]int64, len(batches))
	for _, r := range batches {
		nb[r.TeacherID] = r.N
	}
	ns := make(map[uint]int64, len(students))
	for _, r := range students {
		ns[r.TeacherID] = r.N
	}

	out := make([]TeacherRow, 0, len(accts))
	for _, a := range accts {
		out = append(out, TeacherRow{Account: a, BatchCount: nb[a.ID], StudentCount: ns[a.ID]})
	}
	return out, nil
}

func loadTeacher(tx *gorm.DB, id uint) (*models.Account, error) {
	var a models.Account
	if err := tx.Where("role = ?", models.RoleTeacher).First(&a, id).Error; err != nil {
		return nil, notFound(err, "teacher")
	}
	return &a, nil
}

// TeacherPatch holds the fields a super-admin may change; nil leaves a field as is.
type TeacherPatch struct {
	Name     *string
	Phone    *string
	Active   *bool
	Password *string
}

func UpdateTeacher(db *gorm.DB, id uint, patch TeacherPatch) (*models.Account, error) {
	a, err := loadTeacher(db, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "is required")
		}
		a.Name = name
	}
	if patch.Phone != nil {
		a.Phone = ""
		if strings.TrimSpace(*patch.Phone) != "" {
			if a.Phone = NormPhone(*patch.Phone); a.Phone == "" {
				return nil, invalid("phone", "is not a valid phone number")
			}
		}
	}
	if patch.Active != nil {
		a.Active = *patch.Active
	}
	if patch.Password != nil {
		if err := checkPassword(*patch.Password); err != nil {
			return nil, err
		}
		if err := a.SetPassword(*patch.Password); err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
	}
	if err := db.Save(a).Error; err != nil {
		return nil, errors.Wrap(err, "save teacher")
	}
	return a, nil
}

// DeleteTeacher removes the account with every batch, student and payment it owns.
func DeleteTeacher(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		a, err := loadTeacher(tx, id)
		if err != nil {
			return err
		}
		var batchIDs []uint
		if err := tx.Model(&models.Batch{}).Where("teacher_id = ?", a.ID).Pluck("id", &batchIDs).Error; err != nil {
			return errors.Wrap(err, "list batches")
		}
		if err := deleteBatchesTx(tx, batchIDs); err != nil {
			return err
		}
		return errors.Wrap(tx.Delete(a).Error, "delete teacher")
	})
}

// Authenticate checks credentials and stamps the login time.
func Authenticate(db *gorm.DB, email, password string, now time.Time) (*models.Account, error) {
	email, _ = NormEmail(email)
	var a models.Account
	if err := db.Where("email = ?", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "load account")
	}
	if err := a.CheckPassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !a.Active {
		return nil, ErrAccountInactive
	}
	a.LastLoginAt = &now
	if err := db.Model(&a).Update("last_login_at", now).Error; err != nil {
		return nil, errors.Wrap(err, "stamp login")
	}
	return &a, nil
}

func AccountByID(db *gorm.DB, id uint) (*models.Account, error) {
	var a models.Account
	if err := db.First(&a, id).Error; err != nil {
		return nil, notFound(err, "account")
	}
	return &a, nil
}

// ResetPassword is used by the admin CLI for any role.
func ResetPassword(db *gorm.DB, email, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	email, _ = NormEmail(email)
	var a models.Account
	if err := db.Where("email = ?", email).First(&a).Error; err != nil {
		return notFound(err, "account")
	}
	if err := a.SetPassword(password); err != nil {
		return errors.Wrap(err, "hash password")
	}
	return errors.Wrap(db.Model(&a).Update("password_hash", a.PasswordHash).Error, "save password")
}
