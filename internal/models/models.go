package models

import (
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tuitionhub/server/internal/fees"
)

type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"` // login identity
	Phone        string     `json:"phone,omitempty"`
	PasswordHash []byte     `json:"-"`
	Role         Role       `gorm:"not null;index" json:"role"`
	Active       bool       `gorm:"not null" json:"active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`

	Batches []Batch `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *Account) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Account) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a Account) IDString() string { return strconv.FormatUint(uint64(a.ID), 10) }

type Batch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TeacherID uint        `gorm:"not null;index" json:"teacherId"`
	Name      string      `gorm:"not null" json:"name"`
	Subject   string      `json:"subject,omitempty"`
	Standard  string      `json:"standard"`
	Fee       int         `gorm:"not null" json:"fee"`
	FeePeriod fees.Period `gorm:"not null;size:8" json:"feePeriod"`

	RegistrationToken   string `gorm:"uniqueIndex;not null" json:"registrationToken"`
	RegistrationEnabled bool   `gorm:"not null" json:"registrationEnabled"`

	Students []Student `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Student struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// a phone may enrol once per batch, but in any number of batches
	BatchID uint   `gorm:"not null;uniqueIndex:idx_student_batch_phone" json:"batchId"`
	Phone   string `gorm:"not null;uniqueIndex:idx_student_batch_phone" json:"phone"`

	Name      string    `gorm:"not null" json:"name"`
	Email     string    `json:"email,omitempty"`
	Standard  string    `json:"standard"`
	CustomFee *int      `json:"customFee"`
	JoinedAt  time.Time `gorm:"not null" json:"joinedAt"`

	GuardianName  string     `json:"guardianName,omitempty"`
	GuardianPhone string     `json:"guardianPhone,omitempty"`
	School        string     `json:"school,omitempty"`
	City          string     `json:"city,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	Notes         string     `json:"notes,omitempty"`

	RemindedAt *time.Time `json:"remindedAt,omitempty"` // last dues reminder email

	Payments []Payment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Plan is the student's billing plan inside batch b.
func (s Student) Plan(b Batch) fees.Plan {
	return fees.Plan{
		BatchFee:  b.Fee,
		CustomFee: s.CustomFee,
		Period:    b.FeePeriod,
		JoinedAt:  s.JoinedAt,
	}
}

type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`

	StudentID uint      `gorm:"not null;index" json:"studentId"`
	Amount    int       `gorm:"not null" json:"amount"` // whole rupees
	PaidAt    time.Time `gorm:"not null;index" json:"paidAt"`
	Method    string    `json:"paymentMethod,omitempty"`
}

func (p Payment) Ledger() fees.Payment {
	return fees.Payment{ID: p.ID, Amount: p.Amount, PaidAt: p.PaidAt, Method: p.Method}
}
