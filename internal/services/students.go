package services

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

type StudentInput struct {
	Name          string
	Phone         string
	Email         string
	Standard      string
	CustomFee     *int
	JoinedAt      *time.Time
	GuardianName  string
	GuardianPhone string
	School        string
	City          string
	DateOfBirth   *time.Time
	Notes         string
}

func (in *StudentInput) normalise() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	phone := NormPhone(in.Phone)
	if phone == "" {
		return invalid("phone", "is not a valid phone number")
	}
	in.Phone = phone

	email, ok := NormEmail(in.Email)
	if !ok {
		return invalid("email", "is not a valid email address")
	}
	in.Email = email

	if strings.TrimSpace(in.GuardianPhone) != "" {
		gp := NormPhone(in.GuardianPhone)
		if gp == "" {
			return invalid("guardianPhone", "is not a valid phone number")
		}
		in.GuardianPhone = gp
	}
	in.Standard = strings.TrimSpace(in.Standard)
	in.GuardianName = strings.TrimSpace(in.GuardianName)
	in.School = strings.TrimSpace(in.School)
	in.City = strings.TrimSpace(in.City)
	in.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (in StudentInput) apply(s *models.Student) {
	s.Name = in.Name
	s.Phone = in.Phone
	s.Email = in.Email
	s.Standard = in.Standard
	s.GuardianName = in.GuardianName
	s.GuardianPhone = in.GuardianPhone
	s.School = in.School
	s.City = in.City
	s.DateOfBirth = in.DateOfBirth
	s.Notes = in.Notes
}

// StudentView is a student with dues and payment history resolved as of now.
type StudentView struct {
	Student models.Student `json:"student"`
	Batch   models.Batch   `json:"batch"`
	Dues    fees.Dues      `json:"dues"`
	Ledger  fees.Ledger    `json:"ledger"`
}

func phoneTaken(tx *gorm.DB, batchID uint, phone string, exceptID uint) (bool, error) {
	var n int64
	err := tx.Model(&models.Student{}).
		Where("batch_id = ? AND phone = ? AND id <> ?", batchID, phone, exceptID).
		Count(&n).Error
	return n > 0, errors.Wrap(err, "check phone")
}

// createStudentTx enrols a student in b. Shared by the teacher form, the
// Excel import and public self-registration.
func createStudentTx(tx *gorm.DB, b models.Batch, in StudentInput, now time.Time) (*models.Student, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}
	if in.CustomFee != nil {
		if err := fees.ValidateCustomFee(in.CustomFee, b.Fee); err != nil {
			return nil, err
		}
	}
	taken, err := phoneTaken(tx, b.ID, in.Phone, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	s := models.Student{BatchID: b.ID, CustomFee: in.CustomFee, JoinedAt: now}
	if in.JoinedAt != nil && !in.JoinedAt.IsZero() {
		s.JoinedAt = *in.JoinedAt
	}
	in.apply(&s)
	if err := tx.Create(&s).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, errors.Wrap(err, "create student")
	}
	return &s, nil
}

func CreateStudent(db *gorm.DB, actor Actor, batchID uint, in StudentInput, now time.Time) (*models.Student, error) {
	var out *models.Student
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, actor, batchID)
		if err != nil {
			return err
		}
		out, err = createStudentTx(tx, *b, in, now)
		return err
	})
	return out, err
}

// loadStudent fetches a student and its batch, checking the batch owner.
func loadStudent(tx *gorm.DB, actor Actor, id uint) (*models.Student, *models.Batch, error) {
	var s models.Student
	if err := tx.First(&s, id).Error; err != nil {
		return nil, nil, notFound(err, "student")
	}
	var b models.Batch
	if err := tx.First(&b, s.BatchID).Error; err != nil {
		return nil, nil, notFound(err, "batch")
	}
	if !actor.owns(b.TeacherID) {
		return nil, nil, ErrForbidden
	}
	return &s, &b, nil
}

func studentPayments(tx *gorm.DB, studentID uint) ([]fees.Payment, error) {
	var rows []models.Payment
	if err := tx.Where("student_id = ?", studentID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list payments")
	}
	out := make([]fees.Payment, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.Ledger())
	}
	return out, nil
}

// GetStudent resolves the student's dues and ledger. The payment list is the
// same one PaymentsByStudent serves.
func GetStudent(db *gorm.DB, actor Actor, id uint, asOf time.Time) (*StudentView, error) {
	s, b, err := loadStudent(db, actor, id)
	if err != nil {
		return nil, err
	}
	payments, err := studentPayments(db, s.ID)
	if err != nil {
		return nil, err
	}
	expected := s.Plan(*b).Expected(asOf)
	ledger := fees.BuildLedger(payments, expected)
	return &StudentView{
		Student: *s,
		Batch:   *b,
		Dues:    fees.ComputeDues(s.Plan(*b), ledger.TotalPaid, asOf),
		Ledger:  ledger,
	}, nil
}

// UpdateStudent edits profile fields. The custom fee has its own operation.
func UpdateStudent(db *gorm.DB, actor Actor, id uint, in StudentInput) (*models.Student, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}
	var out *models.Student
	err := db.Transaction(func(tx *gorm.DB) error {
		s, _, err := loadStudent(tx, actor, id)
		if err != nil {
			return err
		}
		if in.Phone != s.Phone {
			taken, err := phoneTaken(tx, s.BatchID, in.Phone, s.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict
			}
		}
		in.apply(s)
		if in.JoinedAt != nil && !in.JoinedAt.IsZero() {
			s.JoinedAt = *in.JoinedAt
		}
		if err := tx.Save(s).Error; err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return errors.Wrap(err, "save student")
		}
		out = s
		return nil
	})
	return out, err
}

// UpdateCustomFee sets or clears (nil) the student's fee override.
func UpdateCustomFee(db *gorm.DB, actor Actor, id uint, customFee *int) (*models.Student, error) {
	var out *models.Student
	err := db.Transaction(func(tx *gorm.DB) error {
		s, b, err := loadStudent(tx, actor, id)
		if err != nil {
			return err
		}
		if err := fees.ValidateCustomFee(customFee, b.Fee); err != nil {
			return err
		}
		if err := tx.Model(s).Update("custom_fee", customFee).Error; err != nil {
			return errors.Wrap(err, "update custom fee")
		}
		s.CustomFee = customFee
		out = s
		return nil
	})
	return out, err
}

func DeleteStudent(db *gorm.DB, actor Actor, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		s, _, err := loadStudent(tx, actor, id)
		if err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", s.ID).Delete(&models.Payment{}).Error; err != nil {
			return errors.Wrap(err, "delete payments")
		}
		return errors.Wrap(tx.Delete(s).Error, "delete student")
	})
}

// Registration is what the public form shows after a successful sign-up.
type Registration struct {
	Student models.Student `json:"student"`
	Batch   models.Batch   `json:"batch"`
	Dues    fees.Dues      `json:"dues"`
}

// RegisterStudent enrols through a batch's public link. Custom fees and join
// dates cannot be chosen by the registrant.
func RegisterStudent(db *gorm.DB, token string, in StudentInput, now time.Time) (*Registration, error) {
	in.CustomFee = nil
	in.JoinedAt = nil

	var out *Registration
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := BatchByToken(tx, token)
		if err != nil {
			return err
		}
		if !b.RegistrationEnabled {
			return ErrRegistrationClosed
		}
		s, err := createStudentTx(tx, *b, in, now)
		if err != nil {
			return err
		}
		out = &Registration{Student: *s, Batch: *b, Dues: fees.ComputeDues(s.Plan(*b), 0, now)}
		return nil
	})
	return out, err
}
