package services

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/db"
	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

type PaymentInput struct {
	StudentID uint
	Amount    int
	Method    string
}

// Receipt is the outcome of a recorded payment, with the dues after it.
type Receipt struct {
	Payment models.Payment
	Student models.Student
	Batch   models.Batch
	Dues    fees.Dues
}

// RecordPayment validates and stores a payment in one transaction. The
// student row is locked first so concurrent postings for the same student
// see each other's totals; of two payments that each fit the remaining
// balance alone but not together, only one is accepted.
func RecordPayment(conn *gorm.DB, actor Actor, in PaymentInput, now time.Time) (*Receipt, error) {
	var out *Receipt
	err := conn.Transaction(func(tx *gorm.DB) error {
		var s models.Student
		if err := db.ForUpdate(tx).First(&s, in.StudentID).Error; err != nil {
			return notFound(err, "student")
		}
		var b models.Batch
		if err := tx.First(&b, s.BatchID).Error; err != nil {
			return notFound(err, "batch")
		}
		if !actor.owns(b.TeacherID) {
			return ErrForbidden
		}

		paid, err := paidSoFarTx(tx, s.ID)
		if err != nil {
			return err
		}
		plan := s.Plan(b)
		if err := fees.ValidatePayment(in.Amount, plan.Expected(now), paid); err != nil {
			return err
		}

		p := models.Payment{
			StudentID: s.ID,
			Amount:    in.Amount,
			PaidAt:    now,
			Method:    strings.TrimSpace(in.Method),
		}
		if err := tx.Create(&p).Error; err != nil {
			return errors.Wrap(err, "create payment")
		}
		out = &Receipt{
			Payment: p,
			Student: s,
			Batch:   b,
			Dues:    fees.ComputeDues(plan, paid+p.Amount, now),
		}
		return nil
	})
	return out, err
}

// CheckPayment runs the validator without writing anything, for forms that
// want to warn before submitting. RecordPayment checks again.
func CheckPayment(conn *gorm.DB, actor Actor, studentID uint, raw string, asOf time.Time) (int, fees.Dues, error) {
	s, b, err := loadStudent(conn, actor, studentID)
	if err != nil {
		return 0, fees.Dues{}, err
	}
	paid, err := paidSoFarTx(conn, s.ID)
	if err != nil {
		return 0, fees.Dues{}, err
	}
	plan := s.Plan(*b)
	dues := fees.ComputeDues(plan, paid, asOf)
	amount, err := fees.CheckPayment(raw, dues.Expected, paid)
	return amount, dues, err
}

type StudentLedger struct {
	StudentID uint        `json:"studentId"`
	Dues      fees.Dues   `json:"dues"`
	Ledger    fees.Ledger `json:"ledger"`
}

func PaymentsByStudent(conn *gorm.DB, actor Actor, studentID uint, asOf time.Time) (*StudentLedger, error) {
	v, err := GetStudent(conn, actor, studentID, asOf)
	if err != nil {
		return nil, err
	}
	return &StudentLedger{StudentID: v.Student.ID, Dues: v.Dues, Ledger: v.Ledger}, nil
}

// DeletePayment removes a wrongly entered payment.
func DeletePayment(conn *gorm.DB, actor Actor, id uint) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		var p models.Payment
		if err := tx.First(&p, id).Error; err != nil {
			return notFound(err, "payment")
		}
		if _, _, err := loadStudent(tx, actor, p.StudentID); err != nil {
			return err
		}
		return errors.Wrap(tx.Delete(&p).Error, "delete payment")
	})
}
