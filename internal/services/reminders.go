package services

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

// Reminder is a student with an unpaid balance and an email address.
type Reminder struct {
	Student models.Student
	Batch   models.Batch
	Dues    fees.Dues
}

// DueReminders lists students who owe money as of asOf and were not reminded
// after cutoff. Students of deactivated teachers are left alone.
func DueReminders(db *gorm.DB, asOf, cutoff time.Time) ([]Reminder, error) {
	var students []models.Student
	err := db.Joins("JOIN batches ON batches.id = students.batch_id").
		Joins("JOIN accounts ON accounts.id = batches.teacher_id").
		Where("accounts.active = ?", true).
		Where("students.email <> ''").
		Where("(students.reminded_at IS NULL OR students.reminded_at < ?)", cutoff).
		Order("students.id").
		Find(&students).Error
	if err != nil {
		return nil, errors.Wrap(err, "list students to remind")
	}
	if len(students) == 0 {
		return nil, nil
	}

	seen := make(map[uint]bool)
	ids := make([]uint, 0)
	for _, s := range students {
		if !seen[s.BatchID] {
			seen[s.BatchID] = true
			ids = append(ids, s.BatchID)
		}
	}
	var batches []models.Batch
	if err := db.Where("id IN ?", ids).Find(&batches).Error; err != nil {
		return nil, errors.Wrap(err, "load batches")
	}
	byID := make(map[uint]models.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	paid, err := paidTotals(db, ids)
	if err != nil {
		return nil, err
	}

	var out []Reminder
	for _, s := range students {
		b := byID[s.BatchID]
		d := fees.ComputeDues(s.Plan(b), paid[s.ID], asOf)
		if d.Settled() {
			continue
		}
		out = append(out, Reminder{Student: s, Batch: b, Dues: d})
	}
	return out, nil
}

func MarkReminded(db *gorm.DB, studentID uint, at time.Time) error {
	err := db.Model(&models.Student{}).Where("id = ?", studentID).Update("reminded_at", at).Error
	return errors.Wrap(err, "mark reminded")
}
