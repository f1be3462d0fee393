package services

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

type paidRow struct {
	StudentID uint
	Total     int
}

// paidTotals sums payments per student in one grouped query. A nil batchIDs
// covers every batch.
func paidTotals(tx *gorm.DB, batchIDs []uint) (map[uint]int, error) {
	q := tx.Table("payments").
		Select("payments.student_id AS student_id, COALESCE(SUM(payments.amount), 0) AS total").
		Joins("JOIN students ON students.id = payments.student_id").
		Group("payments.student_id")
	if batchIDs != nil {
		if len(batchIDs) == 0 {
			return map[uint]int{}, nil
		}
		q = q.Where("students.batch_id IN ?", batchIDs)
	}
	var rows []paidRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "sum payments")
	}
	out := make(map[uint]int, len(rows))
	for _, r := range rows {
		out[r.StudentID] = r.Total
	}
	return out, nil
}

// paidSoFarTx is the running total for one student inside a transaction.
func paidSoFarTx(tx *gorm.DB, studentID uint) (int, error) {
	var total int
	err := tx.Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("student_id = ?", studentID).
		Scan(&total).Error
	return total, errors.Wrap(err, "sum student payments")
}

func enrollmentsOf(students []models.Student, batches map[uint]models.Batch, paid map[uint]int) []fees.Enrollment {
	out := make([]fees.Enrollment, 0, len(students))
	for _, s := range students {
		b, ok := batches[s.BatchID]
		if !ok {
			continue
		}
		out = append(out, fees.Enrollment{StudentID: s.ID, Plan: s.Plan(b), TotalPaid: paid[s.ID]})
	}
	return out
}

// batchSummaries resolves every student in the given batches and rolls the
// result up per batch.
func batchSummaries(tx *gorm.DB, batches []models.Batch, asOf time.Time) (map[uint]fees.Summary, error) {
	out := make(map[uint]fees.Summary, len(batches))
	if len(batches) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(batches))
	byID := make(map[uint]models.Batch, len(batches))
	for _, b := range batches {
		ids = append(ids, b.ID)
		byID[b.ID] = b
		out[b.ID] = fees.Summary{}
	}

	var students []models.Student
	if err := tx.Where("batch_id IN ?", ids).Find(&students).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	paid, err := paidTotals(tx, ids)
	if err != nil {
		return nil, err
	}

	per, _ := fees.Aggregate(enrollmentsOf(students, byID, paid), asOf)
	for _, s := range students {
		d, ok := per[s.ID]
		if !ok {
			continue
		}
		sum := out[s.BatchID]
		sum.Add(d)
		out[s.BatchID] = sum
	}
	return out, nil
}

type DashboardBatch struct {
	ID        uint         `json:"id"`
	Name      string       `json:"name"`
	Standard  string       `json:"standard"`
	Fee       int          `json:"fee"`
	FeePeriod fees.Period  `json:"feePeriod"`
	Summary   fees.Summary `json:"summary"`
}

type Dashboard struct {
	Batches int              `json:"batches"`
	Summary fees.Summary     `json:"summary"`
	Rows    []DashboardBatch `json:"rows"`
}

// TeacherDashboard totals the actor's own batches.
func TeacherDashboard(db *gorm.DB, actor Actor, asOf time.Time) (*Dashboard, error) {
	var batches []models.Batch
	if err := db.Where("teacher_id = ?", actor.ID).Order("name ASC, id ASC").Find(&batches).Error; err != nil {
		return nil, errors.Wrap(err, "list batches")
	}
	per, err := batchSummaries(db, batches, asOf)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Batches: len(batches), Rows: make([]DashboardBatch, 0, len(batches))}
	for _, b := range batches {
		s := per[b.ID]
		d.Summary.Merge(s)
		d.Rows = append(d.Rows, DashboardBatch{
			ID: b.ID, Name: b.Name, Standard: b.Standard,
			Fee: b.Fee, FeePeriod: b.FeePeriod, Summary: s,
		})
	}
	return d, nil
}

type SystemStats struct {
	Teachers       int64        `json:"teachers"`
	ActiveTeachers int64        `json:"activeTeachers"`
	Batches        int64        `json:"batches"`
	Summary        fees.Summary `json:"summary"`
}

// Stats is the super-admin view across every teacher.
func Stats(db *gorm.DB, asOf time.Time) (*SystemStats, error) {
	var st SystemStats
	if err := db.Model(&models.Account{}).Where("role = ?", models.RoleTeacher).Count(&st.Teachers).Error; err != nil {
		return nil, errors.Wrap(err, "count teachers")
	}
	if err := db.Model(&models.Account{}).Where("role = ? AND active = ?", models.RoleTeacher, true).Count(&st.ActiveTeachers).Error; err != nil {
		return nil, errors.Wrap(err, "count active teachers")
	}

	var batches []models.Batch
	if err := db.Find(&batches).Error; err != nil {
		return nil, errors.Wrap(err, "list batches")
	}
	st.Batches = int64(len(batches))
	byID := make(map[uint]models.Batch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}

	var students []models.Student
	if err := db.Find(&students).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	paid, err := paidTotals(db, nil)
	if err != nil {
		return nil, err
	}
	_, st.Summary = fees.Aggregate(enrollmentsOf(students, byID, paid), asOf)
	return &st, nil
}
