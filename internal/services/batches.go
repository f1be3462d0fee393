package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

type BatchInput struct {
	Name      string
	Subject   string
	Standard  string
	Fee       int
	FeePeriod fees.Period
}

func (in *BatchInput) normalise() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Standard = strings.TrimSpace(in.Standard)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if in.Fee <= 0 {
		return invalid("fee", "must be greater than zero")
	}
	if !in.FeePeriod.Valid() {
		return invalid("feePeriod", "must be month or year")
	}
	return nil
}

// BatchOverview is a batch with the dues summary of its students.
type BatchOverview struct {
	models.Batch
	Summary fees.Summary `json:"summary"`
}

// StudentDues is a student row as shown in a batch roster.
type StudentDues struct {
	models.Student
	Dues fees.Dues `json:"dues"`
}

type BatchView struct {
	Batch    models.Batch  `json:"batch"`
	Students []StudentDues `json:"students"`
	Summary  fees.Summary  `json:"summary"`
}

func newRegistrationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func CreateBatch(db *gorm.DB, actor Actor, in BatchInput) (*models.Batch, error) {
	if actor.Role != models.RoleTeacher {
		return nil, ErrForbidden
	}
	if err := in.normalise(); err != nil {
		return nil, err
	}
	b := models.Batch{
		TeacherID:           actor.ID,
		Name:                in.Name,
		Subject:             in.Subject,
		Standard:            in.Standard,
		Fee:                 in.Fee,
		FeePeriod:           in.FeePeriod,
		RegistrationToken:   newRegistrationToken(),
		RegistrationEnabled: true,
	}
	if err := db.Create(&b).Error; err != nil {
		return nil, errors.Wrap(err, "create batch")
	}
	return &b, nil
}

// loadBatch fetches a batch the actor is allowed to manage.
func loadBatch(tx *gorm.DB, actor Actor, id uint) (*models.Batch, error) {
	var b models.Batch
	if err := tx.First(&b, id).Error; err != nil {
		return nil, notFound(err, "batch")
	}
	if !actor.owns(b.TeacherID) {
		return nil, ErrForbidden
	}
	return &b, nil
}

func GetBatch(db *gorm.DB, actor Actor, id uint) (*models.Batch, error) {
	return loadBatch(db, actor, id)
}

// ListBatches returns the actor's batches, newest first, each with its summary.
func ListBatches(db *gorm.DB, actor Actor, asOf time.Time) ([]BatchOverview, error) {
	q := db.Order("created_at DESC, id DESC")
	if actor.Role != models.RoleSuperAdmin {
		q = q.Where("teacher_id = ?", actor.ID)
	}
	var batches []models.Batch
	if err := q.Find(&batches).Error; err != nil {
		return nil, errors.Wrap(err, "list batches")
	}
	summaries, err := batchSummaries(db, batches, asOf)
	if err != nil {
		return nil, err
	}
	out := make([]BatchOverview, 0, len(batches))
	for _, b := range batches {
		out = append(out, BatchOverview{Batch: b, Summary: summaries[b.ID]})
	}
	return out, nil
}

// BatchDetail is the roster of one batch with every student's dues.
func BatchDetail(db *gorm.DB, actor Actor, id uint, asOf time.Time) (*BatchView, error) {
	b, err := loadBatch(db, actor, id)
	if err != nil {
		return nil, err
	}
	var students []models.Student
	if err := db.Where("batch_id = ?", b.ID).Order("name ASC, id ASC").Find(&students).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	paid, err := paidTotals(db, []uint{b.ID})
	if err != nil {
		return nil, err
	}

	batchByID := map[uint]models.Batch{b.ID: *b}
	per, summary := fees.Aggregate(enrollmentsOf(students, batchByID, paid), asOf)

	view := &BatchView{Batch: *b, Summary: summary, Students: make([]StudentDues, 0, len(students))}
	for _, s := range students {
		view.Students = append(view.Students, StudentDues{Student: s, Dues: per[s.ID]})
	}
	return view, nil
}

func UpdateBatch(db *gorm.DB, actor Actor, id uint, in BatchInput) (*models.Batch, error) {
	if err := in.normalise(); err != nil {
		return nil, err
	}
	var out *models.Batch
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, actor, id)
		if err != nil {
			return err
		}
		// a lower batch fee must still cover every custom fee in it
		var over int64
		if err := tx.Model(&models.Student{}).
			Where("batch_id = ? AND custom_fee IS NOT NULL AND custom_fee > ?", b.ID, in.Fee).
			Count(&over).Error; err != nil {
			return errors.Wrap(err, "check custom fees")
		}
		if over > 0 {
			return &fees.Rejection{Reason: fees.CustomFeeExceedsBatchFee, Ceiling: in.Fee}
		}

		b.Name, b.Subject, b.Standard = in.Name, in.Subject, in.Standard
		b.Fee, b.FeePeriod = in.Fee, in.FeePeriod
		if err := tx.Save(b).Error; err != nil {
			return errors.Wrap(err, "save batch")
		}
		out = b
		return nil
	})
	return out, err
}

func DeleteBatch(db *gorm.DB, actor Actor, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		b, err := loadBatch(tx, actor, id)
		if err != nil {
			return err
		}
		return deleteBatchesTx(tx, []uint{b.ID})
	})
}

// deleteBatchesTx removes batches with their students and payments. The FK
// cascade covers this too, but only when the constraint exists on the table.
func deleteBatchesTx(tx *gorm.DB, batchIDs []uint) error {
	if len(batchIDs) == 0 {
		return nil
	}
	students := tx.Model(&models.Student{}).Select("id").Where("batch_id IN ?", batchIDs)
	if err := tx.Where("student_id IN (?)", students).Delete(&models.Payment{}).Error; err != nil {
		return errors.Wrap(err, "delete payments")
	}
	if err := tx.Where("batch_id IN ?", batchIDs).Delete(&models.Student{}).Error; err != nil {
		return errors.Wrap(err, "delete students")
	}
	if err := tx.Delete(&models.Batch{}, batchIDs).Error; err != nil {
		return errors.Wrap(err, "delete batches")
	}
	return nil
}

func SetRegistrationEnabled(db *gorm.DB, actor Actor, id uint, enabled bool) (*models.Batch, error) {
	b, err := loadBatch(db, actor, id)
	if err != nil {
		return nil, err
	}
	if err := db.Model(b).Update("registration_enabled", enabled).Error; err != nil {
		return nil, errors.Wrap(err, "toggle registration")
	}
	b.RegistrationEnabled = enabled
	return b, nil
}

// RegenerateToken invalidates the old public link and QR code.
func RegenerateToken(db *gorm.DB, actor Actor, id uint) (*models.Batch, error) {
	b, err := loadBatch(db, actor, id)
	if err != nil {
		return nil, err
	}
	token := newRegistrationToken()
	if err := db.Model(b).Update("registration_token", token).Error; err != nil {
		return nil, errors.Wrap(err, "regenerate token")
	}
	b.RegistrationToken = token
	return b, nil
}

func BatchByToken(db *gorm.DB, token string) (*models.Batch, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	var b models.Batch
	if err := db.Where("registration_token = ?", token).First(&b).Error; err != nil {
		return nil, notFound(err, "batch")
	}
	return &b, nil
}
