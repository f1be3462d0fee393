package services

import (
	stderrors "errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/tuitionhub/server/internal/fees"
)

type ImportStatus string

const (
	ImportCreated ImportStatus = "created"
	ImportSkipped ImportStatus = "skipped"
	ImportFailed  ImportStatus = "failed"
)

type ImportRow struct {
	Row       int          `json:"row"` // 1-based sheet row
	Status    ImportStatus `json:"status"`
	Reason    string       `json:"reason,omitempty"`
	StudentID uint         `json:"studentId,omitempty"`
}

type ImportReport struct {
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Rows    []ImportRow `json:"rows"`
}

func (r *ImportReport) add(row ImportRow) {
	switch row.Status {
	case ImportCreated:
		r.Created++
	case ImportSkipped:
		r.Skipped++
	case ImportFailed:
		r.Failed++
	}
	r.Rows = append(r.Rows, row)
}

// column names accepted in the header row, after lowercasing
var importColumns = map[string]string{
	"name":           "name",
	"student name":   "name",
	"phone":          "phone",
	"mobile":         "phone",
	"email":          "email",
	"e mail":         "email",
	"standard":       "standard",
	"class":          "standard",
	"guardian name":  "guardianName",
	"parent name":    "guardianName",
	"guardian phone": "guardianPhone",
	"parent phone":   "guardianPhone",
	"school":         "school",
	"city":           "city",
	"join date":      "joinDate",
	"joined":         "joinDate",
	"custom fee":     "customFee",
	"fee":            "customFee",
	"notes":          "notes",
}

func headerKey(cell string) string {
	h := strings.ToLower(strings.TrimSpace(cell))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

var importDateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "2/1/2006", "01-02-06"}

func parseImportDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range importDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	// unformatted cells come through as Excel serial numbers
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognised date %q", s)
}

// ImportStudents reads the first sheet of an .xlsx workbook and enrols one
// student per row. Rows are independent: a bad row is reported and the rest
// still go in.
func ImportStudents(db *gorm.DB, actor Actor, batchID uint, r io.Reader, now time.Time) (*ImportReport, error) {
	b, err := loadBatch(db, actor, batchID)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, invalid("file", "is not a readable .xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalid("file", "has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "read sheet")
	}
	if len(rows) == 0 {
		return nil, invalid("file", "is empty")
	}

	cols := map[string]int{}
	for i, cell := range rows[0] {
		if field, ok := importColumns[headerKey(cell)]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		return nil, invalid("file", "header row must have a name column")
	}
	if _, ok := cols["phone"]; !ok {
		return nil, invalid("file", "header row must have a phone column")
	}

	get := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	report := &ImportReport{Rows: []ImportRow{}}
	for n, row := range rows[1:] {
		line := n + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		in := StudentInput{
			Name:          get(row, "name"),
			Phone:         get(row, "phone"),
			Email:         get(row, "email"),
			Standard:      get(row, "standard"),
			GuardianName:  get(row, "guardianName"),
			GuardianPhone: get(row, "guardianPhone"),
			School:        get(row, "school"),
			City:          get(row, "city"),
			Notes:         get(row, "notes"),
		}
		if in.Standard == "" {
			in.Standard = b.Standard
		}
		if raw := get(row, "joinDate"); raw != "" {
			t, err := parseImportDate(raw, now.Location())
			if err != nil {
				report.add(ImportRow{Row: line, Status: ImportFailed, Reason: "join date: " + err.Error()})
				continue
			}
			in.JoinedAt = &t
		}
		if raw := get(row, "customFee"); raw != "" {
			fee, err := fees.ParseAmount(raw)
			if err != nil {
				report.add(ImportRow{Row: line, Status: ImportFailed, Reason: "custom fee: " + err.Error()})
				continue
			}
			in.CustomFee = &fee
		}

		var id uint
		err := db.Transaction(func(tx *gorm.DB) error {
			s, err := createStudentTx(tx, *b, in, now)
			if err != nil {
				return err
			}
			id = s.ID
			return nil
		})
		switch {
		case err == nil:
			report.add(ImportRow{Row: line, Status: ImportCreated, StudentID: id})
		case stderrors.Is(err, ErrConflict):
			report.add(ImportRow{Row: line, Status: ImportSkipped, Reason: "phone already enrolled in this batch"})
		default:
			if !userError(err) {
				return nil, err
			}
			report.add(ImportRow{Row: line, Status: ImportFailed, Reason: err.Error()})
		}
	}
	return report, nil
}

// userError reports whether err is caused by input rather than infrastructure.
func userError(err error) bool {
	var ie *InputError
	if stderrors.As(err, &ie) {
		return true
	}
	_, ok := fees.AsRejection(err)
	return ok
}
