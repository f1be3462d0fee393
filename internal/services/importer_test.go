package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestImportStudents(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)
	seedStudent(t, gdb, teacher, b.ID, "9876500009", day0)

	buf := workbook(t, [][]interface{}{
		{"Student Name", "Phone", "E-mail", "Guardian_Name", "Join Date", "Custom Fee"},
		{"Asha", "98765 00001", "asha@example.com", "Mr. Rao", "2024-01-15", "800"},
		{"Ravi", "9876500009", "", "", "", ""},      // already enrolled
		{"", "9876500002", "", "", "", ""},          // no name
		{"Kiran", "9876500003", "", "", "", "1200"}, // above batch fee
		{"Meena", "9876500004", "", "", "15/02/2024", ""},
	})

	rep, err := ImportStudents(gdb, teacher, b.ID, buf, day0)
	if err != nil {
		t.Fatalf("ImportStudents: %v", err)
	}
	if rep.Created != 2 || rep.Skipped != 1 || rep.Failed != 2 {
		t.Fatalf("report = %+v", rep)
	}
	wantStatus := map[int]ImportStatus{2: ImportCreated, 3: ImportSkipped, 4: ImportFailed, 5: ImportFailed, 6: ImportCreated}
	for _, r := range rep.Rows {
		if wantStatus[r.Row] != r.Status {
			t.Errorf("row %d: status %s (%s)", r.Row, r.Status, r.Reason)
		}
	}

	var asha models.Student
	if err := gdb.Where("batch_id = ? AND phone = ?", b.ID, "+919876500001").First(&asha).Error; err != nil {
		t.Fatalf("imported student missing: %v", err)
	}
	if asha.CustomFee == nil || *asha.CustomFee != 800 || asha.GuardianName != "Mr. Rao" || asha.JoinedAt.Day() != 15 {
		t.Errorf("asha = %+v", asha)
	}
	if asha.Standard != b.Standard {
		t.Errorf("standard should default to the batch's, got %q", asha.Standard)
	}
}

func TestImportStudents_BadInput(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)

	var ie *InputError
	_, err := ImportStudents(gdb, teacher, b.ID, strings.NewReader("name,phone\nA,1"), day0)
	if !errors.As(err, &ie) || ie.Field != "file" {
		t.Errorf("csv upload: %v", err)
	}

	buf := workbook(t, [][]interface{}{{"Name", "Email"}, {"A", "a@example.com"}})
	_, err = ImportStudents(gdb, teacher, b.ID, buf, day0)
	if !errors.As(err, &ie) || !strings.Contains(ie.Message, "phone") {
		t.Errorf("missing phone column: %v", err)
	}
}
