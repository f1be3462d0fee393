package services

import (
	"testing"
	"time"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

func TestDueReminders(t *testing.T) {
	gdb := openTestDB(t)
	actor := seedTeacher(t, gdb, "t@example.com")
	b := seedBatch(t, gdb, actor, 1000, fees.Monthly)

	owing := seedStudent(t, gdb, actor, b.ID, "9800000001", day0)
	settled := seedStudent(t, gdb, actor, b.ID, "9800000002", day0)
	seedStudent(t, gdb, actor, b.ID, "9800000003", day0) // no email
	for _, s := range []*models.Student{owing, settled} {
		if err := gdb.Model(s).Update("email", "s"+s.Phone[len(s.Phone)-1:]+"@example.com").Error; err != nil {
			t.Fatal(err)
		}
	}
	if _, err := RecordPayment(gdb, actor, PaymentInput{StudentID: settled.ID, Amount: 1000}, day0); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	asOf := day0.Add(10 * 24 * time.Hour)
	got, err := DueReminders(gdb, asOf, asOf.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("DueReminders: %v", err)
	}
	if len(got) != 1 || got[0].Student.ID != owing.ID {
		t.Fatalf("want only student %d, got %+v", owing.ID, got)
	}
	if got[0].Dues.TotalDue != 1000 || got[0].Batch.ID != b.ID {
		t.Fatalf("reminder: %+v", got[0])
	}

	if err := MarkReminded(gdb, owing.ID, asOf); err != nil {
		t.Fatalf("MarkReminded: %v", err)
	}
	got, _ = DueReminders(gdb, asOf, asOf.Add(-7*24*time.Hour))
	if len(got) != 0 {
		t.Fatalf("reminded student listed again: %+v", got)
	}
	later := asOf.Add(8 * 24 * time.Hour)
	got, _ = DueReminders(gdb, later, later.Add(-7*24*time.Hour))
	if len(got) != 1 {
		t.Fatalf("want a repeat reminder after the gap, got %d", len(got))
	}

	if err := gdb.Model(&models.Account{}).Where("id = ?", actor.ID).Update("active", false).Error; err != nil {
		t.Fatal(err)
	}
	got, _ = DueReminders(gdb, later, later.Add(-7*24*time.Hour))
	if len(got) != 0 {
		t.Fatalf("inactive teacher's students must be skipped, got %d", len(got))
	}
}
