package services

import (
	"testing"

	"github.com/tuitionhub/server/internal/fees"
)

// TestPaidTotals verifies that the grouped SUM returns one row per student
// and respects the batch filter.
func TestPaidTotals(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b1 := seedBatch(t, gdb, teacher, 5000, fees.Yearly)
	b2 := seedBatch(t, gdb, teacher, 5000, fees.Yearly)

	s1 := seedStudent(t, gdb, teacher, b1.ID, "9876500001", day0)
	s2 := seedStudent(t, gdb, teacher, b1.ID, "9876500002", day0)
	s3 := seedStudent(t, gdb, teacher, b2.ID, "9876500003", day0)
	for _, p := range []PaymentInput{
		{StudentID: s1.ID, Amount: 100},
		{StudentID: s1.ID, Amount: 250},
		{StudentID: s3.ID, Amount: 999},
	} {
		if _, err := RecordPayment(gdb, teacher, p, day0); err != nil {
			t.Fatal(err)
		}
	}

	got, err := paidTotals(gdb, []uint{b1.ID})
	if err != nil {
		t.Fatalf("paidTotals: %v", err)
	}
	if len(got) != 1 || got[s1.ID] != 350 || got[s2.ID] != 0 {
		t.Errorf("batch 1 totals = %v", got)
	}

	all, err := paidTotals(gdb, nil)
	if err != nil || len(all) != 2 || all[s3.ID] != 999 {
		t.Errorf("all totals = %v %v", all, err)
	}

	none, err := paidTotals(gdb, []uint{})
	if err != nil || len(none) != 0 {
		t.Errorf("empty filter = %v %v", none, err)
	}
}

func TestDashboardAndStatsAgree(t *testing.T) {
	gdb := openTestDB(t)
	t1 := seedTeacher(t, gdb, "t1@example.com")
	t2 := seedTeacher(t, gdb, "t2@example.com")

	b1 := seedBatch(t, gdb, t1, 1000, fees.Monthly)
	b2 := seedBatch(t, gdb, t1, 12000, fees.Yearly)
	b3 := seedBatch(t, gdb, t2, 500, fees.Monthly)

	s1 := seedStudent(t, gdb, t1, b1.ID, "9876500001", day0)
	s2 := seedStudent(t, gdb, t1, b2.ID, "9876500002", day0)
	s3 := seedStudent(t, gdb, t2, b3.ID, "9876500003", day0)

	asOf := day0.AddDate(0, 0, 60) // two monthly cycles
	RecordPayment(gdb, t1, PaymentInput{StudentID: s1.ID, Amount: 2000}, asOf)
	RecordPayment(gdb, t1, PaymentInput{StudentID: s2.ID, Amount: 2000}, asOf)
	RecordPayment(gdb, t2, PaymentInput{StudentID: s3.ID, Amount: 100}, asOf)

	d, err := TeacherDashboard(gdb, t1, asOf)
	if err != nil {
		t.Fatalf("TeacherDashboard: %v", err)
	}
	wantT1 := fees.Summary{Students: 2, TotalExpected: 14000, TotalCollected: 4000, TotalPending: 10000, PaidCount: 1, PendingCount: 1}
	if d.Batches != 2 || d.Summary != wantT1 || len(d.Rows) != 2 {
		t.Errorf("dashboard = %+v", d)
	}

	st, err := Stats(gdb, asOf)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Teachers != 2 || st.ActiveTeachers != 2 || st.Batches != 3 {
		t.Errorf("stats counts = %+v", st)
	}
	wantAll := wantT1
	wantAll.Merge(fees.Summary{Students: 1, TotalExpected: 1000, TotalCollected: 100, TotalPending: 900, PendingCount: 1})
	if st.Summary != wantAll {
		t.Errorf("stats summary = %+v, want %+v", st.Summary, wantAll)
	}
}
