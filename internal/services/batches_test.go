package services

import (
	"errors"
	"testing"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

func TestCreateBatch_Validation(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")

	bad := []BatchInput{
		{Name: "", Fee: 100, FeePeriod: fees.Monthly},
		{Name: "A", Fee: 0, FeePeriod: fees.Monthly},
		{Name: "A", Fee: 100, FeePeriod: "week"},
	}
	for _, in := range bad {
		if _, err := CreateBatch(gdb, teacher, in); err == nil {
			t.Errorf("accepted %+v", in)
		}
	}

	admin := Actor{ID: 99, Role: models.RoleSuperAdmin}
	if _, err := CreateBatch(gdb, admin, BatchInput{Name: "A", Fee: 1, FeePeriod: fees.Yearly}); !errors.Is(err, ErrForbidden) {
		t.Errorf("super admin must not own batches: %v", err)
	}

	b := seedBatch(t, gdb, teacher, 500, fees.Monthly)
	if len(b.RegistrationToken) != 32 || !b.RegistrationEnabled {
		t.Errorf("batch = %+v", b)
	}
}

func TestBatchDetail_Summary(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Yearly)

	paid := seedStudent(t, gdb, teacher, b.ID, "9876500001", day0)
	part := seedStudent(t, gdb, teacher, b.ID, "9876500002", day0)
	seedStudent(t, gdb, teacher, b.ID, "9876500003", day0)

	for _, p := range []PaymentInput{
		{StudentID: paid.ID, Amount: 600},
		{StudentID: paid.ID, Amount: 400},
		{StudentID: part.ID, Amount: 250},
	} {
		if _, err := RecordPayment(gdb, teacher, p, day0); err != nil {
			t.Fatal(err)
		}
	}

	v, err := BatchDetail(gdb, teacher, b.ID, day0)
	if err != nil {
		t.Fatalf("BatchDetail: %v", err)
	}
	want := fees.Summary{Students: 3, TotalExpected: 3000, TotalCollected: 1250, TotalPending: 1750, PaidCount: 1, PendingCount: 2}
	if v.Summary != want {
		t.Errorf("summary = %+v, want %+v", v.Summary, want)
	}
	if len(v.Students) != 3 {
		t.Fatalf("students = %d", len(v.Students))
	}

	list, err := ListBatches(gdb, teacher, day0)
	if err != nil || len(list) != 1 || list[0].Summary != want {
		t.Fatalf("ListBatches = %+v, %v", list, err)
	}
}

func TestUpdateBatch_FeeBelowCustomFee(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)
	s := seedStudent(t, gdb, teacher, b.ID, "9876543210", day0)
	if _, err := UpdateCustomFee(gdb, teacher, s.ID, intp(900)); err != nil {
		t.Fatal(err)
	}

	_, err := UpdateBatch(gdb, teacher, b.ID, BatchInput{Name: "Physics", Fee: 800, FeePeriod: fees.Monthly})
	if rej, ok := fees.AsRejection(err); !ok || rej.Reason != fees.CustomFeeExceedsBatchFee {
		t.Fatalf("want CustomFeeExceedsBatchFee, got %v", err)
	}
	got, err := UpdateBatch(gdb, teacher, b.ID, BatchInput{Name: "Physics II", Fee: 900, FeePeriod: fees.Yearly})
	if err != nil || got.Name != "Physics II" || got.FeePeriod != fees.Yearly {
		t.Fatalf("update: %+v %v", got, err)
	}
}

func TestBatchOwnership(t *testing.T) {
	gdb := openTestDB(t)
	owner := seedTeacher(t, gdb, "owner@example.com")
	other := seedTeacher(t, gdb, "other@example.com")
	b := seedBatch(t, gdb, owner, 1000, fees.Monthly)

	if _, err := GetBatch(gdb, other, b.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("other teacher: %v", err)
	}
	admin := Actor{ID: 1000, Role: models.RoleSuperAdmin}
	if _, err := GetBatch(gdb, admin, b.ID); err != nil {
		t.Errorf("super admin read: %v", err)
	}
	if list, _ := ListBatches(gdb, other, day0); len(list) != 0 {
		t.Errorf("other teacher sees %d batches", len(list))
	}
}

func TestRegenerateToken(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)
	old := b.RegistrationToken

	nb, err := RegenerateToken(gdb, teacher, b.ID)
	if err != nil || nb.RegistrationToken == old {
		t.Fatalf("regenerate: %+v %v", nb, err)
	}
	if _, err := BatchByToken(gdb, old); !errors.Is(err, ErrNotFound) {
		t.Errorf("old token still resolves: %v", err)
	}
	if got, err := BatchByToken(gdb, nb.RegistrationToken); err != nil || got.ID != b.ID {
		t.Errorf("new token: %+v %v", got, err)
	}
}

func TestDeleteBatch_Cascades(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Yearly)
	s := seedStudent(t, gdb, teacher, b.ID, "9876543210", day0)
	RecordPayment(gdb, teacher, PaymentInput{StudentID: s.ID, Amount: 100}, day0)

	if err := DeleteBatch(gdb, teacher, b.ID); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	var students, payments int64
	gdb.Model(&models.Student{}).Count(&students)
	gdb.Model(&models.Payment{}).Count(&payments)
	if students != 0 || payments != 0 {
		t.Errorf("left %d students, %d payments", students, payments)
	}
}
