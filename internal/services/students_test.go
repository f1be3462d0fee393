package services

import (
	"errors"
	"testing"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

func TestCreateStudent_DuplicatePhonePerBatch(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b1 := seedBatch(t, gdb, teacher, 1000, fees.Monthly)
	b2 := seedBatch(t, gdb, teacher, 1000, fees.Monthly)

	seedStudent(t, gdb, teacher, b1.ID, "98765 43210", day0)
	_, err := CreateStudent(gdb, teacher, b1.ID, StudentInput{Name: "Other", Phone: "+919876543210"}, day0)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if _, err := CreateStudent(gdb, teacher, b2.ID, StudentInput{Name: "Same", Phone: "9876543210"}, day0); err != nil {
		t.Fatalf("another batch must accept the phone: %v", err)
	}
}

func TestCreateStudent_Validation(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)

	_, err := CreateStudent(gdb, teacher, b.ID, StudentInput{Name: "Asha", Phone: "abc"}, day0)
	var ie *InputError
	if !errors.As(err, &ie) || ie.Field != "phone" {
		t.Fatalf("want phone InputError, got %v", err)
	}

	_, err = CreateStudent(gdb, teacher, b.ID, StudentInput{Name: "Asha", Phone: "9876543210", CustomFee: intp(1200)}, day0)
	if rej, ok := fees.AsRejection(err); !ok || rej.Reason != fees.CustomFeeExceedsBatchFee || rej.Ceiling != 1000 {
		t.Fatalf("want CustomFeeExceedsBatchFee, got %v", err)
	}

	s, err := CreateStudent(gdb, teacher, b.ID, StudentInput{Name: " Asha ", Phone: "9876543210"}, day0)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	if s.Name != "Asha" || !s.JoinedAt.Equal(day0) {
		t.Errorf("student = %+v", s)
	}
}

func TestUpdateCustomFee(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)
	s := seedStudent(t, gdb, teacher, b.ID, "9876543210", day0)

	for _, bad := range []int{0, -1, 1001} {
		if _, err := UpdateCustomFee(gdb, teacher, s.ID, intp(bad)); err == nil {
			t.Errorf("custom fee %d accepted", bad)
		}
	}

	got, err := UpdateCustomFee(gdb, teacher, s.ID, intp(800))
	if err != nil || got.CustomFee == nil || *got.CustomFee != 800 {
		t.Fatalf("set 800: %+v %v", got, err)
	}
	v, _ := GetStudent(gdb, teacher, s.ID, day0.AddDate(0, 0, 31))
	if v.Dues.Expected != 1600 {
		t.Errorf("expected with custom fee = %d, want 1600", v.Dues.Expected)
	}

	if _, err := UpdateCustomFee(gdb, teacher, s.ID, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var reloaded models.Student
	gdb.First(&reloaded, s.ID)
	if reloaded.CustomFee != nil {
		t.Errorf("custom fee not cleared: %v", *reloaded.CustomFee)
	}
}

func TestUpdateStudent_PhoneConflict(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Monthly)
	seedStudent(t, gdb, teacher, b.ID, "9876543210", day0)
	s2 := seedStudent(t, gdb, teacher, b.ID, "9876543211", day0)

	_, err := UpdateStudent(gdb, teacher, s2.ID, StudentInput{Name: "B", Phone: "9876543210"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	got, err := UpdateStudent(gdb, teacher, s2.ID, StudentInput{Name: "B", Phone: "9876543211", City: "Pune"})
	if err != nil || got.City != "Pune" || !got.JoinedAt.Equal(day0) {
		t.Fatalf("update: %+v %v", got, err)
	}
}

func TestRegisterStudent(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1500, fees.Monthly)

	reg, err := RegisterStudent(gdb, b.RegistrationToken, StudentInput{Name: "Ravi", Phone: "9876500000", CustomFee: intp(1)}, day0)
	if err != nil {
		t.Fatalf("RegisterStudent: %v", err)
	}
	if reg.Student.CustomFee != nil {
		t.Error("public registration must not set a custom fee")
	}
	if reg.Dues.Expected != 1500 || reg.Dues.TotalDue != 1500 {
		t.Errorf("dues = %+v", reg.Dues)
	}

	if _, err := RegisterStudent(gdb, "nope", StudentInput{Name: "X", Phone: "9876500001"}, day0); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown token: %v", err)
	}

	if _, err := SetRegistrationEnabled(gdb, teacher, b.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := RegisterStudent(gdb, b.RegistrationToken, StudentInput{Name: "Y", Phone: "9876500002"}, day0); !errors.Is(err, ErrRegistrationClosed) {
		t.Errorf("closed batch: %v", err)
	}
}

func TestDeleteStudent_RemovesPayments(t *testing.T) {
	gdb := openTestDB(t)
	teacher := seedTeacher(t, gdb, "t1@example.com")
	b := seedBatch(t, gdb, teacher, 1000, fees.Yearly)
	s := seedStudent(t, gdb, teacher, b.ID, "9876543210", day0)
	if _, err := RecordPayment(gdb, teacher, PaymentInput{StudentID: s.ID, Amount: 400}, day0); err != nil {
		t.Fatal(err)
	}

	if err := DeleteStudent(gdb, teacher, s.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	var n int64
	gdb.Model(&models.Payment{}).Where("student_id = ?", s.ID).Count(&n)
	if n != 0 {
		t.Errorf("%d payments left behind", n)
	}
}
