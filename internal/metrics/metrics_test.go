package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tuitionhub/server/internal/fees"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(PaymentAmount)
	Payment(1500)
	if got := testutil.ToFloat64(PaymentAmount) - before; got != 1500 {
		t.Errorf("amount delta = %v", got)
	}

	r := PaymentRejections.WithLabelValues(string(fees.ExceedsRemainingBalance))
	before = testutil.ToFloat64(r)
	Rejected(fees.ExceedsRemainingBalance)
	if got := testutil.ToFloat64(r) - before; got != 1 {
		t.Errorf("rejection delta = %v", got)
	}

	e := Enrolments.WithLabelValues(SourceImport)
	before = testutil.ToFloat64(e)
	Enrolled(SourceImport, 0)
	Enrolled(SourceImport, 3)
	if got := testutil.ToFloat64(e) - before; got != 3 {
		t.Errorf("enrolment delta = %v", got)
	}

	failed := EmailsSent.WithLabelValues(EmailReminder, "failed")
	before = testutil.ToFloat64(failed)
	Email(EmailReminder, false)
	Email(EmailReceipt, false)
	if got := testutil.ToFloat64(failed) - before; got != 1 {
		t.Errorf("reminder failure delta = %v", got)
	}
}
