// Package metrics holds the Prometheus collectors served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tuitionhub/server/internal/fees"
)

var (
	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_payments_recorded_total",
		Help: "Payments accepted and stored.",
	})
	PaymentAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuition_payment_amount_rupees_total",
		Help: "Sum of accepted payment amounts in rupees.",
	})
	PaymentRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuition_payment_rejections_total",
		Help: "Payment and custom fee inputs refused by the fee rules.",
	}, []string{"reason"})
	Enrolments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuition_enrolments_total",
		Help: "Students enrolled, by channel.",
	}, []string{"source"})
	EmailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuition_emails_total",
		Help: "Emails attempted, by kind and outcome.",
	}, []string{"kind", "outcome"})
)

const (
	EmailReceipt  = "receipt"
	EmailReminder = "reminder"

	SourceTeacher = "teacher"
	SourceImport  = "import"
	SourcePublic  = "public"
)

func Payment(amount int) {
	PaymentsRecorded.Inc()
	PaymentAmount.Add(float64(amount))
}

func Rejected(reason fees.Reason) {
	PaymentRejections.WithLabelValues(string(reason)).Inc()
}

func Enrolled(source string, n int) {
	if n > 0 {
		Enrolments.WithLabelValues(source).Add(float64(n))
	}
}

func Email(kind string, sent bool) {
	if sent {
		EmailsSent.WithLabelValues(kind, "sent").Inc()
		return
	}
	EmailsSent.WithLabelValues(kind, "failed").Inc()
}
