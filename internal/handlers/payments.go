package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/metrics"
	"github.com/tuitionhub/server/internal/models"
	"github.com/tuitionhub/server/internal/notify"
	"github.com/tuitionhub/server/internal/services"
)

const mailTimeout = 10 * time.Second

type paymentRequest struct {
	StudentID     uint            `json:"studentId" validate:"required"`
	Amount        json.RawMessage `json:"amount"`
	PaymentMethod string          `json:"paymentMethod" validate:"max=40"`
}

type paymentResponse struct {
	Payment   models.Payment `json:"payment"`
	Dues      fees.Dues      `json:"dues"`
	EmailSent *bool          `json:"emailSent"`
}

type checkResponse struct {
	OK        bool   `json:"ok"`
	Amount    int    `json:"amount,omitempty"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

// rawAmount turns a JSON number or string into the text ParseAmount expects.
func rawAmount(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// sendReceipt reports nil when no email was attempted.
func (env *Env) sendReceipt(ctx context.Context, rc services.Receipt) *bool {
	if env.Mailer == nil {
		return nil
	}
	msg, ok, err := notify.PaymentReceipt(rc, env.Loc)
	if err != nil {
		env.Log.Error("render receipt", err)
		return nil
	}
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()

	sent := true
	if err := env.Mailer.Send(ctx, msg); err != nil {
		env.Log.Warn("receipt email failed", err)
		sent = false
	}
	metrics.Email(metrics.EmailReceipt, sent)
	return &sent
}

// POST /api/payments
func CreatePayment(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentRequest
		if !bind(w, r, &req) {
			return
		}
		amount, err := fees.ParseAmount(rawAmount(req.Amount))
		if err != nil {
			env.fail(w, r, err)
			return
		}
		rc, err := services.RecordPayment(env.DB, auth.ActorFrom(r.Context()), services.PaymentInput{
			StudentID: req.StudentID,
			Amount:    amount,
			Method:    req.PaymentMethod,
		}, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		metrics.Payment(rc.Payment.Amount)
		writeJSON(w, http.StatusCreated, paymentResponse{
			Payment:   rc.Payment,
			Dues:      rc.Dues,
			EmailSent: env.sendReceipt(r.Context(), *rc),
		})
	}
}

// POST /api/payments/check
func CheckPayment(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentRequest
		if !bind(w, r, &req) {
			return
		}
		amount, dues, err := services.CheckPayment(env.DB, auth.ActorFrom(r.Context()), req.StudentID, rawAmount(req.Amount), env.now())
		if rej, ok := fees.AsRejection(err); ok {
			writeJSON(w, http.StatusOK, checkResponse{
				Remaining: dues.TotalDue,
				Reason:    string(rej.Reason),
				Message:   rej.Error(),
			})
			return
		}
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, checkResponse{OK: true, Amount: amount, Remaining: dues.TotalDue})
	}
}

// GET /api/students/{id}/payments
func ListPayments(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		l, err := services.PaymentsByStudent(env.DB, auth.ActorFrom(r.Context()), id, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

// DELETE /api/payments/{id}
func DeletePayment(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		if err := services.DeletePayment(env.DB, auth.ActorFrom(r.Context()), id); err != nil {
			env.fail(w, r, err)
			return
		}
		env.Log.Info("payment deleted", id)
		w.WriteHeader(http.StatusNoContent)
	}
}
