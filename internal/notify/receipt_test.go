package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/logging"
	"github.com/tuitionhub/server/internal/models"
	"github.com/tuitionhub/server/internal/services"
)

func receipt(email string, due int) services.Receipt {
	return services.Receipt{
		Payment: models.Payment{Amount: 1500, Method: "UPI", PaidAt: time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)},
		Student: models.Student{Name: "Asha <Rao>", Email: email},
		Batch:   models.Batch{Name: "Physics 10"},
		Dues:    fees.Dues{Expected: 3000, TotalPaid: 3000 - due, TotalDue: due},
	}
}

func TestPaymentReceipt(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	msg, ok, err := PaymentReceipt(receipt("asha@example.com", 1500), ist)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "asha@example.com", msg.To.Address)
	assert.Equal(t, "Payment received: ₹1500 for Physics 10", msg.Subject)
	assert.Contains(t, msg.Text, "₹1500 for Physics 10 on 10 Mar 2024")
	assert.Contains(t, msg.Text, "Balance due: ₹1500")
	assert.Contains(t, msg.Text, "Payment method: UPI")
	assert.Contains(t, msg.HTML, "Asha &lt;Rao&gt;")
	assert.NotContains(t, msg.HTML, "<Rao>")

	settled, _, err := PaymentReceipt(receipt("asha@example.com", 0), ist)
	require.NoError(t, err)
	assert.Contains(t, settled.Text, "fully paid")
}

func TestPaymentReceipt_NoEmail(t *testing.T) {
	_, ok, err := PaymentReceipt(receipt("", 0), time.UTC)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsoleMailer(t *testing.T) {
	m := NewConsoleMailer(mail.Address{Address: "desk@example.com"}, logging.Discard())
	require.NoError(t, m.Send(context.Background(), Message{To: mail.Address{Address: "a@example.com"}, Subject: "hi"}))

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0].Subject, "hi"))
}

func TestSendgridPrepare(t *testing.T) {
	m := &SendgridMailer{key: "k"}
	v3 := m.prepare(Message{To: mail.Address{Name: "A", Address: "a@example.com"}, Subject: "S", Text: "t"})
	require.Len(t, v3.Personalizations, 1)
	assert.Equal(t, "S", v3.Personalizations[0].Subject)
	assert.Len(t, v3.Content, 1, "no html part when HTML is empty")
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(config.Mail{From: "desk@example.com"}, logging.Discard()), "no key means no mailer")

	m := New(config.Mail{SendgridAPIKey: "k", From: "desk@example.com"}, logging.Discard())
	require.IsType(t, &SendgridMailer{}, m)
}

func TestSendgridSend(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusAccepted)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	m := &SendgridMailer{key: "k", host: srv.URL, from: sgmail.NewEmail("", "desk@example.com")}
	msg := Message{To: mail.Address{Address: "a@example.com"}, Subject: "S", Text: "t"}
	require.NoError(t, m.Send(context.Background(), msg))

	status.Store(http.StatusBadRequest)
	assert.ErrorContains(t, m.Send(context.Background(), msg), "status 400")
}

func TestSendgridSend_StalledServer(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	m := &SendgridMailer{key: "k", host: srv.URL, from: sgmail.NewEmail("", "desk@example.com")}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := m.Send(ctx, Message{To: mail.Address{Address: "a@example.com"}, Subject: "S", Text: "t"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
