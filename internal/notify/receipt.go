package notify

import (
	"bytes"
	htmltemplate "html/template"
	"net/mail"
	"strconv"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/tuitionhub/server/internal/services"
)

const receiptText = `Dear {{.Name}},

We have received your payment of ₹{{.Amount}} for {{.Batch}} on {{.Date}}.
{{- if .Method}}
Payment method: {{.Method}}{{end}}

Total paid so far: ₹{{.TotalPaid}}
{{if .Due}}Balance due: ₹{{.Due}}{{else}}Your fees are fully paid. Thank you!{{end}}
`

const receiptHTML = `<p>Dear {{.Name}},</p>
<p>We have received your payment of <strong>₹{{.Amount}}</strong> for {{.Batch}} on {{.Date}}.</p>
{{if .Method}}<p>Payment method: {{.Method}}</p>{{end}}
<p>Total paid so far: ₹{{.TotalPaid}}<br>
{{if .Due}}Balance due: <strong>₹{{.Due}}</strong>{{else}}Your fees are fully paid. Thank you!{{end}}</p>
`

var (
	receiptTextTmpl = template.Must(template.New("receipt.txt").Parse(receiptText))
	receiptHTMLTmpl = htmltemplate.Must(htmltemplate.New("receipt.html").Parse(receiptHTML))
)

type receiptData struct {
	Name      string
	Batch     string
	Amount    int
	Method    string
	Date      string
	TotalPaid int
	Due       int
}

// PaymentReceipt builds the email for a recorded payment. The bool is false
// when the student has no email address.
func PaymentReceipt(rc services.Receipt, loc *time.Location) (Message, bool, error) {
	if rc.Student.Email == "" {
		return Message{}, false, nil
	}
	data := receiptData{
		Name:      rc.Student.Name,
		Batch:     rc.Batch.Name,
		Amount:    rc.Payment.Amount,
		Method:    rc.Payment.Method,
		Date:      rc.Payment.PaidAt.In(loc).Format("02 Jan 2006"),
		TotalPaid: rc.Dues.TotalPaid,
		Due:       rc.Dues.TotalDue,
	}
	var text, html bytes.Buffer
	if err := receiptTextTmpl.Execute(&text, data); err != nil {
		return Message{}, false, errors.Wrap(err, "render receipt text")
	}
	if err := receiptHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, false, errors.Wrap(err, "render receipt html")
	}
	return Message{
		To:      mail.Address{Name: rc.Student.Name, Address: rc.Student.Email},
		Subject: "Payment received: ₹" + strconv.Itoa(rc.Payment.Amount) + " for " + rc.Batch.Name,
		Text:    text.String(),
		HTML:    html.String(),
	}, true, nil
}
