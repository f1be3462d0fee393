package notify

import (
	"bytes"
	htmltemplate "html/template"
	"net/mail"
	"text/template"

	"github.com/pkg/errors"

	"github.com/tuitionhub/server/internal/services"
)

const reminderText = `Dear {{.Name}},

This is a reminder that ₹{{.Due}} is pending for {{.Batch}}.
Fees so far: ₹{{.Expected}}, paid: ₹{{.Paid}}.

Please ignore this message if you have paid in the last few days.
`

const reminderHTML = `<p>Dear {{.Name}},</p>
<p>This is a reminder that <strong>₹{{.Due}}</strong> is pending for {{.Batch}}.<br>
Fees so far: ₹{{.Expected}}, paid: ₹{{.Paid}}.</p>
<p>Please ignore this message if you have paid in the last few days.</p>
`

var (
	reminderTextTmpl = template.Must(template.New("reminder.txt").Parse(reminderText))
	reminderHTMLTmpl = htmltemplate.Must(htmltemplate.New("reminder.html").Parse(reminderHTML))
)

type reminderData struct {
	Name     string
	Batch    string
	Expected int
	Paid     int
	Due      int
}

func DuesReminder(r services.Reminder) (Message, error) {
	data := reminderData{
		Name:     r.Student.Name,
		Batch:    r.Batch.Name,
		Expected: r.Dues.Expected,
		Paid:     r.Dues.TotalPaid,
		Due:      r.Dues.TotalDue,
	}
	var text, html bytes.Buffer
	if err := reminderTextTmpl.Execute(&text, data); err != nil {
		return Message{}, errors.Wrap(err, "render reminder text")
	}
	if err := reminderHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, errors.Wrap(err, "render reminder html")
	}
	return Message{
		To:      mail.Address{Name: r.Student.Name, Address: r.Student.Email},
		Subject: "Fee reminder: " + r.Batch.Name,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
