package handlers

import (
	"net/http"
	"strings"
)

type Flash struct {
	Kind string // "ok" or "error"
	Text string
}

var okText = map[string]string{
	"registered": "You are enrolled. Your teacher will be in touch.",
}

var errText = map[string]string{
	"validation":          "Some fields are missing or invalid.",
	"not_found":           "Not found.",
	"forbidden":           "You do not have access to this.",
	"conflict":            "This phone number is already enrolled in this batch.",
	"registration_closed": "Registration for this batch is closed.",
	"invalid_credentials": "Invalid email or password.",
	"account_inactive":    "This account has been deactivated.",
	"rate_limited":        "Too many attempts. Please try again later.",
	"internal":            "Something went wrong. Please try again.",
}

// MakeFlash reads ?ok= / ?error= codes, falling back to explicit strings.
func MakeFlash(r *http.Request, errStr, msgStr string) *Flash {
	q := r.URL.Query()
	if code := strings.ToLower(strings.TrimSpace(q.Get("error"))); code != "" {
		if t, ok := errText[code]; ok {
			return &Flash{Kind: "error", Text: t}
		}
	}
	if code := strings.ToLower(strings.TrimSpace(q.Get("ok"))); code != "" {
		if t, ok := okText[code]; ok {
			return &Flash{Kind: "ok", Text: t}
		}
	}
	if errStr != "" {
		return &Flash{Kind: "error", Text: errStr}
	}
	if msgStr != "" {
		return &Flash{Kind: "ok", Text: msgStr}
	}
	return nil
}
