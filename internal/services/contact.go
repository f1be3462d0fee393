package services

import (
	"net/mail"
	"regexp"
	"strings"
)

var (
	reLetters = regexp.MustCompile(`[A-Za-z]`)
	// digits, spaces, +, -, (, ) and dots
	reAllowed = regexp.MustCompile(`^[0-9+\-\s\(\)\.]+$`)
	reE164    = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
)

// NormPhone normalises a phone number to +E.164, assuming India for local
// formats. It returns "" when the input cannot be a phone number.
//
//	98765 43210     -> +919876543210
//	09876543210     -> +919876543210
//	919876543210    -> +919876543210
//	0044 20 7946 0000 -> +442079460000
func NormPhone(p string) string {
	s := strings.TrimSpace(p)
	if s == "" || reLetters.MatchString(s) || !reAllowed.MatchString(s) {
		return ""
	}
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(s)

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case len(s) == 10:
		s = "+91" + s
	case len(s) == 11 && strings.HasPrefix(s, "0"):
		s = "+91" + s[1:]
	case len(s) == 12 && strings.HasPrefix(s, "91"):
		s = "+" + s
	default:
		s = "+" + s
	}
	if !reE164.MatchString(s) {
		return ""
	}
	return s
}

// NormEmail lowercases and checks an address; empty input is allowed.
func NormEmail(s string) (string, bool) {
	e := strings.TrimSpace(strings.ToLower(s))
	if e == "" {
		return "", true
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return "", false
	}
	return e, true
}
