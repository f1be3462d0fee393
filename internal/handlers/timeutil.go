package handlers

import "time"

// Date-only friendly string, e.g. "Mon, 02 Jan 2006"
func fmtDate(d time.Time, loc *time.Location) string {
	return d.In(loc).Format("Mon, 02 Jan 2006")
}

// ISO date string, e.g. "2006-01-02"
func fmtISODate(d time.Time, loc *time.Location) string {
	return d.In(loc).Format("2006-01-02")
}

// parseDate reads a yyyy-mm-dd form value as midnight in loc.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
