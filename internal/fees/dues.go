package fees

import "time"

// Dues is the per-student outcome of resolving a plan against payments.
type Dues struct {
	Expected  int `json:"expected"`
	TotalPaid int `json:"totalPaid"`
	TotalDue  int `json:"totalDue"`
}

func (d Dues) Settled() bool { return d.TotalDue == 0 }

// ComputeDues clamps the due amount at zero: overpayment caused by a later
// custom-fee cut is shown as settled, not as credit.
func ComputeDues(plan Plan, totalPaid int, asOf time.Time) Dues {
	expected := plan.Expected(asOf)
	due := expected - totalPaid
	if due < 0 {
		due = 0
	}
	return Dues{Expected: expected, TotalPaid: totalPaid, TotalDue: due}
}

// Enrollment pairs a student with the plan of the batch they sit in.
type Enrollment struct {
	StudentID uint
	Plan      Plan
	TotalPaid int
}

type Summary struct {
	Students       int `json:"students"`
	TotalExpected  int `json:"totalExpected"`
	TotalCollected int `json:"totalCollected"`
	TotalPending   int `json:"totalPending"`
	PaidCount      int `json:"paidCount"`
	PendingCount   int `json:"pendingCount"`
}

// Add folds one student's dues into the summary.
func (s *Summary) Add(d Dues) {
	s.Students++
	s.TotalExpected += d.Expected
	s.TotalCollected += d.TotalPaid
	s.TotalPending += d.TotalDue
	if d.Settled() {
		s.PaidCount++
	} else {
		s.PendingCount++
	}
}

// Merge adds another scope's totals into s.
func (s *Summary) Merge(o Summary) {
	s.Students += o.Students
	s.TotalExpected += o.TotalExpected
	s.TotalCollected += o.TotalCollected
	s.TotalPending += o.TotalPending
	s.PaidCount += o.PaidCount
	s.PendingCount += o.PendingCount
}

// Aggregate resolves every enrolment and rolls them up. Batch views, teacher
// dashboards and system stats differ only in which enrolments they pass.
func Aggregate(enrollments []Enrollment, asOf time.Time) (map[uint]Dues, Summary) {
	per := make(map[uint]Dues, len(enrollments))
	var sum Summary
	for _, e := range enrollments {
		d := ComputeDues(e.Plan, e.TotalPaid, asOf)
		per[e.StudentID] = d
		sum.Add(d)
	}
	return per, sum
}
