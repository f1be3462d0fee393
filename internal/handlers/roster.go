package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/services"
)

var reFileUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func rosterFilename(batchName string) string {
	name := strings.Trim(reFileUnsafe.ReplaceAllString(batchName, "-"), "-")
	if name == "" {
		name = "batch"
	}
	return name + "-students.csv"
}

// GET /api/batches/{id}/students.csv
func ExportRoster(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		v, err := services.BatchDetail(env.DB, auth.ActorFrom(r.Context()), id, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rosterFilename(v.Batch.Name)))

		cw := csv.NewWriter(w)
		_ = cw.Write([]string{
			"Name", "Phone", "Email", "Standard", "Guardian", "Guardian Phone",
			"School", "City", "Joined", "Fee", "Expected", "Paid", "Due", "Status",
		})
		for _, s := range v.Students {
			fee := v.Batch.Fee
			if s.CustomFee != nil {
				fee = *s.CustomFee
			}
			status := "Pending"
			if s.Dues.Settled() {
				status = "Paid"
			}
			_ = cw.Write([]string{
				s.Name, s.Phone, s.Email, s.Standard, s.GuardianName, s.GuardianPhone,
				s.School, s.City, fmtISODate(s.JoinedAt, env.Loc),
				strconv.Itoa(fee) + "/" + string(v.Batch.FeePeriod),
				strconv.Itoa(s.Dues.Expected), strconv.Itoa(s.Dues.TotalPaid), strconv.Itoa(s.Dues.TotalDue),
				status,
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			env.Log.Error("roster export", err)
		}
	}
}
