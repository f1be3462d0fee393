package handlers

import (
	"net/http"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/services"
)

// GET /api/dashboard
func Dashboard(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := services.TeacherDashboard(env.DB, auth.ActorFrom(r.Context()), env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
