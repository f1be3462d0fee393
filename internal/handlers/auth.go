package handlers

import (
	"net/http"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/services"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type meResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Label string `json:"roleLabel"`
}

// POST /api/auth/login
func Login(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !bind(w, r, &req) {
			return
		}
		acct, err := services.Authenticate(env.DB, req.Email, req.Password, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		token, exp, err := env.Sessions.Issue(*acct)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		env.Sessions.SetCookie(w, token, exp)
		env.Log.Info("login", acct.Email)
		writeJSON(w, http.StatusOK, meResponse{ID: acct.ID, Name: acct.Name, Email: acct.Email, Role: string(acct.Role), Label: acct.Role.Label()})
	}
}

// POST /api/auth/logout
func Logout(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		env.Sessions.ClearCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /api/auth/me
func Me(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, ok := auth.AccountFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		writeJSON(w, http.StatusOK, meResponse{ID: acct.ID, Name: acct.Name, Email: acct.Email, Role: string(acct.Role), Label: acct.Role.Label()})
	}
}
