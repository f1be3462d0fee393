package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuitionhub/server/internal/metrics"
	"github.com/tuitionhub/server/internal/models"
	"github.com/tuitionhub/server/internal/services"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var registerView = template.Must(template.ParseFS(templateFS, "templates/register.tmpl"))

type registerForm struct {
	Name          string `json:"name" validate:"notblank,max=120"`
	Phone         string `json:"phone" validate:"required,max=32"`
	Email         string `json:"email" validate:"omitempty,email"`
	Standard      string `json:"standard" validate:"max=40"`
	GuardianName  string `json:"guardianName" validate:"max=120"`
	GuardianPhone string `json:"guardianPhone" validate:"max=32"`
	School        string `json:"school" validate:"max=120"`
	City          string `json:"city" validate:"max=80"`
}

func (f registerForm) input() services.StudentInput {
	return services.StudentInput{
		Name: f.Name, Phone: f.Phone, Email: f.Email, Standard: f.Standard,
		GuardianName: f.GuardianName, GuardianPhone: f.GuardianPhone,
		School: f.School, City: f.City,
	}
}

type registerVM struct {
	Title    string
	Batch    models.Batch
	Form     registerForm
	Flash    *Flash
	Done     *services.Registration
	JoinedOn string
}

// publicBatch is what an anonymous visitor may learn about a batch.
type publicBatch struct {
	Name                string `json:"name"`
	Subject             string `json:"subject,omitempty"`
	Standard            string `json:"standard"`
	Fee                 int    `json:"fee"`
	FeePeriod           string `json:"feePeriod"`
	RegistrationEnabled bool   `json:"registrationEnabled"`
}

func publicView(b models.Batch) publicBatch {
	return publicBatch{
		Name: b.Name, Subject: b.Subject, Standard: b.Standard,
		Fee: b.Fee, FeePeriod: string(b.FeePeriod), RegistrationEnabled: b.RegistrationEnabled,
	}
}

func (env *Env) renderRegister(w http.ResponseWriter, status int, vm registerVM) {
	vm.Title = vm.Batch.Name + " • Register"
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := registerView.ExecuteTemplate(w, "register.tmpl", vm); err != nil {
		env.Log.Error("render register page", err)
	}
}

// GET /r/{token}
func RegisterPage(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := services.BatchByToken(env.DB, chi.URLParam(r, "token"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		env.renderRegister(w, http.StatusOK, registerVM{Batch: *b, Flash: MakeFlash(r, "", "")})
	}
}

// registerFailure picks the flash text and status for a failed sign-up.
func registerFailure(err error) (int, string, bool) {
	var ie *services.InputError
	switch {
	case errors.As(err, &ie):
		return http.StatusBadRequest, "Please check " + ie.Field + ": " + ie.Message + ".", true
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, errText["conflict"], true
	case errors.Is(err, services.ErrRegistrationClosed):
		return http.StatusForbidden, errText["registration_closed"], true
	}
	return http.StatusInternalServerError, errText["internal"], false
}

// POST /r/{token} (form post from the public page)
func RegisterPageSubmit(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := services.BatchByToken(env.DB, chi.URLParam(r, "token"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := registerForm{
			Name:          strings.TrimSpace(r.FormValue("name")),
			Phone:         strings.TrimSpace(r.FormValue("phone")),
			Email:         strings.TrimSpace(r.FormValue("email")),
			Standard:      strings.TrimSpace(r.FormValue("standard")),
			GuardianName:  strings.TrimSpace(r.FormValue("guardian_name")),
			GuardianPhone: strings.TrimSpace(r.FormValue("guardian_phone")),
			School:        strings.TrimSpace(r.FormValue("school")),
			City:          strings.TrimSpace(r.FormValue("city")),
		}
		if err := validate.Struct(form); err != nil {
			env.renderRegister(w, http.StatusBadRequest, registerVM{Batch: *b, Form: form, Flash: &Flash{Kind: "error", Text: errText["validation"]}})
			return
		}

		reg, err := services.RegisterStudent(env.DB, b.RegistrationToken, form.input(), env.now())
		if err != nil {
			status, text, known := registerFailure(err)
			if !known {
				env.Log.Error("public registration", err)
			}
			env.renderRegister(w, status, registerVM{Batch: *b, Form: form, Flash: &Flash{Kind: "error", Text: text}})
			return
		}
		metrics.Enrolled(metrics.SourcePublic, 1)
		env.renderRegister(w, http.StatusCreated, registerVM{
			Batch:    reg.Batch,
			Flash:    &Flash{Kind: "ok", Text: okText["registered"]},
			Done:     reg,
			JoinedOn: fmtDate(reg.Student.JoinedAt, env.Loc),
		})
	}
}

// GET /api/register/{token}
func RegisterInfo(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := services.BatchByToken(env.DB, chi.URLParam(r, "token"))
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, publicView(*b))
	}
}

// POST /api/register/{token}
func RegisterSubmit(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form registerForm
		if !bind(w, r, &form) {
			return
		}
		reg, err := services.RegisterStudent(env.DB, chi.URLParam(r, "token"), form.input(), env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		metrics.Enrolled(metrics.SourcePublic, 1)
		writeJSON(w, http.StatusCreated, map[string]any{
			"studentId": reg.Student.ID,
			"name":      reg.Student.Name,
			"batch":     publicView(reg.Batch),
			"dues":      reg.Dues,
		})
	}
}
