package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/metrics"
	"github.com/tuitionhub/server/internal/services"
)

const maxImportBytes = 5 << 20

type studentRequest struct {
	Name          string  `json:"name" validate:"notblank,max=120"`
	Phone         string  `json:"phone" validate:"required,max=32"`
	Email         string  `json:"email" validate:"omitempty,email"`
	Standard      string  `json:"standard" validate:"max=40"`
	CustomFee     *int    `json:"customFee"`
	JoinedAt      string  `json:"joinedAt" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  string  `json:"guardianName" validate:"max=120"`
	GuardianPhone string  `json:"guardianPhone" validate:"max=32"`
	School        string  `json:"school" validate:"max=120"`
	City          string  `json:"city" validate:"max=80"`
	DateOfBirth   string  `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

func (env *Env) studentInput(req studentRequest) services.StudentInput {
	// both dates were checked by the validator
	joined, _ := parseDate(req.JoinedAt, env.Loc)
	dob, _ := parseDate(req.DateOfBirth, env.Loc)
	in := services.StudentInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Standard:      req.Standard,
		CustomFee:     req.CustomFee,
		JoinedAt:      joined,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		School:        req.School,
		City:          req.City,
		DateOfBirth:   dob,
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	return in
}

// POST /api/batches/{id}/students
func CreateStudent(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		var req studentRequest
		if !bind(w, r, &req) {
			return
		}
		s, err := services.CreateStudent(env.DB, auth.ActorFrom(r.Context()), batchID, env.studentInput(req), env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		metrics.Enrolled(metrics.SourceTeacher, 1)
		writeJSON(w, http.StatusCreated, s)
	}
}

// GET /api/students/{id}
func GetStudent(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		v, err := services.GetStudent(env.DB, auth.ActorFrom(r.Context()), id, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// PUT /api/students/{id}
func UpdateStudent(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		var req studentRequest
		if !bind(w, r, &req) {
			return
		}
		s, err := services.UpdateStudent(env.DB, auth.ActorFrom(r.Context()), id, env.studentInput(req))
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// DELETE /api/students/{id}
func DeleteStudent(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		if err := services.DeleteStudent(env.DB, auth.ActorFrom(r.Context()), id); err != nil {
			env.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type customFeeRequest struct {
	CustomFee json.RawMessage `json:"customFee"`
}

// parseCustomFee reads an integer, a numeric string or null. Anything else
// is an InvalidAmount rejection.
func parseCustomFee(raw json.RawMessage) (*int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return nil, &services.InputError{Field: "customFee", Message: "is required (use null to clear)"}
	}
	if s == "null" {
		return nil, nil
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		s = str
	}
	v, err := fees.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// PATCH /api/students/{id}/fee
func UpdateStudentFee(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		var req customFeeRequest
		if !bind(w, r, &req) {
			return
		}
		fee, err := parseCustomFee(req.CustomFee)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		s, err := services.UpdateCustomFee(env.DB, auth.ActorFrom(r.Context()), id, fee)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /api/batches/{id}/students/import (multipart, field "file")
func ImportStudents(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			env.fail(w, r, &services.InputError{Field: "file", Message: "upload an .xlsx file of at most 5 MB"})
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			env.fail(w, r, &services.InputError{Field: "file", Message: "is required"})
			return
		}
		defer f.Close()

		rep, err := services.ImportStudents(env.DB, auth.ActorFrom(r.Context()), batchID, f, env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		metrics.Enrolled(metrics.SourceImport, rep.Created)
		env.Log.Info("student import", map[string]int{"batch": int(batchID), "created": rep.Created, "skipped": rep.Skipped, "failed": rep.Failed})
		writeJSON(w, http.StatusOK, rep)
	}
}
