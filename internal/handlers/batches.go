package handlers

import (
	"net/http"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/services"
)

type batchRequest struct {
	Name      string `json:"name" validate:"notblank,max=120"`
	Subject   string `json:"subject" validate:"max=120"`
	Standard  string `json:"standard" validate:"max=40"`
	Fee       int    `json:"fee" validate:"gt=0"`
	FeePeriod string `json:"feePeriod" validate:"required"`
}

func (req batchRequest) input() (services.BatchInput, error) {
	period, err := fees.ParsePeriod(req.FeePeriod)
	if err != nil {
		return services.BatchInput{}, &services.InputError{Field: "feePeriod", Message: "must be month or year"}
	}
	return services.BatchInput{
		Name: req.Name, Subject: req.Subject, Standard: req.Standard,
		Fee: req.Fee, FeePeriod: period,
	}, nil
}

type registrationRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type batchResponse struct {
	services.BatchOverview
	RegistrationURL string `json:"registrationUrl"`
}

// GET /api/batches
func ListBatches(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := services.ListBatches(env.DB, auth.ActorFrom(r.Context()), env.now())
		if err != nil {
			env.fail(w, r, err)
			return
		}
		out := make([]batchResponse, 0, len(list))
		for _, b := range list {
			out = append(out, batchResponse{BatchOverview: b, RegistrationURL: env.registrationURL(b.RegistrationToken)})
		}
		writeJSON(w, http.StatusOK, map[string]any{"batches": out})
	}
}

// POST /api/batches
func CreateBatch(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if !bind(w, r, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			env.fail(w, r, err)
			return
		}
		b, err := services.CreateBatch(env.DB, auth.ActorFrom(r.Context()), in)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, batchResponse{
			BatchOverview:   services.BatchOverview{Batch: *b},
			RegistrationURL: env.registrationURL(b.RegistrationToken),
		})
	}
}

// GET /api/batches/{id}
func GetBatch(env *Env) http.HandlerFunc {
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
		writeJSON(w, http.StatusOK, map[string]any{
			"batch":           v.Batch,
			"students":        v.Students,
			"summary":         v.Summary,
			"registrationUrl": env.registrationURL(v.Batch.RegistrationToken),
		})
	}
}

// PUT /api/batches/{id}
func UpdateBatch(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		var req batchRequest
		if !bind(w, r, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			env.fail(w, r, err)
			return
		}
		b, err := services.UpdateBatch(env.DB, auth.ActorFrom(r.Context()), id, in)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// DELETE /api/batches/{id}
func DeleteBatch(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		if err := services.DeleteBatch(env.DB, auth.ActorFrom(r.Context()), id); err != nil {
			env.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PATCH /api/batches/{id}/registration
func SetRegistration(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		var req registrationRequest
		if !bind(w, r, &req) {
			return
		}
		b, err := services.SetRegistrationEnabled(env.DB, auth.ActorFrom(r.Context()), id, *req.Enabled)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// POST /api/batches/{id}/token
func RegenerateToken(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		b, err := services.RegenerateToken(env.DB, auth.ActorFrom(r.Context()), id)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, batchResponse{
			BatchOverview:   services.BatchOverview{Batch: *b},
			RegistrationURL: env.registrationURL(b.RegistrationToken),
		})
	}
}
