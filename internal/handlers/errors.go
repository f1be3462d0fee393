package handlers

import (
	"errors"
	"net/http"

	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/metrics"
	"github.com/tuitionhub/server/internal/services"
)

// fail writes err as a JSON error. Input problems are answered quietly;
// anything unrecognised is logged and hidden behind a generic 500.
func (env *Env) fail(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := fees.AsRejection(err); ok {
		metrics.Rejected(rej.Reason)
		body := errorBody{Error: string(rej.Reason), Message: rej.Error()}
		if rej.Reason == fees.ExceedsRemainingBalance {
			remaining := rej.Remaining
			body.Remaining = &remaining
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	var ie *services.InputError
	if errors.As(err, &ie) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation",
			Message: errText["validation"],
			Fields:  map[string]string{ie.Field: ie.Message},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", errText["not_found"])
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", errText["forbidden"])
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", errText["conflict"])
	case errors.Is(err, services.ErrRegistrationClosed):
		writeError(w, http.StatusForbidden, "registration_closed", errText["registration_closed"])
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", errText["invalid_credentials"])
	case errors.Is(err, services.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "account_inactive", errText["account_inactive"])
	default:
		env.Log.Error(r.Method+" "+r.URL.Path+" failed", err)
		writeError(w, http.StatusInternalServerError, "internal", errText["internal"])
	}
}

// badRequest answers a body that could not be decoded or validated.
func badRequest(w http.ResponseWriter, err error) {
	if fields := fieldErrors(err); fields != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation", Message: errText["validation"], Fields: fields})
		return
	}
	writeError(w, http.StatusBadRequest, "bad_request", err.Error())
}

// bind decodes and validates a JSON body, answering the request on failure.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		badRequest(w, err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		badRequest(w, err)
		return false
	}
	return true
}
