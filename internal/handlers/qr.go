package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/services"
)

func writeQR(w http.ResponseWriter, url string) {
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// GET /api/batches/{id}/qr.png
func BatchQR(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(r, "id")
		if !ok {
			env.fail(w, r, services.ErrNotFound)
			return
		}
		b, err := services.GetBatch(env.DB, auth.ActorFrom(r.Context()), id)
		if err != nil {
			env.fail(w, r, err)
			return
		}
		writeQR(w, env.registrationURL(b.RegistrationToken))
	}
}

// GET /r/{token}/qr.png
func RegisterQR(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := services.BatchByToken(env.DB, chi.URLParam(r, "token"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		writeQR(w, env.registrationURL(b.RegistrationToken))
	}
}
