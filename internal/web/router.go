package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tuitionhub/server/internal/auth"
	"github.com/tuitionhub/server/internal/handlers"
	"github.com/tuitionhub/server/internal/models"
	"github.com/tuitionhub/server/internal/ratelimit"
)

func Router(env *handlers.Env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handlers.Healthz(env))
	r.Handle("/metrics", promhttp.Handler())

	throttle := ratelimit.Middleware(env.Limiter, env.Log)

	// Public self-registration: HTML page, QR image and JSON API
	r.Get("/r/{token}", handlers.RegisterPage(env))
	r.With(throttle).Post("/r/{token}", handlers.RegisterPageSubmit(env))
	r.Get("/r/{token}/qr.png", handlers.RegisterQR(env))
	r.Get("/api/register/{token}", handlers.RegisterInfo(env))
	r.With(throttle).Post("/api/register/{token}", handlers.RegisterSubmit(env))

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", handlers.Login(env))
		api.Post("/auth/logout", handlers.Logout(env))

		api.Group(func(s chi.Router) {
			s.Use(env.Sessions.Require(env.DB))
			s.Get("/auth/me", handlers.Me(env))

			// --- Super-admin ---
			s.Group(func(ad chi.Router) {
				ad.Use(auth.RequireRole(models.RoleSuperAdmin))
				ad.Get("/admin/teachers", handlers.ListTeachers(env))
				ad.Post("/admin/teachers", handlers.CreateTeacher(env))
				ad.Patch("/admin/teachers/{id}", handlers.UpdateTeacher(env))
				ad.Delete("/admin/teachers/{id}", handlers.DeleteTeacher(env))
				ad.Get("/admin/stats", handlers.AdminStats(env))
			})

			// dashboard totals the caller's own batches, so it is teacher-only
			s.With(auth.RequireRole(models.RoleTeacher)).Get("/dashboard", handlers.Dashboard(env))

			// --- Teacher workspace; super-admins may read and repair ---
			s.Group(func(t chi.Router) {
				t.Use(auth.RequireRole(models.RoleTeacher, models.RoleSuperAdmin))

				t.Get("/batches", handlers.ListBatches(env))
				t.Post("/batches", handlers.CreateBatch(env))
				t.Get("/batches/{id}", handlers.GetBatch(env))
				t.Put("/batches/{id}", handlers.UpdateBatch(env))
				t.Delete("/batches/{id}", handlers.DeleteBatch(env))
				t.Patch("/batches/{id}/registration", handlers.SetRegistration(env))
				t.Post("/batches/{id}/token", handlers.RegenerateToken(env))
				t.Get("/batches/{id}/qr.png", handlers.BatchQR(env))
				t.Get("/batches/{id}/students.csv", handlers.ExportRoster(env))
				t.Post("/batches/{id}/students", handlers.CreateStudent(env))
				t.Post("/batches/{id}/students/import", handlers.ImportStudents(env))

				t.Get("/students/{id}", handlers.GetStudent(env))
				t.Put("/students/{id}", handlers.UpdateStudent(env))
				t.Delete("/students/{id}", handlers.DeleteStudent(env))
				t.Patch("/students/{id}/fee", handlers.UpdateStudentFee(env))
				t.Get("/students/{id}/payments", handlers.ListPayments(env))

				t.Post("/payments", handlers.CreatePayment(env))
				t.Post("/payments/check", handlers.CheckPayment(env))
				t.Delete("/payments/{id}", handlers.DeletePayment(env))
			})
		})
	})

	return r
}
