package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/daybreak-app/daybreak-api/internal/api"
	apiMiddleware "github.com/daybreak-app/daybreak-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	importHandler := api.NewImportHandler(app.importService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/imports", func(r chi.Router) {
				r.Post("/", importHandler.StartImport)
				r.Get("/", importHandler.ListImports)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", importHandler.GetImport)
					r.Delete("/", importHandler.DeleteImport)
					r.Get("/preview", importHandler.GetPreview)
					r.Put("/preview", importHandler.UpdatePreview)
					r.Post("/apply", importHandler.ApplyImport)
					r.Post("/cancel", importHandler.CancelImport)
					r.Post("/retry", importHandler.RetryImport)
				})
			})
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
