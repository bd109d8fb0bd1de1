package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/version", h.getServerVersion)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/documents", h.uploadDocument)
		r.Get("/api/documents", h.listOwnDocuments)
		r.Get("/api/documents/{documentID}", h.getOwnDocument)
		r.Get("/api/documents/{documentID}/download", h.downloadOwnDocument)

		r.Route("/api/profile/{userID}", func(r chi.Router) {
			r.Get("/", h.getProfile)
			r.Post("/regenerate", h.regenerateProfile)
			r.Get("/versions", h.listProfileVersions)
			r.Get("/versions/{version}", h.getProfileVersion)
			r.Get("/export", h.exportProfile)
		})

		r.Route("/api/admin/users/{userID}", func(r chi.Router) {
			r.Use(h.adminOnly)

			r.Delete("/", h.deleteUser)
			r.Post("/lock", h.lockUser)
			r.Post("/unlock", h.unlockUser)
			r.Get("/documents", h.listUserDocuments)
			r.Get("/documents/{documentID}", h.getUserDocument)
			r.Get("/documents/{documentID}/download", h.downloadUserDocument)
			r.Delete("/documents/{documentID}", h.deleteDocument)
			r.Post("/documents/{documentID}/reextract", h.reExtractDocument)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod)

	return router
}
