package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/cookiebreaks/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервера cookie breaks.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	if h.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	}

	auth := h.authMiddleware

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/token", h.LoginV1)
		r.Post("/token", h.LoginV2)
		r.With(auth.Required).Get("/users/me", h.Me)
		r.With(auth.Required, auth.Admin).Get("/users/admin", h.Me)

		r.Route("/breaks", func(r chi.Router) {
			r.With(auth.Optional).Get("/", h.GetBreaks)
			r.With(auth.Required).Post("/host", h.SetHost)

			r.Group(func(r chi.Router) {
				r.Use(auth.Required, auth.Admin)

				r.Post("/announce", h.Announce)
				r.Post("/reimburse", h.Reimburse)
				r.Post("/test", h.AddTestBreaks)
			})
		})

		r.Route("/claims", func(r chi.Router) {
			r.Use(auth.Required, auth.Admin)

			r.Get("/", h.GetClaims)
			r.Post("/claim", h.Claim)
			r.Post("/success", h.CompleteClaim)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
