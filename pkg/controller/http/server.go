package http

import (
	"net/http"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/metrics"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	router *chi.Mux
	events http.HandlerFunc
	push   PushHandler
}

type Options func(*Server)

// WithEventStream mounts the hook event websocket on /ws/events.
func WithEventStream(handler http.HandlerFunc) Options {
	return func(s *Server) {
		s.events = handler
	}
}

// WithPushHandler accepts platform push payloads on /api/v1/push.
func WithPushHandler(handler PushHandler) Options {
	return func(s *Server) {
		s.push = handler
	}
}

func New(uc UseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(withUser)
	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Route("/alerts", func(r chi.Router) {
				r.Post("/", sendAlertHandler(uc))
				r.Get("/sent", sentAlertsHandler(uc))
				r.Get("/sent/{alertID}", sentAlertHandler(uc))
				r.Post("/{alertID}/open", openAlertHandler(uc))
				r.Post("/{alertID}/respond", respondHandler(uc))
				r.Post("/{alertID}/resolve", resolveHandler(uc))
			})

			r.Post("/plates", registerPlateHandler(uc))
			r.Post("/devices", registerDeviceHandler(uc))
		})

		r.Route("/acks", func(r chi.Router) {
			r.Get("/", acksHandler(uc))
			r.Get("/summary", ackSummaryHandler(uc))
			r.Delete("/{alertID}", removeAckHandler(uc))
		})

		if s.push != nil {
			r.Post("/push", pushHandler(s.push))
		}
	})

	if s.events != nil {
		r.Get("/ws/events", s.events)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
