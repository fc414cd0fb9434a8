package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nmoreau/penny/internal/http/chat"
	pennymw "github.com/nmoreau/penny/internal/http/middleware"
	txhttp "github.com/nmoreau/penny/internal/http/transaction"
)

func New(
	chatV1 *chat.Handler,
	transactionsV1 *txhttp.Handler,
	authMW func(http.Handler) http.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(pennymw.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Get("/", root)
	router.Get("/health", health)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Route("/chat", chatV1.Routes)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})
	})

	return router
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func root(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, statusResponse{Status: "success", Message: "Penny API is running"})
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, statusResponse{Status: "healthy", Message: "API is operational"})
}

func writeStatus(w http.ResponseWriter, resp statusResponse) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
