package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sindri-labs/sindri-go/server/api"
)

// setupRouter wires the emulated API surface. Routes mirror the hosted
// service: everything lives under /api/v1 behind bearer auth, the same
// paths the SDK client builds.
func setupRouter(server *api.Server, cfg *Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.WriteTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestSize))

	// CORS middleware
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Sindri-Client"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Compression
	r.Use(middleware.Compress(5))

	// Health check, outside the authenticated API
	r.Get("/health", server.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequireBearerToken)

		// Circuit operations
		r.Post("/circuit/create", server.HandleCreateCircuit)
		r.Get("/circuit/list", server.HandleListCircuits)
		r.Get("/circuit/{circuitID}/detail", server.HandleCircuitDetail)
		r.Get("/circuit/{circuitID}/status", server.HandleCircuitStatus)
		r.Get("/circuit/{circuitID}/proofs", server.HandleCircuitProofs)
		r.Get("/circuit/{circuitID}/smart_contract_verifier", server.HandleSmartContractVerifier)
		r.Post("/circuit/{circuitID}/prove", server.HandleProve)
		r.Delete("/circuit/{circuitID}/delete", server.HandleDeleteCircuit)

		// Proof operations
		r.Get("/proof/{proofID}/detail", server.HandleProofDetail)
		r.Get("/proof/{proofID}/status", server.HandleProofStatus)
		r.Delete("/proof/{proofID}/delete", server.HandleDeleteProof)

		// Team operations
		r.Get("/team/me", server.HandleTeamMe)
	})

	return r
}
