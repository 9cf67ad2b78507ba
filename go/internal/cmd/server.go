package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"
	"github.com/mcdev12/bbdraft/go/internal/auth"
	"github.com/mcdev12/bbdraft/go/internal/draft/httpapi"
	"github.com/mcdev12/bbdraft/go/internal/draft/rpc"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()
	verifier := auth.NewVerifier(config.Auth.Secret, config.Auth.Issuer)

	// Setup CORS middleware
	origins := config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{rpc.ErrorKindHeader},
	})

	// Register services
	registerServices(mux, services, verifier)

	// Add health check endpoint
	setupHealthCheck(mux, config, services)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func registerServices(mux *http.ServeMux, services *Services, verifier *auth.Verifier) {
	// Register draft service
	draftServicePath, draftServiceHandler := rpc.NewDraftServiceHandler(
		rpc.NewService(services.Lifecycle, services.Picks),
		connect.WithInterceptors(auth.NewInterceptor(verifier)),
	)
	mux.Handle(draftServicePath, draftServiceHandler)

	// Register REST routes
	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.NewHandler(services.Lifecycle, services.Picks).RegisterRoutes(router, verifier)
	mux.Handle("/api/", router)

	// Register draft room websocket
	services.Hub.RegisterRoutes(mux, func(next http.Handler) http.Handler {
		return auth.HTTPMiddleware(verifier, next)
	})
}

type healthResponse struct {
	Status      string        `json:"status"`
	Instance    string        `json:"instance"`
	Store       string        `json:"store"`
	Connections int           `json:"connections"`
	Rooms       int           `json:"rooms"`
	Outbox      *outboxHealth `json:"outbox,omitempty"`
}

type outboxHealth struct {
	Published     uint64    `json:"published"`
	Failed        uint64    `json:"failed"`
	LastPublished time.Time `json:"last_published,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

func setupHealthCheck(mux *http.ServeMux, config *Config, services *Services) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:   "ok",
			Instance: services.instance,
			Store:    config.Store.Driver,
		}
		for _, n := range services.Hub.Connections() {
			resp.Connections += n
			resp.Rooms++
		}
		if services.Relayer != nil {
			stats := services.Relayer.Stats()
			resp.Outbox = &outboxHealth{
				Published:     stats.Published,
				Failed:        stats.Failed,
				LastPublished: stats.LastPublished,
				LastError:     stats.LastError,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
