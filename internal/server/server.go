// Package server exposes vacancy search, region data and local postings over
// a REST API.
//
// Routes:
//
//	GET    /healthz                  liveness
//	GET    /api/search               live search merged with local postings
//	GET    /api/regions              static region catalog
//	GET    /api/areas                sub-regions of the configured root (?ids=1 for ids only)
//	GET    /api/vacancies            demo board search (?query=&perPage=)
//	GET    /api/cities               demo board cities
//	GET    /api/vacancies/:city      demo board by city (?perPage=)
//	GET    /api/jobs                 local postings as vacancies
//	GET    /api/jobs/stream          local postings as server-sent snapshots
//	POST   /api/jobs                 create a posting (bearer token)
//	DELETE /api/jobs/:id             delete own posting (bearer token)
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rsilvagit/go-vacancies/internal/fetcher"
	"github.com/rsilvagit/go-vacancies/internal/jobstore"
	"github.com/rsilvagit/go-vacancies/internal/model"
)

// Postings is the local job store as seen by the handlers.
type Postings interface {
	List(ctx context.Context) ([]model.Vacancy, error)
	Create(ctx context.Context, author model.Author, in model.PostingInput) (model.LocalJobPosting, error)
	DeleteAs(ctx context.Context, id, userID string) error
	Watch(ctx context.Context) (*jobstore.Subscription, error)
}

// Areas is the cached region hierarchy.
type Areas interface {
	Areas() ([]model.Area, time.Time)
	Lookup(id string) (model.Area, bool)
}

// Deps are the collaborators a Server is built from. Postings and Areas
// may be nil; their routes then report 503.
type Deps struct {
	Fetcher        fetcher.Fetcher
	Postings       Postings
	Areas          Areas
	Board          *Board
	RootID         string
	PerPage        int
	OnlyWithSalary bool
	JWTSecret      string
	AllowedOrigins []string
}

type Server struct {
	deps       Deps
	router     *gin.Engine
	httpServer *http.Server
}

func New(deps Deps) *Server {
	if deps.Board == nil {
		deps.Board = YakutiaBoard()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Request contexts derive from baseCtx, so open streams end on Shutdown.
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{deps: deps, router: router}
	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	s.httpServer.RegisterOnShutdown(cancel)
	s.routes()
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	return cfg
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.GET("/search", s.search)
	api.GET("/regions", s.regions)
	api.GET("/areas", s.areas)

	api.GET("/vacancies", s.boardSearch)
	api.GET("/cities", s.boardCities)
	api.GET("/vacancies/:city", s.boardByCity)

	jobs := api.Group("/jobs")
	jobs.GET("", s.listJobs)
	jobs.GET("/stream", s.streamJobs)
	jobs.POST("", requireAuth(s.deps.JWTSecret), s.createJob)
	jobs.DELETE("/:id", requireAuth(s.deps.JWTSecret), s.deleteJob)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("server listening", "component", "server", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, ends open streams and waits for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	slog.Info("server shutdown completed", "component", "server")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"component", "server",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
