// vacancy-server serves live vacancy search, the region hierarchy and local
// job postings over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rsilvagit/go-vacancies/internal/bootstrap"
	"github.com/rsilvagit/go-vacancies/internal/config"
	"github.com/rsilvagit/go-vacancies/internal/region"
	"github.com/rsilvagit/go-vacancies/internal/scheduler"
	"github.com/rsilvagit/go-vacancies/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	issueToken := flag.String("issue-token", "", "print a 24h access token for user_id[:email] and exit")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	bootstrap.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"))

	if *issueToken != "" {
		if cfg.Server.JWTSecret == "" {
			fmt.Fprintln(os.Stderr, "error: JWT_SECRET is not set")
			os.Exit(1)
		}
		userID, email, _ := strings.Cut(*issueToken, ":")
		token, err := server.IssueToken(cfg.Server.JWTSecret, userID, email, 24*time.Hour)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "component", "main", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := bootstrap.NewAPIClient(cfg.API)
	if err != nil {
		return err
	}
	defer client.CloseIdleConnections()

	rdb, closeRedis, err := bootstrap.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	f := bootstrap.NewFetcher(client, cfg, rdb)

	postings, closeStore, err := bootstrap.NewPostings(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeStore()

	areas := region.NewDirectory(region.NewAreaClient(client, cfg.API.BaseURL), cfg.Areas.Root)
	sched := scheduler.New(areas, cfg.Areas.Refresh, time.Minute)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if cfg.Server.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, posting writes are disabled", "component", "main")
	}

	srv := server.New(server.Deps{
		Fetcher:        f,
		Postings:       postings,
		Areas:          areas,
		RootID:         cfg.Areas.Root,
		PerPage:        cfg.API.PerPage,
		OnlyWithSalary: cfg.API.OnlyWithSalary,
		JWTSecret:      cfg.Server.JWTSecret,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(":" + cfg.Server.Port) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "component", "main")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
