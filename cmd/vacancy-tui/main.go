package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rsilvagit/go-vacancies/internal/bootstrap"
	"github.com/rsilvagit/go-vacancies/internal/config"
	"github.com/rsilvagit/go-vacancies/internal/region"
	"github.com/rsilvagit/go-vacancies/internal/session"
	"github.com/rsilvagit/go-vacancies/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "Путь к YAML-конфигурации")
	logFile := flag.String("log-file", filepath.Join(os.TempDir(), "go-vacancies-tui.log"), "Файл журнала")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	lf, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка журнала: %v\n", err)
		os.Exit(1)
	}
	defer lf.Close()
	bootstrap.SetupLogger(lf, os.Getenv("LOG_LEVEL"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := bootstrap.NewAPIClient(cfg.API)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
	defer client.CloseIdleConnections()

	rdb, closeRedis, err := bootstrap.ConnectRedis(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Предупреждение: %v\n", err)
		rdb, closeRedis = nil, func() {}
	}
	defer closeRedis()

	f := bootstrap.NewFetcher(client, cfg, rdb)

	opts := tui.Options{
		Controller: session.NewController(f, session.Options{
			PerPage:        cfg.API.PerPage,
			OnlyWithSalary: cfg.API.OnlyWithSalary,
		}),
		Regions: region.All(),
	}
	postings, closeStore, err := bootstrap.NewPostings(ctx, cfg, rdb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Предупреждение: локальные вакансии недоступны: %v\n", err)
	} else {
		defer closeStore()
		opts.Postings = postings
	}

	app := tui.NewApp(ctx, opts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}
