package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rsilvagit/go-vacancies/internal/bootstrap"
	"github.com/rsilvagit/go-vacancies/internal/config"
	"github.com/rsilvagit/go-vacancies/internal/filter"
	"github.com/rsilvagit/go-vacancies/internal/model"
	"github.com/rsilvagit/go-vacancies/internal/output"
	"github.com/rsilvagit/go-vacancies/internal/region"
	"github.com/rsilvagit/go-vacancies/internal/session"
)

func envOrFlag(flagVal, fallback string) string {
	if flagVal != "" {
		return flagVal
	}
	return fallback
}

func main() {
	configPath := flag.String("config", "", "Путь к YAML-конфигурации")
	query := flag.String("q", "", "Поисковый запрос (например, \"геолог\")")
	area := flag.String("area", region.RootID, "Регион: id или название (например, \"Мирный\")")
	pages := flag.Int("pages", 1, "Сколько страниц загрузить")
	onlyWithSalary := flag.Bool("only-with-salary", false, "Только вакансии с указанной зарплатой")
	city := flag.String("city", "", "Оставить только вакансии из городов (через запятую)")
	withLocal := flag.Bool("local", false, "Добавить локальные вакансии из хранилища")
	timeout := flag.Duration("timeout", 30*time.Second, "Общий таймаут")
	telegramToken := flag.String("telegram-token", "", "Токен Telegram-бота")
	telegramChatID := flag.String("telegram-chat-id", "", "Chat ID в Telegram")
	discordWebhook := flag.String("discord-webhook", "", "URL вебхука Discord")
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
	bootstrap.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"))

	if *pages < 1 {
		fmt.Fprintln(os.Stderr, "Ошибка: -pages должно быть не меньше 1")
		flag.Usage()
		os.Exit(1)
	}

	reg, ok := region.Resolve(*area)
	if !ok {
		reg = model.Region{ID: *area, DisplayName: *area}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
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

	controller := session.NewController(f, session.Options{
		PerPage:        cfg.API.PerPage,
		OnlyWithSalary: cfg.API.OnlyWithSalary || *onlyWithSalary,
	})
	controller.Search(*query)

	fmt.Printf("Поиск в регионе %s...\n", reg.DisplayName)
	controller.Do(ctx, controller.SelectRegion(reg))
	for i := 1; i < *pages; i++ {
		req, ok := controller.LoadMore()
		if !ok {
			break
		}
		controller.Do(ctx, req)
	}

	snap := controller.Snapshot()
	if snap.Err != nil {
		fmt.Fprintf(os.Stderr, "Предупреждение: %v\n", snap.Err)
	}

	var local []model.Vacancy
	if *withLocal {
		postings, closeStore, err := bootstrap.NewPostings(ctx, cfg, rdb)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Предупреждение: локальные вакансии недоступны: %v\n", err)
		} else {
			defer closeStore()
			if local, err = postings.List(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Предупреждение: локальные вакансии недоступны: %v\n", err)
			}
		}
	}

	vacancies := snap.Merged(local)
	if *city != "" {
		vacancies = filter.Apply(vacancies, filter.Options{Area: *city})
	}
	if len(vacancies) == 0 && snap.Err != nil {
		os.Exit(1)
	}

	fmt.Println()
	writers := []output.ResultWriter{output.NewConsolePrinter()}

	tkn := envOrFlag(*telegramToken, cfg.Notify.TelegramToken)
	chatID := envOrFlag(*telegramChatID, cfg.Notify.TelegramChatID)
	if tkn != "" && chatID != "" {
		writers = append(writers, output.NewTelegramWriter(tkn, chatID))
	}
	if hook := envOrFlag(*discordWebhook, cfg.Notify.DiscordWebhookURL); hook != "" {
		writers = append(writers, output.NewDiscordWriter(hook))
	}

	for _, w := range writers {
		if err := w.WriteVacancies(ctx, vacancies); err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка вывода результатов: %v\n", err)
		}
	}

	fmt.Printf("\nВсего: %d (найдено по запросу: %d).\n", len(vacancies), snap.Found)
}
