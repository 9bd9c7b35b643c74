package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rsilvagit/go-vacancies/internal/model"
)

// DiscordWriter posts vacancies to a Discord channel webhook.
type DiscordWriter struct {
	webhookURL string
	client     *http.Client
}

func NewDiscordWriter(webhookURL string) *DiscordWriter {
	return &DiscordWriter{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

func (dw *DiscordWriter) WriteVacancies(ctx context.Context, vacancies []model.Vacancy) error {
	if len(vacancies) == 0 {
		return dw.send(ctx, NoResults)
	}

	// Discord has a 2000 char limit per message.
	entries := make([]string, len(vacancies))
	for i, v := range vacancies {
		entries[i] = formatDiscord(i+1, v)
	}
	header := fmt.Sprintf("**Найдено вакансий: %d**\n\n", len(vacancies))

	for _, c := range chunk(header, entries, 1900) {
		if err := dw.send(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func formatDiscord(n int, v model.Vacancy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%d. %s**\n", n, v.Title)
	fmt.Fprintf(&b, "> Работодатель: %s\n", v.EmployerName)
	fmt.Fprintf(&b, "> Зарплата: %s\n", v.SalaryDisplay)
	fmt.Fprintf(&b, "> Регион: %s\n", v.Area)
	if v.ExperienceLabel != "" {
		fmt.Fprintf(&b, "> Опыт: %s\n", v.ExperienceLabel)
	}
	if v.SourceURL != "" {
		fmt.Fprintf(&b, "> [Открыть вакансию](%s)\n", v.SourceURL)
	}
	b.WriteString("\n")
	return b.String()
}

type discordPayload struct {
	Content string `json:"content"`
}

func (dw *DiscordWriter) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(discordPayload{Content: text})
	if err != nil {
		return fmt.Errorf("discord: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dw.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dw.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var result struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("discord: API error %d: %s", resp.StatusCode, result.Message)
	}
	return nil
}
