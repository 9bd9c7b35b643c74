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

const telegramAPI = "https://api.telegram.org"

// TelegramWriter sends vacancies to a Telegram chat via the Bot API.
type TelegramWriter struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegramWriter(token, chatID string) *TelegramWriter {
	return &TelegramWriter{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{},
	}
}

func (tw *TelegramWriter) WriteVacancies(ctx context.Context, vacancies []model.Vacancy) error {
	if len(vacancies) == 0 {
		return tw.send(ctx, escapeMarkdown(NoResults))
	}

	// Telegram has a 4096 char limit per message.
	entries := make([]string, len(vacancies))
	for i, v := range vacancies {
		entries[i] = formatTelegram(i+1, v)
	}
	header := fmt.Sprintf("*Найдено вакансий: %d*\n\n", len(vacancies))

	for _, c := range chunk(header, entries, 3800) {
		if err := tw.send(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func formatTelegram(n int, v model.Vacancy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\\. %s*\n", n, escapeMarkdown(v.Title))
	fmt.Fprintf(&b, "Работодатель: %s\n", escapeMarkdown(v.EmployerName))
	fmt.Fprintf(&b, "Зарплата: %s\n", escapeMarkdown(v.SalaryDisplay))
	fmt.Fprintf(&b, "Регион: %s\n", escapeMarkdown(v.Area))
	if v.SourceURL != "" {
		fmt.Fprintf(&b, "[Открыть вакансию](%s)\n", v.SourceURL)
	}
	b.WriteString("\n")
	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]",
	"(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`",
	">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}",
	".", "\\.", "!", "\\!",
)

// escapeMarkdown escapes the MarkdownV2 reserved characters.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func (tw *TelegramWriter) send(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", tw.baseURL, tw.token)

	body, err := json.Marshal(map[string]string{
		"chat_id":    tw.chatID,
		"text":       text,
		"parse_mode": "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tw.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error %d: %s", resp.StatusCode, result.Description)
	}
	return nil
}
