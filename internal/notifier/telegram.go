package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"GradeSentinel/internal/model"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultTelegramAPI,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Notify sends one grade notification as an HTML message.
func (t *TelegramNotifier) Notify(ctx context.Context, n model.Notification) error {
	return t.Send(ctx, FormatTelegram(n))
}

// FormatTelegram renders a notification as Telegram HTML.
func FormatTelegram(n model.Notification) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>%s</b>\n\n", html.EscapeString(n.Title)))
	if d := n.Details; d != nil {
		b.WriteString(fmt.Sprintf("📚 %s\n", html.EscapeString(d.Course)))
		b.WriteString(fmt.Sprintf("📝 %s\n", html.EscapeString(d.Assignment)))
		if d.OldGrade != nil {
			b.WriteString(fmt.Sprintf("%s → <b>%s</b>", html.EscapeString(*d.OldGrade), html.EscapeString(d.NewGrade)))
		} else {
			b.WriteString(fmt.Sprintf("<b>%s</b>", html.EscapeString(d.NewGrade)))
		}
		return b.String()
	}
	b.WriteString(html.EscapeString(n.Body))
	return b.String()
}

// Send sends a message to the configured chat. There is a single attempt
// bounded by the client timeout.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase(), t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (t *TelegramNotifier) apiBase() string {
	if t.APIBase == "" {
		return defaultTelegramAPI
	}
	return strings.TrimRight(t.APIBase, "/")
}
