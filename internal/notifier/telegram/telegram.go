package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/notifier"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  DefaultAPIBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithAPIBase points the notifier at a different Bot API host.
func (t *Telegram) WithAPIBase(base string) *Telegram {
	t.apiBase = strings.TrimRight(base, "/")
	return t
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}
	if base, ok := cfg.Params["api_base"].(string); ok && base != "" {
		t.apiBase = strings.TrimRight(base, "/")
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}
	if t.apiBase == "" {
		t.apiBase = DefaultAPIBase
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (t *Telegram) Send(signal core.Signal) error {
	return t.sendMessage(t.formatSignal(signal))
}

func (t *Telegram) SendBatch(signals []core.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d PolyEdge Signals*\n\n", len(signals)))

	for i, signal := range signals {
		sb.WriteString(t.formatSignal(signal))
		if i < len(signals)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(sb.String())
}

// Notify sends a plain-text operational message.
func (t *Telegram) Notify(msg string) error {
	return t.sendMessage("⚠️ " + msg)
}

func (t *Telegram) formatSignal(signal core.Signal) string {
	var sb strings.Builder

	dirEmoji := "📈"
	if signal.Direction == core.DirectionSell {
		dirEmoji = "📉"
	}

	question := signal.MarketQuestion
	if question == "" {
		question = signal.MarketID
	}
	sb.WriteString(fmt.Sprintf("%s *%s* %s\n", dirEmoji, signal.Direction, question))
	sb.WriteString(fmt.Sprintf("🎯 Type: %s\n", signal.Type))
	sb.WriteString(fmt.Sprintf("📊 Confidence: %.1f%%\n", signal.Confidence*100))

	if signal.EntryPrice > 0 {
		sb.WriteString(fmt.Sprintf("💰 Entry: %.3f (%s)\n", signal.EntryPrice, signal.MarketTier))
	}

	if signal.Reasoning != "" {
		sb.WriteString(fmt.Sprintf("💡 %s\n", signal.Reasoning))
	}

	sb.WriteString(fmt.Sprintf("⏰ Time: %s", signal.CreatedAt.UTC().Format("2006-01-02 15:04:05")))

	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
