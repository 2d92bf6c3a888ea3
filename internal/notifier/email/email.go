// Package email implements an SMTP-based email notifier
package email

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/notifier"
)

// Email implements the Notifier interface for SMTP email
type Email struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

// New creates a new Email notifier
func New(host string, port int, username, password, from string, to []string) *Email {
	return &Email{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Init(cfg notifier.Config) error {
	if host, ok := cfg.Params["host"].(string); ok {
		e.host = host
	}
	switch port := cfg.Params["port"].(type) {
	case int:
		e.port = port
	case float64:
		e.port = int(port)
	}
	if username, ok := cfg.Params["username"].(string); ok {
		e.username = username
	}
	if password, ok := cfg.Params["password"].(string); ok {
		e.password = password
	}
	if from, ok := cfg.Params["from"].(string); ok {
		e.from = from
	}
	switch to := cfg.Params["to"].(type) {
	case []string:
		e.to = to
	case []any:
		e.to = e.to[:0]
		for _, v := range to {
			if s, ok := v.(string); ok {
				e.to = append(e.to, s)
			}
		}
	case string:
		e.to = strings.Split(to, ",")
	}

	if e.host == "" || e.from == "" || len(e.to) == 0 {
		return fmt.Errorf("email: host, from, and to are required")
	}
	if e.port == 0 {
		e.port = 587
	}
	return nil
}

func (e *Email) Send(signal core.Signal) error {
	subject := fmt.Sprintf("PolyEdge Signal: %s %s", signal.Direction, marketLabel(signal))
	body := e.formatSignal(signal)
	return e.sendEmail(subject, body)
}

func (e *Email) SendBatch(signals []core.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	subject := fmt.Sprintf("PolyEdge Digest: %d Signals", len(signals))

	var sb strings.Builder
	sb.WriteString("<html><body>")
	sb.WriteString("<h2>PolyEdge Signals</h2>")
	sb.WriteString(fmt.Sprintf("<p>Generated at: %s</p>", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString("<hr>")

	for _, signal := range signals {
		sb.WriteString(e.formatSignalHTML(signal))
		sb.WriteString("<hr>")
	}

	sb.WriteString("</body></html>")

	return e.sendEmail(subject, sb.String())
}

// Notify sends a plain-text operational message.
func (e *Email) Notify(msg string) error {
	return e.sendEmail("PolyEdge Alert", msg)
}

func marketLabel(signal core.Signal) string {
	if signal.MarketQuestion != "" {
		return signal.MarketQuestion
	}
	return signal.MarketID
}

func (e *Email) formatSignal(signal core.Signal) string {
	return fmt.Sprintf(`
PolyEdge Signal

Market: %s
Type: %s
Direction: %s
Confidence: %.1f%%
Entry Price: %.3f
Tier: %s
Reasoning: %s
Time: %s
`,
		marketLabel(signal),
		signal.Type,
		signal.Direction,
		signal.Confidence*100,
		signal.EntryPrice,
		signal.MarketTier,
		signal.Reasoning,
		signal.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
}

func (e *Email) formatSignalHTML(signal core.Signal) string {
	dirColor := "#28a745" // green for buy
	if signal.Direction == core.DirectionSell {
		dirColor = "#dc3545" // red for sell
	}

	return fmt.Sprintf(`
<div style="margin: 10px 0;">
  <h3 style="color: %s;">%s - %s</h3>
  <p><strong>Type:</strong> %s</p>
  <p><strong>Confidence:</strong> %.1f%%</p>
  <p><strong>Entry:</strong> %.3f (%s)</p>
  <p><strong>Reasoning:</strong> %s</p>
  <p><small>%s</small></p>
</div>
`,
		dirColor,
		html.EscapeString(marketLabel(signal)),
		signal.Direction,
		signal.Type,
		signal.Confidence*100,
		signal.EntryPrice,
		signal.MarketTier,
		html.EscapeString(signal.Reasoning),
		signal.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
}

func (e *Email) sendEmail(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	contentType := "text/plain"
	if strings.Contains(body, "<html>") {
		contentType = "text/html"
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		strings.Join(e.to, ","),
		subject,
		contentType,
		body,
	)

	return smtp.SendMail(addr, auth, e.from, e.to, []byte(msg))
}
