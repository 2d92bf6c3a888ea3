package notifier

import (
	"github.com/newthinker/polyedge/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notifier delivers routed signals and operational alerts
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send sends a single signal notification
	Send(signal core.Signal) error

	// SendBatch sends multiple signal notifications
	SendBatch(signals []core.Signal) error

	// Notify sends a plain-text operational message
	Notify(msg string) error
}
