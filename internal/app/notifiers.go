package app

import (
	"sort"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/notifier"
	"github.com/newthinker/polyedge/internal/notifier/email"
	"github.com/newthinker/polyedge/internal/notifier/telegram"
	"github.com/newthinker/polyedge/internal/notifier/webhook"
)

// BuildNotifiers creates and initializes every enabled notifier. The map key
// selects the implementation: telegram, webhook or email.
func BuildNotifiers(cfgs map[string]config.NotifierConfig) ([]notifier.Notifier, error) {
	names := make([]string, 0, len(cfgs))
	for name := range cfgs {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []notifier.Notifier
	for _, name := range names {
		c := cfgs[name]
		if !c.Enabled {
			continue
		}

		var n notifier.Notifier
		params := map[string]any{}
		switch name {
		case "telegram":
			n = telegram.New(c.BotToken, c.ChatID)
			params["bot_token"] = c.BotToken
			params["chat_id"] = c.ChatID
		case "webhook":
			n = webhook.New(c.URL, c.Headers)
			params["url"] = c.URL
			params["headers"] = c.Headers
		case "email":
			n = email.New(c.Host, c.Port, c.Username, c.Password, c.From, c.To)
			params["host"] = c.Host
			params["port"] = c.Port
			params["username"] = c.Username
			params["password"] = c.Password
			params["from"] = c.From
			params["to"] = c.To
		default:
			return nil, core.Errorf(core.ErrConfigInvalid, "unknown notifier %q", name)
		}

		if err := n.Init(notifier.Config{Type: name, Params: params}); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		out = append(out, n)
	}
	return out, nil
}
