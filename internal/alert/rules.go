package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
)

// exprPattern matches "stat op value".
var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*([\d.]+)$`)

// Rule defines an alert rule over run statistics.
type Rule struct {
	Name     string
	Expr     string
	For      time.Duration
	Severity string
	Message  string
}

// RulesFrom converts configured alert rules, rejecting malformed expressions.
func RulesFrom(cfg config.AlertsConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rule := Rule{
			Name:     r.Name,
			Expr:     r.Expr,
			For:      r.For,
			Severity: r.Severity,
			Message:  r.Message,
		}
		if _, _, _, err := rule.parse(); err != nil {
			return nil, core.Errorf(core.ErrConfigInvalid, "alert %s: %v", r.Name, err)
		}
		if rule.Severity == "" {
			rule.Severity = "warning"
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (r *Rule) parse() (stat, op string, threshold float64, err error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(r.Expr))
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("cannot parse expression %q", r.Expr)
	}
	threshold, err = strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("bad threshold in %q: %w", r.Expr, err)
	}
	return matches[1], matches[2], threshold, nil
}

// Evaluate evaluates the rule expression against stats.
// A missing stat never triggers.
func (r *Rule) Evaluate(stats map[string]float64) bool {
	stat, op, threshold, err := r.parse()
	if err != nil {
		return false
	}

	value, exists := stats[stat]
	if !exists {
		return false
	}

	switch op {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "==":
		return value == threshold
	case "!=":
		return value != threshold
	default:
		return false
	}
}

// FormatMessage renders the alert text. "{value}" in the message is
// replaced by the current value of the rule's stat.
func (r *Rule) FormatMessage(stats map[string]float64) string {
	text := r.Message
	if stat, _, _, err := r.parse(); err == nil {
		if v, ok := stats[stat]; ok {
			text = strings.ReplaceAll(text, "{value}", strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(r.Severity), r.Name, text)
}
