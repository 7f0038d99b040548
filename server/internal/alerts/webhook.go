package alerts

import (
	"fmt"
	"log/slog"

	"github.com/interday/reliastat/pkg/types"
)

// deliver sends a to every target in webhooks. Errors are logged and dropped.
func (e *Engine) deliver(webhooks []Webhook, a types.Alert) {
	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var payload interface{}
		switch wh.Type {
		case "slack":
			payload = map[string]string{
				"text": fmt.Sprintf("*%s* %s", severityLabel(a.Severity), message(a)),
			}
		case "teams":
			payload = map[string]interface{}{
				"@type":      "MessageCard",
				"@context":   "http://schema.org/extensions",
				"themeColor": severityColor(a.Severity),
				"summary":    a.Rule,
				"title":      fmt.Sprintf("reliastat alert: %s", a.Rule),
				"text":       message(a),
			}
		case "pagerduty", "http":
			payload = map[string]interface{}{"alert": a}
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := e.post(url, payload); err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.Rule,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.Rule)
	}
}

func (e *Engine) post(url string, payload interface{}) error {
	resp, err := e.client.R().SetBody(payload).Post(url)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode())
	}
	return nil
}

func message(a types.Alert) string {
	return fmt.Sprintf("[%s] %s fired on analysis %s: %s (%s = %s)",
		a.Severity, a.Rule, a.AnalysisID, a.Condition, a.Metric, a.Value)
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
