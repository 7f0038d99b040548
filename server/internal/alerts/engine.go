package alerts

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/interday/reliastat/pkg/types"
)

const (
	defaultCooldown = 15 * time.Minute
	defaultSeverity = "warning"
	maxHistoryLen   = 200
	webhookTimeout  = 10 * time.Second
	webhookRetries  = 2
)

var alertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "reliastat",
	Name:      "alerts_fired_total",
	Help:      "Alert rules that matched a completed analysis, by severity.",
}, []string{"severity"})

// Config holds alerting rules and webhook delivery targets.
type Config struct {
	Rules    []Rule    `yaml:"rules"`
	Webhooks []Webhook `yaml:"webhooks"`
}

// Rule defines one threshold-based alert condition.
type Rule struct {
	// Name identifies the rule in alerts and cooldown tracking.
	Name string `yaml:"name"`

	// Condition is an expression such as "icc < 0.75" or "mdc is_nan".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info. Defaults to warning.
	Severity string `yaml:"severity"`

	// Cooldown suppresses repeated webhook delivery for this rule.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// Webhook defines one webhook delivery target.
type Webhook struct {
	// Type is one of: slack | teams | pagerduty | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w Webhook) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Validate checks rule syntax, severities and webhook types.
func (c Config) Validate() error {
	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("alerts.rules[%d]: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true
		if _, err := ParseCondition(r.Condition); err != nil {
			return fmt.Errorf("alerts.rules[%d] %q: %w", i, r.Name, err)
		}
		switch r.Severity {
		case "", "critical", "warning", "info":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("alerts.rules[%d] %q: cooldown must not be negative", i, r.Name)
		}
	}
	for i, w := range c.Webhooks {
		switch w.Type {
		case "slack", "teams", "pagerduty", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}

type compiledRule struct {
	Rule
	cond Condition
}

// Engine evaluates alert rules against completed analyses and delivers
// webhook notifications when rules fire.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []compiledRule
	webhooks []Webhook
	lastSent map[string]time.Time // rule name -> last webhook delivery
	history  []types.Alert        // newest last

	client   *resty.Client
	inflight sync.WaitGroup
	now      func() time.Time
}

// New creates an Engine from cfg. An Engine with no rules is valid;
// Evaluate then returns nil.
func New(cfg Config) (*Engine, error) {
	e := &Engine{
		lastSent: make(map[string]time.Time),
		client: resty.New().
			SetTimeout(webhookTimeout).
			SetRetryCount(webhookRetries).
			SetHeader("Content-Type", "application/json"),
		now: time.Now,
	}
	if err := e.SetConfig(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// SetConfig replaces the rules and webhooks. Cooldown state is kept for rules
// whose name survives the reload.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	rules := make([]compiledRule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		cond, _ := ParseCondition(r.Condition)
		if r.Severity == "" {
			r.Severity = defaultSeverity
		}
		if r.Cooldown <= 0 {
			r.Cooldown = defaultCooldown
		}
		rules = append(rules, compiledRule{Rule: r, cond: cond})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
	e.webhooks = append([]Webhook(nil), cfg.Webhooks...)
	return nil
}

// Evaluate tests every rule against a and returns the alerts that fired.
// Webhooks for rules outside their cooldown are delivered asynchronously.
func (e *Engine) Evaluate(a *types.Analysis) []types.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC()
	var fired []types.Alert
	for _, r := range e.rules {
		ok, v := r.cond.Eval(a.Results)
		if !ok {
			continue
		}
		al := types.Alert{
			AnalysisID: a.ID,
			Rule:       r.Name,
			Severity:   r.Severity,
			Condition:  r.cond.String(),
			Metric:     r.cond.Metric.Slug(),
			Value:      types.Value(v),
			FiredAt:    now,
		}
		fired = append(fired, al)
		e.history = append(e.history, al)
		alertsFired.WithLabelValues(r.Severity).Inc()

		slog.Warn("alerts: rule fired",
			"rule", r.Name,
			"analysis", a.ID,
			"metric", al.Metric,
			"value", v,
			"severity", r.Severity,
		)

		if last, ok := e.lastSent[r.Name]; ok && now.Sub(last) < r.Cooldown {
			slog.Debug("alerts: webhook suppressed by cooldown", "rule", r.Name, "cooldown", r.Cooldown)
			continue
		}
		e.lastSent[r.Name] = now
		webhooks := e.webhooks
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			e.deliver(webhooks, al)
		}()
	}
	if len(e.history) > maxHistoryLen {
		e.history = append([]types.Alert(nil), e.history[len(e.history)-maxHistoryLen:]...)
	}
	return fired
}

// Recent returns up to limit of the most recently fired alerts, newest first.
// limit <= 0 returns all retained alerts.
func (e *Engine) Recent(limit int) []types.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.Alert, 0, n)
	for i := len(e.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// Wait blocks until in-flight webhook deliveries finish.
func (e *Engine) Wait() {
	e.inflight.Wait()
}
