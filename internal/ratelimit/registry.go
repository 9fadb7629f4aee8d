package ratelimit

import (
	"sort"
	"time"
)

// endpointLimits is the fixed per-endpoint-class budget table. Each class has
// an independently tuned limit: cheap read endpoints are generous, expensive
// AI or payment endpoints are tight, and auth-adjacent classes are tightest
// to blunt credential stuffing. New classes are added here; existing entries
// are never edited at runtime.
var endpointLimits = map[string]Config{
	"listing":    {MaxRequests: 300, Window: time.Minute, Namespace: "rl:listing"},
	"detail":     {MaxRequests: 240, Window: time.Minute, Namespace: "rl:detail"},
	"search":     {MaxRequests: 120, Window: time.Minute, Namespace: "rl:search"},
	"suggest":    {MaxRequests: 180, Window: time.Minute, Namespace: "rl:suggest"},
	"ai-search":  {MaxRequests: 20, Window: time.Minute, Namespace: "rl:ai-search"},
	"ai-summary": {MaxRequests: 10, Window: time.Minute, Namespace: "rl:ai-summary"},
	"auth":       {MaxRequests: 10, Window: 5 * time.Minute, Namespace: "rl:auth"},
	"auth-reset": {MaxRequests: 5, Window: 15 * time.Minute, Namespace: "rl:auth-reset"},
	"signup":     {MaxRequests: 5, Window: 10 * time.Minute, Namespace: "rl:signup"},
	"checkout":   {MaxRequests: 15, Window: time.Minute, Namespace: "rl:checkout"},
	"payment":    {MaxRequests: 10, Window: time.Minute, Namespace: "rl:payment"},
	"upload":     {MaxRequests: 30, Window: time.Minute, Namespace: "rl:upload"},
	"export":     {MaxRequests: 10, Window: 5 * time.Minute, Namespace: "rl:export"},
	"webhook":    {MaxRequests: 60, Window: time.Minute, Namespace: "rl:webhook"},
	"profile":    {MaxRequests: 120, Window: time.Minute, Namespace: "rl:profile"},
	"admin":      {MaxRequests: 60, Window: time.Minute, Namespace: "rl:admin"},
}

// NamedConfig pairs an endpoint class name with its budget.
type NamedConfig struct {
	Name   string
	Config Config
}

// ConfigFor returns the budget for a named endpoint class.
func ConfigFor(name string) (Config, bool) {
	cfg, ok := endpointLimits[name]
	return cfg, ok
}

// Configs returns all endpoint class budgets sorted by name.
func Configs() []NamedConfig {
	out := make([]NamedConfig, 0, len(endpointLimits))
	for name, cfg := range endpointLimits {
		out = append(out, NamedConfig{Name: name, Config: cfg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
