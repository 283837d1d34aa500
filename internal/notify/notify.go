// Package notify announces completed analyses to chat channels.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/incident"
	"github.com/Jencheng1/sre-copilot/internal/logging"
)

// Notifier delivers an analysis summary to one destination.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, inc *incident.Incident, res *analyzer.Result) error
}

// Fanout sends a summary to every configured notifier. Delivery failures are
// logged and do not affect each other or the analysis itself.
type Fanout struct {
	notifiers []Notifier
}

// NewFanout creates a Fanout over the given notifiers. Nil entries are
// skipped so callers can pass optionally-configured channels directly.
func NewFanout(notifiers ...Notifier) *Fanout {
	f := &Fanout{}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

// Enabled reports whether any notifier is configured.
func (f *Fanout) Enabled() bool { return len(f.notifiers) > 0 }

// Notify delivers to all notifiers, collecting per-channel failures.
func (f *Fanout) Notify(ctx context.Context, inc *incident.Incident, res *analyzer.Result) {
	log := logging.New("notify")
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, inc, res); err != nil {
			log.Warn("notification failed", "channel", n.Name(), "incident", inc.ID, "error", err)
			continue
		}
		log.Info("notification sent", "channel", n.Name(), "incident", inc.ID)
	}
}

// FormatSummary renders the analysis as plain chat text shared by all
// channels.
func FormatSummary(inc *incident.Incident, res *analyzer.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Incident %s [%s]: %s\n", inc.ID, inc.Severity, inc.Title)
	if res.RootCause != nil {
		fmt.Fprintf(&b, "\nRoot cause (%.0f%% confidence):\n%s\n", res.RootCause.Confidence*100, res.RootCause.Description)
	}
	if res.Impact != nil {
		fmt.Fprintf(&b, "\nImpact:\n%s\n", res.Impact.Description)
	}
	if len(res.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
