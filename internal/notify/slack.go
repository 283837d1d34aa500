package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// slackPoster is the slice of the Slack API the notifier needs.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts analysis summaries to a Slack channel.
type Slack struct {
	api     slackPoster
	channel string
}

// NewSlack creates a Slack notifier from a bot token and channel ID.
func NewSlack(botToken, channel string) *Slack {
	return &Slack{
		api:     slack.New(botToken),
		channel: channel,
	}
}

func (s *Slack) Name() string { return "slack" }

// Notify posts the summary as a single message.
func (s *Slack) Notify(ctx context.Context, inc *incident.Incident, res *analyzer.Result) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(FormatSummary(inc, res), false),
	)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", s.channel, err)
	}
	return nil
}
