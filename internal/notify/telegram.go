package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/incident"
)

// telegramSender is the slice of the Telegram API the notifier needs.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends analysis summaries to a Telegram chat.
type Telegram struct {
	api    telegramSender
	chatID int64
}

// NewTelegram creates a Telegram notifier. It validates the token against
// the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

// Notify sends the summary as a single message. The Telegram client has no
// context support, so ctx only guards the early-out.
func (t *Telegram) Notify(ctx context.Context, inc *incident.Incident, res *analyzer.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(inc, res))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("sending to chat %d: %w", t.chatID, err)
	}
	return nil
}
