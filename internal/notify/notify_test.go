package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack"

	"github.com/Jencheng1/sre-copilot/internal/analyzer"
	"github.com/Jencheng1/sre-copilot/internal/incident"
)

func summaryFixtures() (*incident.Incident, *analyzer.Result) {
	inc := &incident.Incident{
		ID:       "INC-2001",
		Title:    "Checkout latency spike",
		Severity: "P1",
	}
	res := &analyzer.Result{
		RootCause: &incident.Insight{
			Description: "Connection pool exhaustion in the payment service.",
			Confidence:  0.85,
		},
		Impact: &incident.Insight{
			Description: "Checkout degraded for all users.",
		},
		Recommendations: []string{"Roll back the deploy", "Increase pool size"},
	}
	return inc, res
}

func TestFormatSummary(t *testing.T) {
	inc, res := summaryFixtures()
	out := FormatSummary(inc, res)

	for _, want := range []string{
		"Incident INC-2001 [P1]: Checkout latency spike",
		"Root cause (85% confidence)",
		"Connection pool exhaustion",
		"Checkout degraded for all users.",
		"- Roll back the deploy",
		"- Increase pool size",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatSummary_MinimalResult(t *testing.T) {
	inc, _ := summaryFixtures()
	out := FormatSummary(inc, &analyzer.Result{})
	if !strings.Contains(out, "INC-2001") {
		t.Errorf("summary missing incident id:\n%s", out)
	}
	if strings.Contains(out, "Recommendations") {
		t.Errorf("empty result should omit recommendations:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// fan-out
// ---------------------------------------------------------------------------

type recordingNotifier struct {
	name  string
	err   error
	calls int
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Notify(context.Context, *incident.Incident, *analyzer.Result) error {
	r.calls++
	return r.err
}

func TestFanout_DeliversToAll(t *testing.T) {
	a := &recordingNotifier{name: "a"}
	b := &recordingNotifier{name: "b"}
	f := NewFanout(a, nil, b)

	if !f.Enabled() {
		t.Fatal("fanout with notifiers should be enabled")
	}

	inc, res := summaryFixtures()
	f.Notify(context.Background(), inc, res)

	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d, %d; want 1, 1", a.calls, b.calls)
	}
}

func TestFanout_FailureDoesNotStopOthers(t *testing.T) {
	a := &recordingNotifier{name: "a", err: errors.New("down")}
	b := &recordingNotifier{name: "b"}
	f := NewFanout(a, b)

	inc, res := summaryFixtures()
	f.Notify(context.Background(), inc, res)

	if b.calls != 1 {
		t.Errorf("second notifier called %d times, want 1", b.calls)
	}
}

func TestFanout_Empty(t *testing.T) {
	f := NewFanout(nil)
	if f.Enabled() {
		t.Fatal("empty fanout should be disabled")
	}
	inc, res := summaryFixtures()
	f.Notify(context.Background(), inc, res) // must not panic
}

// ---------------------------------------------------------------------------
// channels
// ---------------------------------------------------------------------------

type fakeSlack struct {
	channel string
	err     error
}

func (f *fakeSlack) PostMessageContext(_ context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	f.channel = channelID
	return "", "", f.err
}

func TestSlackNotify(t *testing.T) {
	fake := &fakeSlack{}
	s := &Slack{api: fake, channel: "C123"}

	inc, res := summaryFixtures()
	if err := s.Notify(context.Background(), inc, res); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if fake.channel != "C123" {
		t.Errorf("posted to %q, want C123", fake.channel)
	}
}

func TestSlackNotify_Error(t *testing.T) {
	s := &Slack{api: &fakeSlack{err: errors.New("channel_not_found")}, channel: "C123"}
	inc, res := summaryFixtures()
	if err := s.Notify(context.Background(), inc, res); err == nil {
		t.Fatal("expected error")
	}
}

type fakeTelegram struct {
	sent tgbotapi.Chattable
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = c
	return tgbotapi.Message{}, f.err
}

func TestTelegramNotify(t *testing.T) {
	fake := &fakeTelegram{}
	tg := &Telegram{api: fake, chatID: 42}

	inc, res := summaryFixtures()
	if err := tg.Notify(context.Background(), inc, res); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	msg, ok := fake.sent.(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", fake.sent)
	}
	if msg.ChatID != 42 {
		t.Errorf("chat id = %d, want 42", msg.ChatID)
	}
	if !strings.Contains(msg.Text, "INC-2001") {
		t.Errorf("message missing incident id:\n%s", msg.Text)
	}
}

func TestTelegramNotify_CancelledContext(t *testing.T) {
	tg := &Telegram{api: &fakeTelegram{}, chatID: 42}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inc, res := summaryFixtures()
	if err := tg.Notify(ctx, inc, res); err == nil {
		t.Fatal("expected context error")
	}
}
