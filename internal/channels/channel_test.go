package channels

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack/slackevents"

	"github.com/PHILLJAY/lockInBot/internal/bus"
)

type stubChannel struct {
	name string
	sent chan bus.OutboundMessage
}

func newStubChannel(name string) *stubChannel {
	return &stubChannel{name: name, sent: make(chan bus.OutboundMessage, 8)}
}

func (s *stubChannel) Name() string                    { return s.name }
func (s *stubChannel) Start(ctx context.Context) error { return nil }
func (s *stubChannel) Stop() error                     { return nil }
func (s *stubChannel) Send(msg bus.OutboundMessage) error {
	s.sent <- msg
	return nil
}
func (s *stubChannel) IsAllowed(senderID string) bool { return true }

func TestRegistryHasBuiltins(t *testing.T) {
	for _, name := range []string{"discord", "telegram", "slack"} {
		if _, ok := GetFactory(name); !ok {
			t.Errorf("no factory registered for %q", name)
		}
	}
}

func TestRegisterAndGetFactory(t *testing.T) {
	Register("stub", func(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
		return newStubChannel("stub"), nil
	})

	f, ok := GetFactory("stub")
	if !ok {
		t.Fatal("stub factory not found")
	}
	ch, err := f(nil, nil)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if ch.Name() != "stub" {
		t.Errorf("Name = %q, want stub", ch.Name())
	}

	found := false
	for _, n := range RegisteredNames() {
		if n == "stub" {
			found = true
		}
	}
	if !found {
		t.Error("stub missing from RegisteredNames")
	}
}

func TestManagerAddChannelUnknown(t *testing.T) {
	m := NewManager(bus.NewMessageBus(10))
	if err := m.AddChannel("nonexistent", nil); err == nil {
		t.Fatal("expected error for unregistered channel")
	}
}

func drainInbound(t *testing.T, msgBus *bus.MessageBus) (bus.InboundTurn, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	turn, err := msgBus.ConsumeInbound(ctx)
	return turn, err == nil
}

func TestTelegramPublishesPrivateChatsOnly(t *testing.T) {
	msgBus := bus.NewMessageBus(10)
	c := &TelegramChannel{bus: msgBus}

	c.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 100, Type: "group"},
		Text: "work out 3 times a week",
	}})
	c.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7, IsBot: true},
		Chat: &tgbotapi.Chat{ID: 7, Type: "private"},
		Text: "bot chatter",
	}})
	c.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 7, Type: "private"},
		Text: "work out 3 times a week",
	}})

	turn, ok := drainInbound(t, msgBus)
	if !ok {
		t.Fatal("private message never published")
	}
	if turn.Channel != "telegram" || turn.SenderID != "7" || turn.ChatID != "7" {
		t.Errorf("turn = %+v, want the private chat message", turn)
	}
	if _, ok := drainInbound(t, msgBus); ok {
		t.Error("group or bot message leaked onto the bus")
	}
}

func TestSlackPublishesDirectMessagesOnly(t *testing.T) {
	msgBus := bus.NewMessageBus(10)
	c := &SlackChannel{bus: msgBus}

	c.handleMessage(&slackevents.MessageEvent{
		User: "U1", Channel: "C99", ChannelType: "channel", Text: "read every day",
	})
	c.handleMessage(&slackevents.MessageEvent{
		User: "U1", Channel: "D42", ChannelType: "im", SubType: "message_changed", Text: "edited",
	})
	c.handleMessage(&slackevents.MessageEvent{
		BotID: "B1", Channel: "D42", ChannelType: "im", Text: "bot post",
	})
	c.handleMessage(&slackevents.MessageEvent{
		User: "U1", Channel: "D42", ChannelType: "im", Text: "read every day",
	})

	turn, ok := drainInbound(t, msgBus)
	if !ok {
		t.Fatal("direct message never published")
	}
	if turn.Channel != "slack" || turn.SenderID != "U1" || turn.ChatID != "D42" {
		t.Errorf("turn = %+v, want the DM", turn)
	}
	if _, ok := drainInbound(t, msgBus); ok {
		t.Error("channel, edit or bot message leaked onto the bus")
	}
}

func TestManagerRoutesOutboundToOwningChannel(t *testing.T) {
	msgBus := bus.NewMessageBus(10)
	m := NewManager(msgBus)

	discord := newStubChannel("discord")
	telegram := newStubChannel("telegram")
	m.channels = append(m.channels, discord, telegram)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go msgBus.DispatchOutbound(ctx)

	msgBus.PublishOutbound(bus.OutboundMessage{Channel: "discord", ChatID: "c1", Text: "hello"})

	select {
	case m := <-discord.sent:
		if m.Text != "hello" {
			t.Errorf("discord got %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatal("discord never received the message")
	}

	select {
	case m := <-telegram.sent:
		t.Errorf("telegram received %+v, want nothing", m)
	default:
	}
}
