package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PHILLJAY/lockInBot/internal/bus"
)

func init() {
	Register("telegram", newTelegramChannel)
}

type telegramConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type TelegramChannel struct {
	bot          *tgbotapi.BotAPI
	bus          *bus.MessageBus
	allowedUsers map[string]bool
	stopCh       chan struct{}
}

func newTelegramChannel(cfg json.RawMessage, msgBus *bus.MessageBus) (Channel, error) {
	var tcfg telegramConfig
	if err := json.Unmarshal(cfg, &tcfg); err != nil {
		return nil, fmt.Errorf("failed to parse telegram config: %w", err)
	}
	bot, err := tgbotapi.NewBotAPI(tcfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	allowed := make(map[string]bool, len(tcfg.AllowedUsers))
	for _, u := range tcfg.AllowedUsers {
		allowed[u] = true
	}
	return &TelegramChannel{
		bot:          bot,
		bus:          msgBus,
		allowedUsers: allowed,
		stopCh:       make(chan struct{}),
	}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				c.handleUpdate(update)
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case <-c.stopCh:
				c.bot.StopReceivingUpdates()
				return
			}
		}
	}()
	return nil
}

// handleUpdate turns one polled update into an inbound turn. Reminder setup
// is a private conversation: group and supergroup chatter is ignored, same
// as the DM-only discipline on the other channels.
func (c *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	if msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	senderID := strconv.FormatInt(msg.From.ID, 10)
	if !c.IsAllowed(senderID) {
		slog.Warn("telegram: message from disallowed user", "senderID", senderID)
		return
	}
	c.bus.PublishInbound(bus.InboundTurn{
		Channel:  "telegram",
		SenderID: senderID,
		ChatID:   strconv.FormatInt(msg.Chat.ID, 10),
		Text:     msg.Text,
		At:       time.Now(),
	})
}

func (c *TelegramChannel) Stop() error {
	close(c.stopCh)
	return nil
}

func (c *TelegramChannel) Send(msg bus.OutboundMessage) error {
	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chatID %q: %w", msg.ChatID, err)
	}
	m := tgbotapi.NewMessage(chatID, msg.Text)
	_, err = c.bot.Send(m)
	return err
}

func (c *TelegramChannel) IsAllowed(senderID string) bool {
	if len(c.allowedUsers) == 0 {
		return true
	}
	return c.allowedUsers[senderID]
}
