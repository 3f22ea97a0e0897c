package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/korjavin/mensaplan/pkg/delivery"
	"github.com/korjavin/mensaplan/pkg/logger"
)

// MaxMessageLength is the longest text Telegram accepts in one message
const MaxMessageLength = 4096

const backend = "telegram"

// API is the part of tgbotapi.BotAPI used for sending
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot represents a Telegram bot instance
type Bot struct {
	api    API
	logger *logger.Logger
}

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot := NewWithAPI(api)
	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// NewWithAPI creates a bot around an existing API client
func NewWithAPI(api API) *Bot {
	return &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}
}

// SendMessage sends the subject as the first line followed by the body.
// channel is a numeric chat id or an @channelname. Texts longer than
// MaxMessageLength are split at line boundaries. All parts are built before
// the first is sent; Telegram has no multi-message send, so an API failure
// after the first part leaves the earlier parts posted.
func (b *Bot) SendMessage(ctx context.Context, channel, subject, body string) error {
	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}

	chunks := splitText(text, MaxMessageLength)
	msgs := make([]tgbotapi.MessageConfig, 0, len(chunks))
	for _, chunk := range chunks {
		msg, err := newMessage(channel, chunk)
		if err != nil {
			return delivery.Failed(backend, channel, err)
		}
		msgs = append(msgs, msg)
	}

	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return delivery.Failed(backend, channel, err)
		}
		sent, err := b.api.Send(msg)
		if err != nil {
			return delivery.Failed(backend, channel, fmt.Errorf("part %d of %d: %w", i+1, len(msgs), err))
		}
		b.logger.Info("Sent message %d (part %d of %d) to %s", sent.MessageID, i+1, len(msgs), channel)
	}
	return nil
}

func newMessage(channel, text string) (tgbotapi.MessageConfig, error) {
	channel = strings.TrimSpace(channel)
	if strings.HasPrefix(channel, "@") {
		return tgbotapi.NewMessageToChannel(channel, text), nil
	}
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid chat %q: want a numeric id or @channelname", channel)
	}
	return tgbotapi.NewMessage(chatID, text), nil
}

// splitText cuts text into pieces of at most limit runes, preferring to
// break after a newline.
func splitText(text string, limit int) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(chunks, string(runes))
}
