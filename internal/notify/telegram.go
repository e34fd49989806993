package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yanun0323/errors"
)

// telegramMessageLimit is the Bot API hard cap per message.
const telegramMessageLimit = 4096

// Telegram delivers notifications to one chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "notify: telegram auth")
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Send(_ context.Context, text string) error {
	for _, part := range splitMessage(text, telegramMessageLimit) {
		if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, part)); err != nil {
			return errors.Wrap(err, "notify: telegram send")
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	for len(text) > limit {
		cut := limit
		// prefer breaking on a line boundary
		for i := limit - 1; i > limit/2; i-- {
			if text[i] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		parts = append(parts, text)
	}
	return parts
}
