package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *TelegramBot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Failed to answer callback %s: %v", callback.ID, err)
	}
	if callback.Message == nil {
		return
	}

	choice, err := decodeChoice(callback.Data)
	if err != nil {
		log.Printf("Ignoring callback from user %d: %v", callback.From.ID, err)
		return
	}

	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	b.render(chatID, messageID, b.engine.HandleChoice(ctx, callback.From.ID, choice))
}
