package bot

import (
	"context"
	"log"

	"mint-bot/internal/conversation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleMessage routes text and commands. Commands other than /start and /cancel,
// and messages without text, are ignored.
func (b *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	text := message.Text
	if text == "" {
		return
	}
	if message.IsCommand() {
		switch message.Command() {
		case "start", "cancel":
			text = "/" + message.Command()
		default:
			return
		}
	}

	if b.engine.Shortcut(text) == conversation.ShortcutTest {
		b.engine.HandleShortcut(ctx, userID, conversation.ShortcutTest)
		b.handleTestChannel(chatID)
		return
	}

	b.render(chatID, 0, b.engine.HandleText(ctx, userID, text))
}

// handleTestChannel posts a test message to every destination and reports back to the owner.
func (b *TelegramBot) handleTestChannel(chatID int64) {
	lang := b.getLang()
	text := b.localizer.GetMessage(lang, "test_sent")
	if err := b.notifier.Broadcast(b.localizer.GetMessage(lang, "test_message")); err != nil {
		log.Printf("Test channel broadcast failed: %v", err)
		text = b.localizer.Format(lang, "test_failed", err.Error())
	}
	b.render(chatID, 0, []conversation.Reply{{Text: text, MainMenu: true}})
}
