package bot

import (
	"log"

	"mint-bot/internal/conversation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func mainMenuKeyboard(labels [][]string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, row := range labels {
		var buttons []tgbotapi.KeyboardButton
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// optionsKeyboard lays out one inline button per row.
func optionsKeyboard(options []conversation.Option) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, option := range options {
		button := tgbotapi.NewInlineKeyboardButtonData(option.Label, encodeChoice(option.Choice))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// render delivers engine replies. A reply marked Replace edits the message whose
// button was pressed (messageID), when there is one.
func (b *TelegramBot) render(chatID int64, messageID int, replies []conversation.Reply) {
	for _, reply := range replies {
		if reply.Replace && messageID != 0 {
			edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
			if len(reply.Options) > 0 {
				keyboard := optionsKeyboard(reply.Options)
				edit.ReplyMarkup = &keyboard
			}
			if _, err := b.api.Send(edit); err != nil {
				log.Printf("Failed to edit message %d in chat %d: %v", messageID, chatID, err)
			}
			continue
		}

		chunks := splitMessage(reply.Text, maxMessageLength)
		for i, chunk := range chunks {
			msg := tgbotapi.NewMessage(chatID, chunk)
			if i == len(chunks)-1 {
				switch {
				case len(reply.Options) > 0:
					msg.ReplyMarkup = optionsKeyboard(reply.Options)
				case reply.MainMenu:
					msg.ReplyMarkup = mainMenuKeyboard(b.engine.MenuLabels())
				}
			}
			if _, err := b.api.Send(msg); err != nil {
				log.Printf("Failed to send reply to chat %d: %v", chatID, err)
				break
			}
		}
	}
}
