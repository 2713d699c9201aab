package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/trivia_bot/pkg/logger"
)

const (
	MsgGroupOnly = "Perintah ini hanya bisa dipakai di grup."
	MsgSlowDown  = "Terlalu cepat, tunggu sebentar."
)

// botCommands is the menu Telegram shows next to the input field.
var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Buka lobby permainan"},
	{Command: "top", Description: "Leaderboard global"},
	{Command: "hint", Description: "Beli clue"},
	{Command: "skip", Description: "Lewati soal"},
	{Command: "stop", Description: "Hentikan permainan"},
	{Command: "help", Description: "Cara main"},
}

func (b *Bot) registerCommands() {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		logger.Warn("Failed to register bot commands", "error", err)
	}
}
