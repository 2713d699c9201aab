package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data
const (
	CallbackLobbyJoin  = "lobby:join"
	CallbackLobbyBegin = "lobby:begin"
	CallbackCategory   = "cat:"
	CallbackRoundNext  = "round:next"
	CallbackRoundStop  = "round:stop"
	CallbackRoundHint  = "round:hint"

	CallbackAdminPrefix      = "adm:"
	CallbackAdminAddQuestion = "adm:add"
	CallbackAdminNewCategory = "adm:newcat"
	CallbackAdminSetAd       = "adm:ads"
	CallbackAdminBroadcast   = "adm:broadcast"
	CallbackAdminExport      = "adm:export"
	CallbackAdminImport      = "adm:import"
	CallbackAdminStats       = "adm:stats"
	CallbackAdminCancel      = "adm:cancel"
	CallbackAdminCategory    = "admcat:"
)

func RoundKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏭ Next", CallbackRoundNext),
			tgbotapi.NewInlineKeyboardButtonData("🛑 Stop", CallbackRoundStop),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💡 Beli Clue", CallbackRoundHint),
		),
	)
}

func LobbyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🙋 Ikut Main", CallbackLobbyJoin),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Mulai (Host)", CallbackLobbyBegin),
		),
	)
}

// CategoryKeyboard lists one button per category with the given callback prefix.
func CategoryKeyboard(categories []string, prefix string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cat := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📁 "+cat, prefix+cat),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AdminMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Tambah Soal", CallbackAdminAddQuestion),
			tgbotapi.NewInlineKeyboardButtonData("📥 Import Excel", CallbackAdminImport),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🖼 Set Iklan Profil", CallbackAdminSetAd),
			tgbotapi.NewInlineKeyboardButtonData("📣 Broadcast", CallbackAdminBroadcast),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📤 Send DB", CallbackAdminExport),
			tgbotapi.NewInlineKeyboardButtonData("📊 Statistik", CallbackAdminStats),
		),
	)
}

// AdminCategoryKeyboard offers the existing categories plus a "new category" button.
func AdminCategoryKeyboard(categories []string) tgbotapi.InlineKeyboardMarkup {
	kb := CategoryKeyboard(categories, CallbackAdminCategory)
	kb.InlineKeyboard = append(kb.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆕 Kategori Baru", CallbackAdminNewCategory),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", CallbackAdminCancel),
		),
	)
	return kb
}

func AdminCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Batal", CallbackAdminCancel),
		),
	)
}

// AddToGroupKeyboard links to Telegram's "add bot to group" flow.
func AddToGroupKeyboard(botUsername string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("➕ Masukkan ke Grup", fmt.Sprintf("https://t.me/%s?startgroup=true", botUsername)),
		),
	)
}
