package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/trivia_bot/internal/services"
	"github.com/mroshb/trivia_bot/internal/security"
	"github.com/mroshb/trivia_bot/pkg/errors"
	"github.com/mroshb/trivia_bot/pkg/logger"
)

const (
	maxImportFileSize = 5 * 1024 * 1024
	broadcastTimeout  = 2 * time.Minute
	exportFileName    = "quiz_data.json"
)

// HandleAdminPanel shows the admin menu, or an explicit denial to anyone else.
func (h *HandlerManager) HandleAdminPanel(chatID, userID int64, bot BotInterface) {
	if !h.Admin.IsAdmin(userID) {
		bot.SendMessage(chatID, fmt.Sprintf(services.MsgAccessDenied, userID), nil)
		logger.Warn("Admin panel denied", "user_id", userID)
		return
	}
	bot.SendMessage(chatID, "🛠 <b>PANEL ADMIN</b>", services.AdminMenuKeyboard())
}

// HandleAdminCallback routes the admin menu buttons.
func (h *HandlerManager) HandleAdminCallback(queryID string, chatID, userID int64, data string, bot BotInterface) {
	if !h.Admin.IsAdmin(userID) {
		ack(bot, queryID, services.MsgNotAdmin, true)
		return
	}
	ack(bot, queryID, "", false)

	if strings.HasPrefix(data, services.CallbackAdminCategory) {
		category := strings.TrimPrefix(data, services.CallbackAdminCategory)
		reply, err := h.Admin.ChooseCategory(userID, category)
		if err != nil {
			bot.SendMessage(chatID, "❌ Pilih kategori lewat menu Tambah Soal.", nil)
			return
		}
		bot.SendMessage(chatID, reply.Reply, services.AdminCancelKeyboard())
		return
	}

	switch data {
	case services.CallbackAdminAddQuestion:
		_ = h.Admin.BeginAddQuestion(userID)
		bot.SendMessage(chatID,
			"📁 Pilih kategori, atau kirim satu baris:\n<code>Kategori | Soal | Jawaban</code>",
			services.AdminCategoryKeyboard(h.Admin.Categories()))

	case services.CallbackAdminNewCategory:
		_ = h.Admin.BeginAddQuestion(userID)
		bot.SendMessage(chatID, "✍️ Kirim nama kategori baru.", services.AdminCancelKeyboard())

	case services.CallbackAdminSetAd:
		_ = h.Admin.BeginSetAd(userID)
		bot.SendMessage(chatID, "🖼 Kirim teks iklan, atau foto dengan caption.", services.AdminCancelKeyboard())

	case services.CallbackAdminBroadcast:
		_ = h.Admin.BeginBroadcast(userID)
		bot.SendMessage(chatID, "📣 Kirim pesan yang akan disebar ke semua grup.", services.AdminCancelKeyboard())

	case services.CallbackAdminImport:
		_ = h.Admin.BeginImport(userID)
		bot.SendMessage(chatID, "📎 Kirim file .xlsx (satu sheet per kategori, kolom A soal, kolom B jawaban).", services.AdminCancelKeyboard())

	case services.CallbackAdminExport:
		h.sendExport(chatID, userID, bot)

	case services.CallbackAdminStats:
		h.sendStats(chatID, userID, bot)

	case services.CallbackAdminCancel:
		h.HandleCancel(chatID, userID, bot)

	default:
		logger.Warn("Unknown admin callback", "data", data)
	}
}

func (h *HandlerManager) HandleCancel(chatID, userID int64, bot BotInterface) {
	if h.Admin.Cancel(userID) {
		bot.SendMessage(chatID, "❌ Dibatalkan.", nil)
		return
	}
	bot.SendMessage(chatID, "Tidak ada proses yang berjalan.", nil)
}

// HandleAdminInput feeds a private message from the admin into the pending
// dialogue. It returns false when the message is not dialogue input, so the
// caller routes it as usual.
func (h *HandlerManager) HandleAdminInput(message *tgbotapi.Message, bot BotInterface) bool {
	if message.From == nil || message.Chat == nil || !message.Chat.IsPrivate() {
		return false
	}
	userID := message.From.ID
	if !h.Admin.IsAdmin(userID) {
		return false
	}
	dialogue, ok := h.Admin.Dialogue(userID)
	if !ok {
		return false
	}
	chatID := message.Chat.ID

	switch {
	case dialogue.Step == services.StepAwaitingBroadcastPayload:
		h.broadcast(chatID, userID, message.MessageID, bot)

	case message.Document != nil:
		h.importDocument(chatID, userID, message.Document, bot)

	case len(message.Photo) > 0:
		// Telegram lists sizes smallest first.
		photo := message.Photo[len(message.Photo)-1]
		reply, err := h.Admin.HandlePhoto(userID, photo.FileID, message.Caption)
		h.sendDialogueReply(chatID, reply, err, bot)

	default:
		text := message.Text
		if text == "" {
			text = message.Caption
		}
		reply, err := h.Admin.HandleText(userID, text)
		h.sendDialogueReply(chatID, reply, err, bot)
	}
	return true
}

// NotifyPersistenceFailure tells the admin that the document could not be saved.
func (h *HandlerManager) NotifyPersistenceFailure(err error, bot BotInterface) {
	if h.Config.SuperAdminTgID == 0 {
		return
	}
	bot.SendMessage(h.Config.SuperAdminTgID, fmt.Sprintf(services.MsgPersistenceAlert, security.SanitizeHTML(err.Error())), nil)
}

func (h *HandlerManager) sendDialogueReply(chatID int64, reply services.DialogueReply, err error, bot BotInterface) {
	text := reply.Reply
	if err != nil {
		logger.Debug("Admin input rejected", "step", reply.Step.String(), "error", err)
		if text == "" {
			text = dialogueErrorText(err)
		}
	}
	if text == "" {
		return
	}
	if reply.Done {
		bot.SendMessage(chatID, text, services.AdminMenuKeyboard())
		return
	}
	bot.SendMessage(chatID, text, services.AdminCancelKeyboard())
}

func (h *HandlerManager) broadcast(chatID, userID int64, messageID int, bot BotInterface) {
	ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
	defer cancel()

	report, err := h.Admin.Broadcast(ctx, userID, chatID, messageID, bot)
	if err != nil {
		bot.SendMessage(chatID, dialogueErrorText(err), nil)
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("✅ Broadcast selesai.\n\n📨 Terkirim: %d\n⚠️ Gagal: %d\n🏠 Total grup: %d",
		report.Sent, report.Failed, report.Rooms), services.AdminMenuKeyboard())
}

func (h *HandlerManager) importDocument(chatID, userID int64, doc *tgbotapi.Document, bot BotInterface) {
	dialogue, _ := h.Admin.Dialogue(userID)
	if dialogue.Step != services.StepAwaitingImportFile {
		bot.SendMessage(chatID, "❌ File hanya diterima saat Import Excel.", services.AdminCancelKeyboard())
		return
	}
	if !security.ValidateFileType(doc.FileName, []string{".xlsx"}) {
		bot.SendMessage(chatID, "❌ Format file harus .xlsx", services.AdminCancelKeyboard())
		return
	}
	if !security.ValidateFileSize(int64(doc.FileSize), maxImportFileSize) {
		bot.SendMessage(chatID, "❌ File terlalu besar (maks 5 MB).", services.AdminCancelKeyboard())
		return
	}

	body, err := bot.DownloadFile(doc.FileID)
	if err != nil {
		logger.Error("Failed to download import file", "file_id", doc.FileID, "error", err)
		bot.SendMessage(chatID, "❌ Gagal mengunduh file. Coba kirim ulang.", services.AdminCancelKeyboard())
		return
	}
	defer body.Close()

	n, err := h.Admin.ImportWorkbook(userID, body)
	if err != nil {
		bot.SendMessage(chatID, "❌ File tidak bisa dibaca. Kirim file .xlsx lain.", services.AdminCancelKeyboard())
		return
	}
	bot.SendMessage(chatID, fmt.Sprintf("✅ %d soal berhasil diimport.", n), services.AdminMenuKeyboard())
}

func (h *HandlerManager) sendExport(chatID, userID int64, bot BotInterface) {
	data, err := h.Admin.Export(userID)
	if err != nil {
		bot.SendMessage(chatID, dialogueErrorText(err), nil)
		return
	}
	caption := fmt.Sprintf("📦 Backup %s", time.Now().Format("2006-01-02 15:04"))
	if err := bot.SendDocument(chatID, exportFileName, data, caption); err != nil {
		logger.Error("Failed to send export", "admin_id", userID, "error", err)
		bot.SendMessage(chatID, "❌ Gagal mengirim file.", nil)
	}
}

func (h *HandlerManager) sendStats(chatID, userID int64, bot BotInterface) {
	stats, err := h.Admin.Stats(userID)
	if err != nil {
		bot.SendMessage(chatID, dialogueErrorText(err), nil)
		return
	}
	saved := "✅ tersimpan"
	if stats.Unsaved {
		saved = "⚠️ belum tersimpan"
	}
	bot.SendMessage(chatID, fmt.Sprintf(`📊 <b>STATISTIK</b>

📁 Kategori: %d
❓ Soal: %d
👥 Pemain: %d
🏠 Grup: %d
🎮 Game aktif: %d
💾 Data: %s`,
		stats.Categories, stats.Questions, stats.Players, stats.Rooms,
		len(h.Sessions.ActiveRooms()), saved), nil)
}

func dialogueErrorText(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrCodeForbidden:
		return services.MsgNotAdmin
	case errors.ErrCodeNotFound:
		return "Tidak ada proses yang berjalan."
	case errors.ErrCodeValidation:
		return "❌ " + errors.MessageOf(err)
	default:
		return "❌ Terjadi kesalahan."
	}
}
