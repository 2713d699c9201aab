package services

import (
	"fmt"
	"strings"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/internal/security"
)

// User-facing texts. Messages are sent with HTML parse mode, so every piece of
// user-supplied text goes through security.SanitizeHTML.

const (
	MsgNoQuestions      = "📭 Belum ada soal di kategori <b>%s</b>."
	MsgTimeUp           = "⌛ Habis! Jawabannya: <b>%s</b>"
	MsgSkipped          = "⏭ Skip ke soal berikutnya..."
	MsgStopped          = "🛑 Permainan Berhenti."
	MsgNoActiveGame     = "Tidak ada permainan yang berjalan."
	MsgCorrectUnscored  = "✅ Benar, %s! Tapi poin tak cair (butuh %d orang aktif di grup)."
	MsgHintExhausted    = "💡 Semua huruf sudah terbuka."
	MsgHintNoPoints     = "💸 Poin %s tidak cukup. Clue butuh %d poin."
	MsgHintBought       = "💡 %s membeli clue (-%d poin)\n<b>CLUE:</b> <code>%s</code>"
	MsgLobbyNotHost     = "Hanya host yang bisa memulai permainan."
	MsgLobbyMissing     = "Lobby tidak ditemukan. Ketik /start untuk membuka lobby."
	MsgLobbyAlreadyIn   = "Kamu sudah ada di lobby."
	MsgLobbyJoined      = "Berhasil ikut!"
	MsgChooseCategory   = "🎮 <b>PILIH KATEGORI:</b>"
	MsgRoundInProgress  = "Permainan masih berjalan. Gunakan /stop untuk berhenti."
	MsgAccessDenied     = "❌ Akses Ditolak. ID: %d"
	MsgNotAdmin         = "Bukan Admin"
	MsgPersistenceAlert = "⚠️ Gagal menyimpan data ke penyimpanan. Perubahan tetap di memori dan akan dicoba lagi tiap menit.\n\n<code>%s</code>"
)

// QuestionText renders the message that opens a round.
func QuestionText(prompt, mask string, roundSeconds int) string {
	return fmt.Sprintf("❓ <b>SOAL:</b> %s\n💡 <b>CLUE:</b> <code>%s</code>\n\n⏱ <i>Waktu: %d Detik</i>",
		security.SanitizeHTML(prompt), security.SanitizeHTML(mask), roundSeconds)
}

// LeaderboardText renders a numbered leaderboard.
func LeaderboardText(players []models.PlayerRecord) string {
	if len(players) == 0 {
		return "🏆 <b>LEADERBOARD GLOBAL:</b>\nBelum ada pemain."
	}
	var sb strings.Builder
	sb.WriteString("🏆 <b>LEADERBOARD GLOBAL:</b>")
	for i, p := range players {
		fmt.Fprintf(&sb, "\n%d. %s - %d Pts", i+1, displayName(p.Name), p.Points)
	}
	return sb.String()
}

// ScoredText announces a scored answer followed by the leaderboard.
func ScoredText(name string, points int64, top []models.PlayerRecord) string {
	return fmt.Sprintf("🎯 <b>%s BENAR!</b> (+%d)\n\n%s", displayName(name), points, LeaderboardText(top))
}

// LobbyText lists the lobby host and members.
func LobbyText(l Lobby) string {
	var sb strings.Builder
	sb.WriteString("🎮 <b>LOBBY TEBAK-TEBAKAN</b>\n")
	fmt.Fprintf(&sb, "Host: %s\n\n", displayName(l.HostName()))
	fmt.Fprintf(&sb, "👥 Pemain (%d):", len(l.Members))
	for i := range l.Members {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, displayName(l.Names[i]))
	}
	sb.WriteString("\n\nTekan <b>Ikut Main</b> untuk bergabung.")
	return sb.String()
}

// IntroText is shown on /start in a private chat.
func IntroText(adText string) string {
	var sb strings.Builder
	sb.WriteString("🤖 <b>TEBAK-TEBAKAN BOT</b>\n")
	sb.WriteString("━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&sb, "📢 %s\n", security.SanitizeHTML(adText))
	sb.WriteString("━━━━━━━━━━━━━━\n\n")
	sb.WriteString("Game tebak-tebakan seru dengan leaderboard global!\n")
	sb.WriteString("Klik tombol di bawah untuk mulai bermain di grup.")
	return sb.String()
}

// HelpText explains the commands with the configured hint cost and threshold.
func HelpText(hintCost int64, minParticipants int) string {
	return fmt.Sprintf(`📖 <b>CARA MAIN</b>
/start - buka lobby di grup
/top - leaderboard global
/hint - beli clue (%d poin)
/skip - lewati soal
/stop - hentikan permainan

Jawab dengan mengetik jawabannya langsung di grup. Poin hanya cair jika minimal %d orang aktif menjawab.`, hintCost, minParticipants)
}

func displayName(name string) string {
	name = security.SanitizeHTML(name)
	if name == "" {
		return "Pemain"
	}
	return name
}
