package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/game"
	"github.com/mroshb/trivia_bot/internal/handlers"
	"github.com/mroshb/trivia_bot/internal/middleware"
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/services"
	"github.com/mroshb/trivia_bot/internal/storage"
)

const groupID = int64(-100700)

type roomRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *roomRecorder) SendMessage(chatID int64, text string, keyboard interface{}) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return len(r.texts)
}

func (r *roomRecorder) count(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, text := range r.texts {
		if strings.Contains(text, substr) {
			n++
		}
	}
	return n
}

// newTestBot builds a Bot without a Bot API connection. Only paths that do not
// reply through the bot itself can be driven with it.
func newTestBot(t *testing.T, perUser, perRoom int) (*Bot, *roomRecorder, *repositories.ScoreRepository) {
	t.Helper()
	doc := models.DefaultDocument()
	doc.QuestionBank["General"] = []models.TriviaItem{{Prompt: "Capital of Indonesia", Answer: "jakarta"}}

	state, err := repositories.LoadState(context.Background(), storage.NewMemoryStore(doc))
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		SuperAdminTgID:       1,
		BroadcastConcurrency: 1,
		Game: config.GameConfig{
			RoundSeconds:    20,
			PacingSeconds:   2,
			BaseReward:      10,
			HintCost:        5,
			MinParticipants: 1,
			LeaderboardSize: 3,
		},
	}

	room := &roomRecorder{}
	scores := repositories.NewScoreRepository(state)
	questions := repositories.NewQuestionRepository(state)
	content := repositories.NewContentRepository(state)
	clock := game.NewManualClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	sessions := services.NewSessionService(cfg.Game, questions, scores, room, clock)
	t.Cleanup(sessions.StopAll)
	admin := services.NewAdminService(cfg.SuperAdminTgID, state, questions, content, scores, cfg.BroadcastConcurrency)

	limiter := middleware.NewRateLimiter(perUser, perRoom, time.Minute)
	t.Cleanup(limiter.Stop)

	b := &Bot{
		config:   cfg,
		handlers: handlers.NewHandlerManager(cfg, sessions, services.NewLobbyService(), admin, scores, questions, content),
		limiter:  limiter,
		stopped:  make(chan struct{}),
	}
	return b, room, scores
}

func groupText(from int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: from, FirstName: "Sari"},
		Chat: &tgbotapi.Chat{ID: groupID, Type: "supergroup"},
		Text: text,
	}
}

func TestHandleMessage_GuessesAreNotThrottled(t *testing.T) {
	b, room, scores := newTestBot(t, 1, 1)
	if err := b.handlers.Sessions.StartRound(groupID, "General"); err != nil {
		t.Fatal(err)
	}

	for _, guess := range []string{"bandung", "surabaya", "medan"} {
		b.handleMessage(groupText(7, guess))
	}
	b.handleMessage(groupText(7, "Jakarta"))

	if got := scores.Balance(7); got != 10 {
		t.Errorf("Balance() = %d, want 10 (answer after several guesses was dropped)", got)
	}
	if room.count("BENAR") != 1 {
		t.Errorf("scored announcements = %d, want 1", room.count("BENAR"))
	}
}

func TestThrottled(t *testing.T) {
	command := &tgbotapi.Message{
		Text:     "/top",
		Chat:     &tgbotapi.Chat{ID: groupID, Type: "group"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 4}},
	}
	tests := []struct {
		name    string
		message *tgbotapi.Message
		want    bool
	}{
		{"group guess", groupText(7, "jakarta"), false},
		{"group command", command, true},
		{"group photo", &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: groupID, Type: "group"}}, true},
		{"private text", &tgbotapi.Message{Text: "halo", Chat: &tgbotapi.Chat{ID: 7, Type: "private"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := throttled(tt.message); got != tt.want {
				t.Errorf("throttled() = %v, want %v", got, tt.want)
			}
		})
	}
}
