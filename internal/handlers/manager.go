package handlers

import (
	"io"

	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/services"
)

// BotInterface is the subset of the Telegram bot the handlers talk to.
type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	DeleteMessage(chatID int64, messageID int)
	EditMessage(chatID int64, messageID int, text string, keyboard interface{})
	SendPhoto(chatID int64, photoID string, caption string, keyboard interface{}) int
	SendDocument(chatID int64, fileName string, data []byte, caption string) error
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
	CopyMessage(toChatID, fromChatID int64, messageID int) error
	DownloadFile(fileID string) (io.ReadCloser, error)
	Username() string
}

type HandlerManager struct {
	Config    *config.Config
	Sessions  *services.SessionService
	Lobbies   *services.LobbyService
	Admin     *services.AdminService
	Scores    *repositories.ScoreRepository
	Questions *repositories.QuestionRepository
	Content   *repositories.ContentRepository
}

func NewHandlerManager(
	cfg *config.Config,
	sessions *services.SessionService,
	lobbies *services.LobbyService,
	admin *services.AdminService,
	scores *repositories.ScoreRepository,
	questions *repositories.QuestionRepository,
	content *repositories.ContentRepository,
) *HandlerManager {
	return &HandlerManager{
		Config:    cfg,
		Sessions:  sessions,
		Lobbies:   lobbies,
		Admin:     admin,
		Scores:    scores,
		Questions: questions,
		Content:   content,
	}
}

// ack answers a callback query when the action came from a button.
func ack(bot BotInterface, queryID, text string, alert bool) {
	if queryID == "" {
		return
	}
	bot.AnswerCallbackQuery(queryID, text, alert)
}
