package handlers

import (
	"github.com/mroshb/trivia_bot/internal/security"
	"github.com/mroshb/trivia_bot/internal/services"
	"github.com/mroshb/trivia_bot/pkg/errors"
	"github.com/mroshb/trivia_bot/pkg/logger"
)

const topCommandSize = 10

// HandleStart shows the intro in a private chat and opens a lobby in a group.
func (h *HandlerManager) HandleStart(chatID, userID int64, name string, private bool, bot BotInterface) {
	if private {
		adText, photo := h.Content.Ad()
		intro := services.IntroText(adText)
		keyboard := services.AddToGroupKeyboard(bot.Username())
		if photo != "" {
			bot.SendPhoto(chatID, photo, intro, keyboard)
		} else {
			bot.SendMessage(chatID, intro, keyboard)
		}
		return
	}

	if h.Sessions.InGame(chatID) {
		bot.SendMessage(chatID, services.MsgRoundInProgress, nil)
		return
	}

	lobby := h.Lobbies.Open(chatID, userID, name)
	bot.SendMessage(chatID, services.LobbyText(lobby), services.LobbyKeyboard())
	logger.Info("Lobby opened", "room_id", chatID, "host_id", userID)
}

func (h *HandlerManager) HandleLobbyJoin(queryID string, chatID int64, messageID int, userID int64, name string, bot BotInterface) {
	lobby, added, err := h.Lobbies.Join(chatID, userID, name)
	if err != nil {
		ack(bot, queryID, services.MsgLobbyMissing, true)
		return
	}
	if !added {
		ack(bot, queryID, services.MsgLobbyAlreadyIn, false)
		return
	}
	bot.EditMessage(chatID, messageID, services.LobbyText(lobby), services.LobbyKeyboard())
	ack(bot, queryID, services.MsgLobbyJoined, false)
}

// HandleLobbyBegin replaces the lobby message with the category menu.
func (h *HandlerManager) HandleLobbyBegin(queryID string, chatID int64, messageID int, userID int64, bot BotInterface) {
	if _, err := h.Lobbies.BeginSelection(chatID, userID); err != nil {
		ack(bot, queryID, lobbyErrorText(err), true)
		return
	}

	categories := h.playableCategories()
	if len(categories) == 0 {
		ack(bot, queryID, "Belum ada kategori soal.", true)
		return
	}
	bot.EditMessage(chatID, messageID, services.MsgChooseCategory, services.CategoryKeyboard(categories, services.CallbackCategory))
	ack(bot, queryID, "", false)
}

// HandleCategorySelected closes the lobby and starts the first round.
func (h *HandlerManager) HandleCategorySelected(queryID string, chatID int64, messageID int, userID int64, category string, bot BotInterface) {
	lobby, err := h.Lobbies.ConfirmCategory(chatID, userID)
	if err != nil {
		ack(bot, queryID, lobbyErrorText(err), true)
		return
	}
	ack(bot, queryID, "", false)
	bot.DeleteMessage(chatID, messageID)

	// An empty category is reported to the room by the session service.
	if err := h.Sessions.StartRound(chatID, category); err != nil {
		logger.Warn("Failed to start game", "room_id", chatID, "category", category, "error", err)
		return
	}
	logger.Info("Game started", "room_id", chatID, "category", category, "players", len(lobby.Members))
}

// HandleNext skips to another question. queryID is empty for the /skip command.
func (h *HandlerManager) HandleNext(queryID string, chatID, userID int64, bot BotInterface) {
	if !h.Sessions.InGame(chatID) {
		h.reply(bot, queryID, chatID, services.MsgNoActiveGame)
		return
	}
	if err := h.Sessions.Skip(chatID, userID); err != nil {
		logger.Warn("Skip ended the game", "room_id", chatID, "error", err)
	}
	ack(bot, queryID, "", false)
}

func (h *HandlerManager) HandleStopGame(queryID string, chatID, userID int64, bot BotInterface) {
	h.Lobbies.Discard(chatID)
	if err := h.Sessions.Stop(chatID, userID); err != nil {
		h.reply(bot, queryID, chatID, services.MsgNoActiveGame)
		return
	}
	ack(bot, queryID, "", false)
}

func (h *HandlerManager) HandleHint(queryID string, chatID, userID int64, name string, bot BotInterface) {
	_, err := h.Sessions.BuyHint(chatID, userID, name)
	if errors.HasCode(err, errors.ErrCodeNotFound) {
		h.reply(bot, queryID, chatID, services.MsgNoActiveGame)
		return
	}
	ack(bot, queryID, "", false)
}

// HandleAnswer treats a group text message as a guess for the running round.
func (h *HandlerManager) HandleAnswer(chatID, userID int64, name, text string) {
	if _, err := h.Sessions.SubmitAnswer(chatID, userID, name, text); err != nil {
		logger.Error("Failed to submit answer", "room_id", chatID, "user_id", userID, "error", err)
	}
}

func (h *HandlerManager) ShowLeaderboard(chatID int64, bot BotInterface) {
	bot.SendMessage(chatID, services.LeaderboardText(h.Scores.TopN(topCommandSize)), nil)
}

func (h *HandlerManager) ShowHelp(chatID int64, bot BotInterface) {
	bot.SendMessage(chatID, services.HelpText(h.Config.Game.HintCost, h.Config.Game.MinParticipants), nil)
}

// RegisterRoom remembers a group as a broadcast target.
func (h *HandlerManager) RegisterRoom(chatID int64) {
	added, err := h.Content.RegisterRoom(chatID)
	if err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
		logger.Error("Failed to register room", "room_id", chatID, "error", err)
		return
	}
	if added {
		logger.Info("Room registered", "room_id", chatID)
	}
}

// playableCategories are the categories whose names fit in callback data.
func (h *HandlerManager) playableCategories() []string {
	var names []string
	for _, name := range h.Questions.Categories() {
		if security.ValidateCategoryName(name) == nil {
			names = append(names, name)
		}
	}
	return names
}

// reply answers a button press with an alert, or a command with a message.
func (h *HandlerManager) reply(bot BotInterface, queryID string, chatID int64, text string) {
	if queryID != "" {
		bot.AnswerCallbackQuery(queryID, text, true)
		return
	}
	bot.SendMessage(chatID, text, nil)
}

func lobbyErrorText(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrCodeForbidden:
		return services.MsgLobbyNotHost
	case errors.ErrCodeConflict:
		return "Tekan tombol Mulai dulu."
	default:
		return services.MsgLobbyMissing
	}
}
