package telegram

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/handlers"
	"github.com/mroshb/trivia_bot/internal/middleware"
	"github.com/mroshb/trivia_bot/internal/services"
	"github.com/mroshb/trivia_bot/pkg/logger"
)

const (
	workerCount      = 10
	workerQueueSize  = 100
	maxSendRetries   = 3
	downloadTimeout  = 30 * time.Second
	listenerCooldown = 5 * time.Second
)

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager
	limiter  *middleware.RateLimiter
	client   *http.Client

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update
	workers     sync.WaitGroup

	stopOnce sync.Once
	stopped  chan struct{}
}

// InitBot authorizes against the Bot API. Updates are not read until Start,
// so the bot can be handed to services as their notifier first.
func InitBot(cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	return &Bot{
		api:     api,
		config:  cfg,
		limiter: middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerRoom, cfg.GetRateLimitWindow()),
		client:  &http.Client{Timeout: downloadTimeout},
		stopped: make(chan struct{}),
	}, nil
}

// Start registers the command menu and begins processing updates.
func (b *Bot) Start(h *handlers.HandlerManager) {
	b.handlers = h
	b.registerCommands()

	b.workerChans = make([]chan tgbotapi.Update, workerCount)
	for i := range b.workerChans {
		b.workerChans[i] = make(chan tgbotapi.Update, workerQueueSize)
		b.workers.Add(1)
		go b.startWorker(b.workerChans[i])
	}

	go b.startUpdateListener()
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	defer func() {
		for _, ch := range b.workerChans {
			close(ch)
		}
	}()

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			chatID := chatIDOf(update)
			if chatID == 0 {
				continue
			}
			// Hashed by chat so one room's updates are handled in order.
			workerIdx := chatID % int64(len(b.workerChans))
			if workerIdx < 0 {
				workerIdx = -workerIdx
			}
			b.workerChans[workerIdx] <- update
		}

		select {
		case <-b.stopped:
			return
		default:
		}
		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(listenerCooldown)
	}
}

func chatIDOf(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID
	}
	return 0
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	defer b.workers.Done()
	for update := range ch {
		b.handleUpdate(update)
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil || message.From.IsBot {
		return
	}
	userID := message.From.ID
	chatID := message.Chat.ID

	logger.Debug("Received message",
		"user_id", userID,
		"chat_id", chatID,
		"has_photo", message.Photo != nil,
		"has_document", message.Document != nil)

	if throttled(message) && !b.limiter.Allow(userID, chatID) {
		logger.Warn("Rate limit exceeded", "user_id", userID, "chat_id", chatID)
		return
	}

	if !message.Chat.IsPrivate() {
		b.handlers.RegisterRoom(chatID)
	}

	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	if b.handlers.HandleAdminInput(message, b) {
		return
	}

	if message.Text != "" && !message.Chat.IsPrivate() {
		b.handlers.HandleAnswer(chatID, userID, displayName(message.From), message.Text)
	}
}

// throttled reports whether a message counts against the rate limits. Plain
// text in a group is a guess at the running round and always goes through.
func throttled(message *tgbotapi.Message) bool {
	return message.IsCommand() || message.Chat.IsPrivate() || message.Text == ""
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	private := message.Chat.IsPrivate()
	name := displayName(message.From)

	switch message.Command() {
	case "start":
		b.handlers.HandleStart(chatID, userID, name, private, b)
	case "admin":
		b.handlers.HandleAdminPanel(chatID, userID, b)
	case "top":
		b.handlers.ShowLeaderboard(chatID, b)
	case "help":
		b.handlers.ShowHelp(chatID, b)
	case "cancel":
		b.handlers.HandleCancel(chatID, userID, b)
	case "hint", "skip", "stop":
		if private {
			b.sendMessage(chatID, MsgGroupOnly, nil)
			return
		}
		switch message.Command() {
		case "hint":
			b.handlers.HandleHint("", chatID, userID, name, b)
		case "skip":
			b.handlers.HandleNext("", chatID, userID, b)
		case "stop":
			b.handlers.HandleStopGame("", chatID, userID, b)
		}
	default:
		logger.Debug("Unknown command", "command", message.Command(), "chat_id", chatID)
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.From == nil {
		return
	}
	userID := query.From.ID
	if !b.limiter.CheckUserLimit(userID) {
		b.AnswerCallbackQuery(query.ID, MsgSlowDown, false)
		return
	}
	if query.Message == nil || query.Message.Chat == nil {
		b.AnswerCallbackQuery(query.ID, "", false)
		return
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	logger.Debug("Received callback", "user_id", userID, "chat_id", chatID, "data", data)

	switch {
	case data == services.CallbackLobbyJoin:
		b.handlers.HandleLobbyJoin(query.ID, chatID, messageID, userID, displayName(query.From), b)
	case data == services.CallbackLobbyBegin:
		b.handlers.HandleLobbyBegin(query.ID, chatID, messageID, userID, b)
	case strings.HasPrefix(data, services.CallbackCategory):
		b.handlers.HandleCategorySelected(query.ID, chatID, messageID, userID, strings.TrimPrefix(data, services.CallbackCategory), b)
	case data == services.CallbackRoundNext:
		b.handlers.HandleNext(query.ID, chatID, userID, b)
	case data == services.CallbackRoundStop:
		b.handlers.HandleStopGame(query.ID, chatID, userID, b)
	case data == services.CallbackRoundHint:
		b.handlers.HandleHint(query.ID, chatID, userID, displayName(query.From), b)
	case strings.HasPrefix(data, services.CallbackAdminPrefix), strings.HasPrefix(data, services.CallbackAdminCategory):
		b.handlers.HandleAdminCallback(query.ID, chatID, userID, data, b)
	default:
		b.AnswerCallbackQuery(query.ID, "", false)
	}
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
		msg.ReplyMarkup = kb
	}

	for i := 0; i < maxSendRetries; i++ {
		sentMsg, err := b.api.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)
			if isNetworkError(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0
		}
		return sentMsg.MessageID
	}
	return 0
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) SendPhoto(chatID int64, photoID string, caption string, keyboard interface{}) int {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photoID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
		photo.ReplyMarkup = kb
	}

	for i := 0; i < maxSendRetries; i++ {
		sentMsg, err := b.api.Send(photo)
		if err != nil {
			logger.Error("Failed to send photo", "error", err, "chat_id", chatID, "attempt", i+1)
			if isNetworkError(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0
		}
		return sentMsg.MessageID
	}
	return 0
}

func (b *Bot) SendDocument(chatID int64, fileName string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	deleteMsg := tgbotapi.NewDeleteMessage(chatID, messageID)
	if _, err := b.api.Request(deleteMsg); err != nil {
		logger.Error("Failed to delete message", "chat_id", chatID, "msg_id", messageID, "error", err)
	}
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = tgbotapi.ModeHTML

	if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
		msg.ReplyMarkup = &kb
	}

	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

// CopyMessage relays a message without the "forwarded from" header.
func (b *Bot) CopyMessage(toChatID, fromChatID int64, messageID int) error {
	copyMsg := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	if _, err := b.api.Request(copyMsg); err != nil {
		return fmt.Errorf("failed to copy message to %d: %w", toChatID, err)
	}
	return nil
}

// DownloadFile streams a file the bot has received. The caller closes it.
func (b *Bot) DownloadFile(fileID string) (io.ReadCloser, error) {
	// The direct URL embeds the bot token, so it is never logged.
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}
	resp, err := b.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s", fileID)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file %s: status %d", fileID, resp.StatusCode)
	}
	return resp.Body, nil
}

func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Stop ends long polling and waits for queued updates to finish.
func (b *Bot) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopped)
		b.api.StopReceivingUpdates()
		b.limiter.Stop()
	})
	b.workers.Wait()
	logger.Info("Bot stopped receiving updates")
}

func isNetworkError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network is unreachable")
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}
