package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/game"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/security"
	"github.com/mroshb/trivia_bot/pkg/errors"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"github.com/mroshb/trivia_bot/pkg/utils"
)

// Notifier delivers a message to a chat and returns its message id.
type Notifier interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
}

// Round is the active question of a room. It is replaced, never reused, when
// the next question starts.
type Round struct {
	ID        uuid.UUID
	Category  string
	Prompt    string
	Answer    string
	Mask      *game.RevealMask
	StartedAt time.Time

	resolved bool
	timer    *game.RoundTimer
}

// RoundSnapshot is a read-only view of a round without its answer.
type RoundSnapshot struct {
	ID           uuid.UUID     `json:"id"`
	RoomID       int64         `json:"room_id"`
	Category     string        `json:"category"`
	Prompt       string        `json:"prompt"`
	Mask         string        `json:"mask"`
	StartedAt    time.Time     `json:"started_at"`
	Remaining    time.Duration `json:"remaining_ns"`
	Participants int           `json:"participants"`
}

type AnswerOutcome int

const (
	AnswerIgnored AnswerOutcome = iota
	AnswerUnscored
	AnswerScored
)

type AnswerResult struct {
	Outcome      AnswerOutcome
	Points       int64
	Participants int
}

type HintResult struct {
	Exhausted bool
	Position  int
	Mask      string
	Balance   int64
}

// roomSession is the state of one room between /start and /stop. category
// survives across rounds so pacing can start the next one.
type roomSession struct {
	category  string
	round     *Round
	pacing    *game.RoundTimer
	pacingSeq uint64
}

type outbound struct {
	chatID   int64
	text     string
	keyboard interface{}
}

// SessionService owns every room's round. All transitions happen under mu;
// messages are sent after it is released.
type SessionService struct {
	mu    sync.Mutex
	rooms map[int64]*roomSession

	questions *repositories.QuestionRepository
	scores    *repositories.ScoreRepository
	tracker   *game.ParticipationTracker
	notifier  Notifier
	clock     game.Clock
	settings  config.GameConfig
	pick      func(n int) int
}

func NewSessionService(
	settings config.GameConfig,
	questions *repositories.QuestionRepository,
	scores *repositories.ScoreRepository,
	notifier Notifier,
	clock game.Clock,
) *SessionService {
	return &SessionService{
		rooms:     make(map[int64]*roomSession),
		questions: questions,
		scores:    scores,
		tracker:   game.NewParticipationTracker(),
		notifier:  notifier,
		clock:     clock,
		settings:  settings,
		pick:      utils.RandomIndex,
	}
}

// StartRound replaces whatever is running in the room with a fresh question
// from category. An unknown or empty category leaves the room idle.
func (s *SessionService) StartRound(roomID int64, category string) error {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok {
		rs = &roomSession{}
		s.rooms[roomID] = rs
	}
	s.haltLocked(rs)
	rs.category = category
	msg, err := s.openRoundLocked(roomID, rs)
	s.mu.Unlock()

	s.send(msg)
	return err
}

// SubmitAnswer checks text against the room's round. The first correct answer
// resolves the round; later ones and wrong ones are ignored.
func (s *SessionService) SubmitAnswer(roomID, playerID int64, name, text string) (AnswerResult, error) {
	guess := utils.NormalizeAnswer(text)
	if guess == "" {
		return AnswerResult{}, nil
	}

	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok || rs.round == nil || rs.round.resolved || rs.round.Answer != guess {
		s.mu.Unlock()
		return AnswerResult{}, nil
	}
	round := rs.round
	round.resolved = true
	round.timer.Cancel()
	rs.round = nil
	elapsed := s.clock.Now().Sub(round.StartedAt)
	participants := s.tracker.Add(roomID, playerID)
	s.schedulePacingLocked(roomID, rs)
	s.mu.Unlock()

	result := AnswerResult{Outcome: AnswerUnscored, Participants: participants}
	if participants < s.settings.MinParticipants {
		s.send(outbound{chatID: roomID, text: fmt.Sprintf(MsgCorrectUnscored, displayName(name), s.settings.MinParticipants)})
		logger.Debug("Correct answer not scored", "room_id", roomID, "player_id", playerID, "participants", participants)
		return result, nil
	}

	points := s.settings.BaseReward
	if elapsed < s.settings.SpeedBonusWindow() {
		points += s.settings.SpeedBonus
	}
	if _, err := s.scores.Award(playerID, name, points); err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
		logger.Error("Failed to award points", "room_id", roomID, "player_id", playerID, "error", err)
		return result, err
	}

	result.Outcome = AnswerScored
	result.Points = points
	top := s.scores.TopN(s.settings.LeaderboardSize)
	s.send(outbound{chatID: roomID, text: ScoredText(name, points, top)})
	logger.Info("Answer scored", "room_id", roomID, "player_id", playerID, "points", points, "round_id", round.ID)
	return result, nil
}

// expire runs when a round's timer fires. It only acts if round is still the
// room's current, unresolved round.
func (s *SessionService) expire(roomID int64, round *Round) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok || rs.round != round || round.resolved {
		s.mu.Unlock()
		return
	}
	round.resolved = true
	rs.round = nil
	s.schedulePacingLocked(roomID, rs)
	s.mu.Unlock()

	s.send(outbound{chatID: roomID, text: fmt.Sprintf(MsgTimeUp, security.SanitizeHTML(round.Answer))})
	logger.Debug("Round expired", "room_id", roomID, "round_id", round.ID)
}

// Skip drops the current question and immediately starts another one from the
// same category.
func (s *SessionService) Skip(roomID, requesterID int64) error {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "no game in room")
	}
	s.haltLocked(rs)
	msg, err := s.openRoundLocked(roomID, rs)
	s.mu.Unlock()

	s.send(outbound{chatID: roomID, text: MsgSkipped}, msg)
	logger.Info("Round skipped", "room_id", roomID, "requester_id", requesterID)
	return err
}

// Stop ends the room's game. Pending timers are cancelled and no further
// question is sent.
func (s *SessionService) Stop(roomID, requesterID int64) error {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeNotFound, "no game in room")
	}
	s.haltLocked(rs)
	delete(s.rooms, roomID)
	s.mu.Unlock()

	s.send(outbound{chatID: roomID, text: MsgStopped})
	logger.Info("Game stopped", "room_id", roomID, "requester_id", requesterID)
	return nil
}

// BuyHint reveals one more letter of the current answer for HintCost points.
// Nothing is charged when every letter is already visible.
func (s *SessionService) BuyHint(roomID, playerID int64, name string) (HintResult, error) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok || rs.round == nil || rs.round.resolved {
		s.mu.Unlock()
		return HintResult{}, errors.New(errors.ErrCodeNotFound, "no active round")
	}
	round := rs.round

	if len(round.Mask.Hidden()) == 0 {
		mask := round.Mask.Render()
		s.mu.Unlock()
		s.send(outbound{chatID: roomID, text: MsgHintExhausted})
		return HintResult{Exhausted: true, Position: -1, Mask: mask}, nil
	}

	rec, err := s.scores.Deduct(playerID, s.settings.HintCost)
	if err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
		s.mu.Unlock()
		if errors.HasCode(err, errors.ErrCodeInsufficientFunds) {
			s.send(outbound{chatID: roomID, text: fmt.Sprintf(MsgHintNoPoints, displayName(name), s.settings.HintCost)})
		}
		return HintResult{}, err
	}

	pos, _ := round.Mask.RevealRandom(s.pick)
	mask := round.Mask.Render()
	s.mu.Unlock()

	s.send(outbound{chatID: roomID, text: fmt.Sprintf(MsgHintBought, displayName(name), s.settings.HintCost, security.SanitizeHTML(mask))})
	return HintResult{Position: pos, Mask: mask, Balance: rec.Points}, nil
}

// Round returns a snapshot of the room's active round.
func (s *SessionService) Round(roomID int64) (RoundSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.rooms[roomID]
	if !ok || rs.round == nil {
		return RoundSnapshot{}, false
	}
	r := rs.round
	remaining := s.settings.RoundDuration() - s.clock.Now().Sub(r.StartedAt)
	if remaining < 0 {
		remaining = 0
	}
	return RoundSnapshot{
		ID:           r.ID,
		RoomID:       roomID,
		Category:     r.Category,
		Prompt:       r.Prompt,
		Mask:         r.Mask.Render(),
		StartedAt:    r.StartedAt,
		Remaining:    remaining,
		Participants: s.tracker.Count(roomID),
	}, true
}

// InGame reports whether the room has a running game, including the pause
// between two rounds.
func (s *SessionService) InGame(roomID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

// ActiveRooms lists the rooms with a running game in ascending order.
func (s *SessionService) ActiveRooms() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StopAll cancels every timer. Used on shutdown.
func (s *SessionService) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rs := range s.rooms {
		s.haltLocked(rs)
		delete(s.rooms, id)
	}
}

// haltLocked cancels the round timer and any pending next-round start.
func (s *SessionService) haltLocked(rs *roomSession) {
	if rs.round != nil {
		rs.round.resolved = true
		rs.round.timer.Cancel()
		rs.round = nil
	}
	rs.pacing.Cancel()
	rs.pacing = nil
	rs.pacingSeq++
}

// openRoundLocked draws a question for rs.category and arms its timer. On an
// empty category the room is dropped and the returned message says so.
func (s *SessionService) openRoundLocked(roomID int64, rs *roomSession) (outbound, error) {
	item, err := s.questions.Random(rs.category, s.pick)
	if err != nil {
		delete(s.rooms, roomID)
		logger.Warn("No questions for round", "room_id", roomID, "category", rs.category)
		return outbound{chatID: roomID, text: fmt.Sprintf(MsgNoQuestions, security.SanitizeHTML(rs.category))}, err
	}

	round := &Round{
		ID:        uuid.New(),
		Category:  rs.category,
		Prompt:    item.Prompt,
		Answer:    utils.NormalizeAnswer(item.Answer),
		Mask:      game.NewRevealMask(utils.NormalizeAnswer(item.Answer)),
		StartedAt: s.clock.Now(),
	}
	round.timer = game.Schedule(s.clock, s.settings.RoundDuration(), func() {
		s.expire(roomID, round)
	})
	rs.round = round

	return outbound{
		chatID:   roomID,
		text:     QuestionText(round.Prompt, round.Mask.Render(), s.settings.RoundSeconds),
		keyboard: RoundKeyboard(),
	}, nil
}

// schedulePacingLocked starts the next round after the pacing pause, unless
// the room is stopped, skipped or restarted in the meantime.
func (s *SessionService) schedulePacingLocked(roomID int64, rs *roomSession) {
	rs.pacing.Cancel()
	rs.pacingSeq++
	seq := rs.pacingSeq
	rs.pacing = game.Schedule(s.clock, s.settings.PacingPause(), func() {
		s.resume(roomID, rs, seq)
	})
}

func (s *SessionService) resume(roomID int64, owner *roomSession, seq uint64) {
	s.mu.Lock()
	rs, ok := s.rooms[roomID]
	if !ok || rs != owner || rs.pacingSeq != seq || rs.round != nil {
		s.mu.Unlock()
		return
	}
	rs.pacing = nil
	msg, _ := s.openRoundLocked(roomID, rs)
	s.mu.Unlock()

	s.send(msg)
}

func (s *SessionService) send(msgs ...outbound) {
	for _, m := range msgs {
		if m.text == "" {
			continue
		}
		s.notifier.SendMessage(m.chatID, m.text, m.keyboard)
	}
}
