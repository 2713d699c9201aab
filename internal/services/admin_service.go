package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mroshb/trivia_bot/internal/importer"
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/internal/repositories"
	"github.com/mroshb/trivia_bot/internal/security"
	"github.com/mroshb/trivia_bot/pkg/errors"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// DialogueStep is the input the admin dialogue is waiting for. It is unrelated
// to round state: text is only read as dialogue input while a step is set.
type DialogueStep int

const (
	StepIdle DialogueStep = iota
	StepAwaitingAdContent
	StepAwaitingCategory
	StepAwaitingQuestionText
	StepAwaitingAnswerText
	StepAwaitingBroadcastPayload
	StepAwaitingImportFile
)

func (s DialogueStep) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingAdContent:
		return "awaiting-ad-content"
	case StepAwaitingCategory:
		return "awaiting-category"
	case StepAwaitingQuestionText:
		return "awaiting-question-text"
	case StepAwaitingAnswerText:
		return "awaiting-answer-text"
	case StepAwaitingBroadcastPayload:
		return "awaiting-broadcast-payload"
	case StepAwaitingImportFile:
		return "awaiting-import-file"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Dialogue holds the partial question collected so far.
type Dialogue struct {
	Step     DialogueStep
	Category string
	Prompt   string
}

// DialogueReply is what the admin should be told after an input.
type DialogueReply struct {
	Step  DialogueStep
	Done  bool
	Reply string
}

// Copier relays an existing message to another chat.
type Copier interface {
	CopyMessage(toChatID, fromChatID int64, messageID int) error
}

type BroadcastReport struct {
	Rooms  int
	Sent   int
	Failed int
}

type AdminStats struct {
	Categories int
	Questions  int
	Players    int
	Rooms      int
	Unsaved    bool
}

// AdminService drives the administrator's authoring dialogue.
type AdminService struct {
	mu        sync.Mutex
	adminID   int64
	dialogues map[int64]*Dialogue

	state       *repositories.State
	questions   *repositories.QuestionRepository
	content     *repositories.ContentRepository
	scores      *repositories.ScoreRepository
	concurrency int
}

func NewAdminService(
	adminID int64,
	state *repositories.State,
	questions *repositories.QuestionRepository,
	content *repositories.ContentRepository,
	scores *repositories.ScoreRepository,
	concurrency int,
) *AdminService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &AdminService{
		adminID:     adminID,
		dialogues:   make(map[int64]*Dialogue),
		state:       state,
		questions:   questions,
		content:     content,
		scores:      scores,
		concurrency: concurrency,
	}
}

func (s *AdminService) IsAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

// Authorize fails with FORBIDDEN for anyone but the configured admin.
func (s *AdminService) Authorize(userID int64) error {
	if !s.IsAdmin(userID) {
		return errors.New(errors.ErrCodeForbidden, "admin only")
	}
	return nil
}

// Dialogue returns the admin's pending dialogue, if any.
func (s *AdminService) Dialogue(adminID int64) (Dialogue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dialogues[adminID]
	if !ok {
		return Dialogue{}, false
	}
	return *d, true
}

// Cancel clears the dialogue and reports whether one was pending.
func (s *AdminService) Cancel(adminID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dialogues[adminID]
	delete(s.dialogues, adminID)
	return ok
}

func (s *AdminService) BeginAddQuestion(adminID int64) error {
	return s.begin(adminID, StepAwaitingCategory)
}

func (s *AdminService) BeginSetAd(adminID int64) error {
	return s.begin(adminID, StepAwaitingAdContent)
}

func (s *AdminService) BeginBroadcast(adminID int64) error {
	return s.begin(adminID, StepAwaitingBroadcastPayload)
}

func (s *AdminService) BeginImport(adminID int64) error {
	return s.begin(adminID, StepAwaitingImportFile)
}

// ChooseCategory picks an existing category from the menu and moves on to the
// question text.
func (s *AdminService) ChooseCategory(adminID int64, category string) (DialogueReply, error) {
	if err := s.Authorize(adminID); err != nil {
		return DialogueReply{}, err
	}
	category = strings.TrimSpace(category)
	if err := security.ValidateCategoryName(category); err != nil {
		return DialogueReply{Step: StepAwaitingCategory}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dialogues[adminID]
	if !ok || d.Step != StepAwaitingCategory {
		return DialogueReply{}, errors.New(errors.ErrCodeConflict, "not choosing a category")
	}
	d.Category = category
	d.Step = StepAwaitingQuestionText
	return DialogueReply{
		Step:  d.Step,
		Reply: fmt.Sprintf("📁 Kategori: <b>%s</b>\nSekarang kirim teks soal.", security.SanitizeHTML(category)),
	}, nil
}

// HandleText feeds a text message into the dialogue. It returns NOT_FOUND when
// no dialogue is pending so the caller can treat the text as ordinary input.
// Malformed input returns VALIDATION_ERROR and leaves the step unchanged.
func (s *AdminService) HandleText(adminID int64, text string) (DialogueReply, error) {
	if err := s.Authorize(adminID); err != nil {
		return DialogueReply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dialogues[adminID]
	if !ok {
		return DialogueReply{}, errors.New(errors.ErrCodeNotFound, "no dialogue pending")
	}
	text = security.SanitizeString(text)

	switch d.Step {
	case StepAwaitingCategory:
		if strings.Contains(text, "|") {
			return s.commitOneLineLocked(adminID, d, text)
		}
		if err := security.ValidateCategoryName(text); err != nil {
			return DialogueReply{Step: d.Step, Reply: fmt.Sprintf("❌ Nama kategori tidak valid (maks %d byte, tanpa '|').", security.MaxCategoryBytes)}, err
		}
		d.Category = text
		d.Step = StepAwaitingQuestionText
		return DialogueReply{Step: d.Step, Reply: fmt.Sprintf("📁 Kategori: <b>%s</b>\nSekarang kirim teks soal.", security.SanitizeHTML(text))}, nil

	case StepAwaitingQuestionText:
		if text == "" {
			return DialogueReply{Step: d.Step, Reply: "❌ Soal tidak boleh kosong. Kirim teks soal."}, errors.New(errors.ErrCodeValidation, "empty prompt")
		}
		d.Prompt = text
		d.Step = StepAwaitingAnswerText
		return DialogueReply{Step: d.Step, Reply: "✍️ Sekarang kirim jawabannya."}, nil

	case StepAwaitingAnswerText:
		return s.commitLocked(adminID, d.Category, models.TriviaItem{Prompt: d.Prompt, Answer: text}, d.Step)

	case StepAwaitingAdContent:
		if text == "" {
			return DialogueReply{Step: d.Step, Reply: "❌ Iklan kosong. Kirim teks atau foto + caption."}, errors.New(errors.ErrCodeValidation, "empty ad")
		}
		if err := s.content.SetAd(text, ""); err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
			return DialogueReply{Step: d.Step}, err
		}
		delete(s.dialogues, adminID)
		return DialogueReply{Step: StepIdle, Done: true, Reply: "✅ Iklan Profil Diupdate!"}, nil

	case StepAwaitingImportFile:
		return DialogueReply{Step: d.Step, Reply: "📎 Kirim file .xlsx (satu sheet per kategori, kolom A soal, kolom B jawaban)."}, errors.New(errors.ErrCodeValidation, "expected a workbook")

	case StepAwaitingBroadcastPayload:
		// Broadcast consumes the message itself, not its text.
		return DialogueReply{Step: d.Step}, errors.New(errors.ErrCodeConflict, "broadcast expects a message")
	}

	return DialogueReply{}, errors.New(errors.ErrCodeInternalError, "unknown dialogue step")
}

// HandlePhoto stores a photo and caption as the ad. Only valid while waiting
// for ad content.
func (s *AdminService) HandlePhoto(adminID int64, photoRef, caption string) (DialogueReply, error) {
	if err := s.Authorize(adminID); err != nil {
		return DialogueReply{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dialogues[adminID]
	if !ok {
		return DialogueReply{}, errors.New(errors.ErrCodeNotFound, "no dialogue pending")
	}
	if d.Step != StepAwaitingAdContent {
		return DialogueReply{Step: d.Step, Reply: "❌ Foto hanya diterima saat mengatur iklan."}, errors.New(errors.ErrCodeValidation, "unexpected photo")
	}

	caption = security.SanitizeString(caption)
	if caption == "" {
		text, _ := s.content.Ad()
		caption = text
	}
	if err := s.content.SetAd(caption, photoRef); err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
		return DialogueReply{Step: d.Step}, err
	}
	delete(s.dialogues, adminID)
	return DialogueReply{Step: StepIdle, Done: true, Reply: "✅ Iklan Profil Diupdate!"}, nil
}

// Broadcast copies the admin's message to every known room. Delivery failures
// are counted and never stop the fan-out.
func (s *AdminService) Broadcast(ctx context.Context, adminID, fromChatID int64, messageID int, copier Copier) (BroadcastReport, error) {
	if err := s.Authorize(adminID); err != nil {
		return BroadcastReport{}, err
	}

	s.mu.Lock()
	d, ok := s.dialogues[adminID]
	if !ok || d.Step != StepAwaitingBroadcastPayload {
		s.mu.Unlock()
		return BroadcastReport{}, errors.New(errors.ErrCodeNotFound, "no broadcast pending")
	}
	delete(s.dialogues, adminID)
	s.mu.Unlock()

	rooms := s.content.Rooms()
	var sent, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, roomID := range rooms {
		roomID := roomID
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}
			if err := copier.CopyMessage(roomID, fromChatID, messageID); err != nil {
				failed.Add(1)
				logger.Warn("Broadcast delivery failed", "room_id", roomID, "error", err)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	report := BroadcastReport{Rooms: len(rooms), Sent: int(sent.Load()), Failed: int(failed.Load())}
	logger.Info("Admin broadcast message", "admin_id", adminID, "rooms", report.Rooms, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// ImportWorkbook reads an Excel workbook into the question bank. A bad file
// keeps the dialogue waiting for another one.
func (s *AdminService) ImportWorkbook(adminID int64, r io.Reader) (int, error) {
	if err := s.Authorize(adminID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dialogues[adminID]
	if !ok || d.Step != StepAwaitingImportFile {
		return 0, errors.New(errors.ErrCodeNotFound, "no import pending")
	}

	bank, err := importer.ReadWorkbook(r)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeValidation, "not a readable workbook")
	}
	for category := range bank {
		if err := security.ValidateCategoryName(category); err != nil {
			logger.Warn("Skipping sheet with invalid category name", "sheet", category)
			delete(bank, category)
		}
	}

	n, err := s.questions.ImportItems(bank)
	if err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
		return 0, err
	}
	delete(s.dialogues, adminID)
	logger.Info("Questions imported", "admin_id", adminID, "count", n)
	return n, nil
}

// Export returns the whole persisted document as indented JSON.
func (s *AdminService) Export(adminID int64) ([]byte, error) {
	if err := s.Authorize(adminID); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(s.state.Snapshot(), "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode document")
	}
	return data, nil
}

func (s *AdminService) Stats(adminID int64) (AdminStats, error) {
	if err := s.Authorize(adminID); err != nil {
		return AdminStats{}, err
	}
	return AdminStats{
		Categories: len(s.questions.Categories()),
		Questions:  s.questions.Count(),
		Players:    s.scores.Count(),
		Rooms:      len(s.content.Rooms()),
		Unsaved:    s.state.Dirty(),
	}, nil
}

// Categories lists the categories offered in the add-question menu. Names too
// long for callback data are left out.
func (s *AdminService) Categories() []string {
	var names []string
	for _, name := range s.questions.Categories() {
		if security.ValidateCategoryName(name) == nil {
			names = append(names, name)
		}
	}
	return names
}

func (s *AdminService) begin(adminID int64, step DialogueStep) error {
	if err := s.Authorize(adminID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialogues[adminID] = &Dialogue{Step: step}
	return nil
}

// commitOneLineLocked handles "category | prompt | answer".
func (s *AdminService) commitOneLineLocked(adminID int64, d *Dialogue, text string) (DialogueReply, error) {
	parts := strings.Split(text, "|")
	if len(parts) != 3 {
		return DialogueReply{Step: d.Step, Reply: "❌ Format salah! Kategori | Soal | Jawaban"}, errors.New(errors.ErrCodeValidation, "expected three fields")
	}
	category := strings.TrimSpace(parts[0])
	if err := security.ValidateCategoryName(category); err != nil {
		return DialogueReply{Step: d.Step, Reply: "❌ Nama kategori tidak valid."}, err
	}
	return s.commitLocked(adminID, category, models.TriviaItem{Prompt: parts[1], Answer: parts[2]}, d.Step)
}

func (s *AdminService) commitLocked(adminID int64, category string, item models.TriviaItem, step DialogueStep) (DialogueReply, error) {
	size, err := s.questions.Append(category, item)
	if err != nil && !errors.HasCode(err, errors.ErrCodePersistence) {
		return DialogueReply{Step: step, Reply: "❌ Soal dan jawaban tidak boleh kosong."}, err
	}
	delete(s.dialogues, adminID)
	logger.Info("Question added", "admin_id", adminID, "category", category, "size", size)
	return DialogueReply{
		Step:  StepIdle,
		Done:  true,
		Reply: fmt.Sprintf("✅ Soal masuk ke <b>%s</b>! (%d soal)", security.SanitizeHTML(category), size),
	}, nil
}
