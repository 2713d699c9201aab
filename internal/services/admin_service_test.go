package services

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/mroshb/trivia_bot/internal/importer"
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/errors"
)

const adminID = int64(777)

func newAdminFixture(t *testing.T) (*fixture, *AdminService) {
	t.Helper()
	f := newFixture(t, defaultSettings())
	return f, NewAdminService(adminID, f.state, f.questions, f.content, f.scores, 4)
}

func TestAdminService_DeniesOthers(t *testing.T) {
	_, admin := newAdminFixture(t)

	checks := map[string]error{
		"BeginAddQuestion": admin.BeginAddQuestion(1),
		"BeginSetAd":       admin.BeginSetAd(1),
		"BeginBroadcast":   admin.BeginBroadcast(1),
	}
	_, err := admin.HandleText(1, "x")
	checks["HandleText"] = err
	_, err = admin.Export(1)
	checks["Export"] = err

	for name, err := range checks {
		if !errors.HasCode(err, errors.ErrCodeForbidden) {
			t.Errorf("%s() error = %v, want FORBIDDEN", name, err)
		}
	}
	if _, ok := admin.Dialogue(1); ok {
		t.Error("non-admin got a dialogue")
	}
}

func TestAdminService_AddQuestionDialogue(t *testing.T) {
	f, admin := newAdminFixture(t)

	if _, err := admin.HandleText(adminID, "hello"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("HandleText() with no dialogue error = %v, want NOT_FOUND", err)
	}

	if err := admin.BeginAddQuestion(adminID); err != nil {
		t.Fatal(err)
	}
	steps := []struct {
		input string
		want  DialogueStep
	}{
		{"Sejarah", StepAwaitingQuestionText},
		{"Proklamator Indonesia", StepAwaitingAnswerText},
		{"  SOEKARNO ", StepIdle},
	}
	for _, st := range steps {
		reply, err := admin.HandleText(adminID, st.input)
		if err != nil {
			t.Fatalf("HandleText(%q) error = %v", st.input, err)
		}
		if reply.Step != st.want {
			t.Errorf("HandleText(%q) step = %v, want %v", st.input, reply.Step, st.want)
		}
	}
	if _, ok := admin.Dialogue(adminID); ok {
		t.Error("dialogue not cleared after commit")
	}

	// The authored item is reachable by a round in its category.
	if err := f.sessions.StartRound(testRoom, "Sejarah"); err != nil {
		t.Fatalf("StartRound() error = %v", err)
	}
	if !strings.Contains(f.notifier.last().text, "Proklamator Indonesia") {
		t.Errorf("question = %q", f.notifier.last().text)
	}
	if f.currentRound(t).Answer != "soekarno" {
		t.Errorf("answer = %q, want canonical soekarno", f.currentRound(t).Answer)
	}
}

func TestAdminService_ChooseExistingCategory(t *testing.T) {
	f, admin := newAdminFixture(t)
	admin.BeginAddQuestion(adminID)

	reply, err := admin.ChooseCategory(adminID, "General")
	if err != nil || reply.Step != StepAwaitingQuestionText {
		t.Fatalf("ChooseCategory() = %+v, %v", reply, err)
	}
	admin.HandleText(adminID, "Capital of Japan")
	admin.HandleText(adminID, "tokyo")

	if got := f.questions.CountIn("General"); got != 2 {
		t.Errorf("CountIn(General) = %d, want 2", got)
	}
	if _, err := admin.ChooseCategory(adminID, "General"); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("ChooseCategory() outside dialogue error = %v", err)
	}
}

func TestAdminService_OneLineForm(t *testing.T) {
	f, admin := newAdminFixture(t)
	admin.BeginAddQuestion(adminID)

	reply, err := admin.HandleText(adminID, "Hewan | Raja hutan")
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Fatalf("two fields error = %v, want VALIDATION_ERROR", err)
	}
	if reply.Step != StepAwaitingCategory || !strings.Contains(reply.Reply, "Format salah") {
		t.Errorf("reply = %+v", reply)
	}
	if d, ok := admin.Dialogue(adminID); !ok || d.Step != StepAwaitingCategory {
		t.Errorf("dialogue after malformed input = %+v, %v", d, ok)
	}

	reply, err = admin.HandleText(adminID, "Hewan | Raja hutan | Singa")
	if err != nil || !reply.Done {
		t.Fatalf("one-line form = %+v, %v", reply, err)
	}
	item, err := f.questions.Random("Hewan", func(int) int { return 0 })
	if err != nil || item.Prompt != "Raja hutan" || item.Answer != "singa" {
		t.Errorf("stored item = %+v, %v", item, err)
	}
}

func TestAdminService_MalformedInputKeepsPartialState(t *testing.T) {
	_, admin := newAdminFixture(t)
	admin.BeginAddQuestion(adminID)
	admin.HandleText(adminID, "Sejarah")
	admin.HandleText(adminID, "Proklamator Indonesia")

	_, err := admin.HandleText(adminID, "   ")
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Fatalf("blank answer error = %v", err)
	}
	d, ok := admin.Dialogue(adminID)
	if !ok || d.Step != StepAwaitingAnswerText || d.Category != "Sejarah" || d.Prompt != "Proklamator Indonesia" {
		t.Errorf("dialogue = %+v, want partial input kept", d)
	}

	if !admin.Cancel(adminID) {
		t.Error("Cancel() = false with a pending dialogue")
	}
	if admin.Cancel(adminID) {
		t.Error("second Cancel() = true")
	}
}

func TestAdminService_InvalidCategoryName(t *testing.T) {
	_, admin := newAdminFixture(t)
	admin.BeginAddQuestion(adminID)

	_, err := admin.HandleText(adminID, strings.Repeat("x", 60))
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("long category error = %v", err)
	}
	if d, _ := admin.Dialogue(adminID); d.Step != StepAwaitingCategory {
		t.Errorf("step = %v, want awaiting-category", d.Step)
	}
}

func TestAdminService_SetAd(t *testing.T) {
	f, admin := newAdminFixture(t)

	admin.BeginSetAd(adminID)
	if _, err := admin.HandleText(adminID, "Promo akhir tahun"); err != nil {
		t.Fatal(err)
	}
	if text, photo := f.content.Ad(); text != "Promo akhir tahun" || photo != "" {
		t.Errorf("Ad() = %q, %q", text, photo)
	}

	admin.BeginSetAd(adminID)
	if _, err := admin.HandlePhoto(adminID, "photo-1", "Dengan foto"); err != nil {
		t.Fatal(err)
	}
	if text, photo := f.content.Ad(); text != "Dengan foto" || photo != "photo-1" {
		t.Errorf("Ad() = %q, %q", text, photo)
	}

	admin.BeginAddQuestion(adminID)
	if _, err := admin.HandlePhoto(adminID, "photo-2", ""); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("HandlePhoto() in wrong step error = %v", err)
	}
}

type fakeCopier struct {
	mu     sync.Mutex
	failOn map[int64]bool
	copied []int64
}

func (c *fakeCopier) CopyMessage(toChatID, fromChatID int64, messageID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn[toChatID] {
		return stderrors.New("bot was kicked")
	}
	c.copied = append(c.copied, toChatID)
	return nil
}

func TestAdminService_Broadcast(t *testing.T) {
	f, admin := newAdminFixture(t)
	for _, id := range []int64{-1, -2, -3, -4, -5} {
		f.content.RegisterRoom(id)
	}
	copier := &fakeCopier{failOn: map[int64]bool{-2: true, -4: true}}

	if _, err := admin.Broadcast(context.Background(), adminID, adminID, 10, copier); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Broadcast() without dialogue error = %v", err)
	}

	admin.BeginBroadcast(adminID)
	if _, err := admin.HandleText(adminID, "halo"); !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("HandleText() while awaiting broadcast error = %v", err)
	}
	report, err := admin.Broadcast(context.Background(), adminID, adminID, 10, copier)
	if err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if report.Rooms != 5 || report.Sent != 3 || report.Failed != 2 {
		t.Errorf("report = %+v, want 5 rooms, 3 sent, 2 failed", report)
	}
	if len(copier.copied) != 3 {
		t.Errorf("copied = %v", copier.copied)
	}
	if _, ok := admin.Dialogue(adminID); ok {
		t.Error("dialogue not cleared after broadcast")
	}
}

func TestAdminService_ImportWorkbook(t *testing.T) {
	f, admin := newAdminFixture(t)

	var buf bytes.Buffer
	err := importer.WriteWorkbook(&buf, map[string][]models.TriviaItem{
		"Buah": {{Prompt: "Buah berduri", Answer: "Durian"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	admin.BeginImport(adminID)
	if _, err := admin.ImportWorkbook(adminID, strings.NewReader("not excel")); !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Errorf("ImportWorkbook() garbage error = %v", err)
	}
	if d, _ := admin.Dialogue(adminID); d.Step != StepAwaitingImportFile {
		t.Errorf("step after bad file = %v", d.Step)
	}

	n, err := admin.ImportWorkbook(adminID, &buf)
	if err != nil || n != 1 {
		t.Fatalf("ImportWorkbook() = %d, %v", n, err)
	}
	if item, _ := f.questions.Random("Buah", func(int) int { return 0 }); item.Answer != "durian" {
		t.Errorf("imported answer = %q", item.Answer)
	}
}

func TestAdminService_ExportAndStats(t *testing.T) {
	f, admin := newAdminFixture(t)
	f.scores.Award(1, "Budi", 10)
	f.content.RegisterRoom(testRoom)

	data, err := admin.Export(adminID)
	if err != nil {
		t.Fatal(err)
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if doc.Players["1"].Points != 10 || len(doc.Rooms) != 1 {
		t.Errorf("exported document = %+v", doc)
	}

	stats, err := admin.Stats(adminID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Players != 1 || stats.Rooms != 1 || stats.Questions != 3 || stats.Categories != 4 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestDialogueStep_String(t *testing.T) {
	if got := StepAwaitingBroadcastPayload.String(); got != "awaiting-broadcast-payload" {
		t.Errorf("String() = %q", got)
	}
	if got := DialogueStep(42).String(); got != "step(42)" {
		t.Errorf("String() = %q", got)
	}
}
