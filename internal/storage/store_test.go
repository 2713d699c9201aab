package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mroshb/trivia_bot/internal/config"
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/redis/go-redis/v9"
)

func sampleDocument() *models.Document {
	doc := models.DefaultDocument()
	doc.Players[models.PlayerKey(42)] = models.PlayerRecord{ID: 42, Name: "Budi", Points: 30}
	doc.Rooms = append(doc.Rooms, -1001, -1002)
	doc.QuestionBank["Kota"] = []models.TriviaItem{{Prompt: "Ibukota Indonesia", Answer: "jakarta"}}
	doc.AdText = "iklan"
	doc.AdPhotoRef = "photo-file-id"
	return doc
}

func TestFileStore_MissingFileLoadsDefault(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "quiz_data.json"))

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(doc, models.DefaultDocument()) {
		t.Errorf("Load() = %+v, want default document", doc)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz_data.json")
	store := NewFileStore(path)
	ctx := context.Background()

	want := sampleDocument()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries after Save, want 1 (no leftover temp files)", len(entries))
	}
}

func TestFileStore_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz_data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("Load() on a corrupt file should fail")
	}
}

func TestFileStore_ReadsHandWrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz_data.json")
	content := `{
    "players": {"7": {"name": "Sari", "points": 15}},
    "rooms": [-100],
    "questionBank": {"Umum": [{"prompt": "Menara miring di Italia", "answer": "pisa"}]},
    "adText": "PASANG IKLAN DISINI @admin"
}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p := doc.Players["7"]
	if p.ID != 7 || p.Name != "Sari" || p.Points != 15 {
		t.Errorf("player = %+v, want {7 Sari 15}", p)
	}
	if len(doc.Rooms) != 1 || doc.Rooms[0] != -100 {
		t.Errorf("Rooms = %v, want [-100]", doc.Rooms)
	}
}

func TestFileStore_ConvertsFirstVersionLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz_data.json")
	old := `{
    "users": {"7": {"name": "Sari", "pts": 40}},
    "questions": {"Umum": [{"q": "Menara miring di Italia", "h": "p__a", "a": " Pisa "}]},
    "ads_text": "Promo",
    "ads_photo": "photo-1"
}`
	if err := os.WriteFile(path, []byte(old), 0o600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	ctx := context.Background()

	doc, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p := doc.Players["7"]; p.ID != 7 || p.Name != "Sari" || p.Points != 40 {
		t.Errorf("player = %+v, want {7 Sari 40}", p)
	}
	items := doc.QuestionBank["Umum"]
	if len(items) != 1 || items[0].Prompt != "Menara miring di Italia" || items[0].Answer != "pisa" {
		t.Errorf("Umum = %+v", items)
	}
	if doc.AdText != "Promo" || doc.AdPhotoRef != "photo-1" {
		t.Errorf("ad = %q / %q, want Promo / photo-1", doc.AdText, doc.AdPhotoRef)
	}

	// The next save writes the current layout without losing the scores.
	if err := store.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}
	again, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if !reflect.DeepEqual(again, doc) {
		t.Errorf("Load() after Save = %+v, want %+v", again, doc)
	}
}

func TestFileStore_FirstVersionNullAdPhoto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz_data.json")
	old := `{"users": {}, "questions": {}, "ads_photo": null}`
	if err := os.WriteFile(path, []byte(old), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := NewFileStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.AdText != models.DefaultAdText || doc.AdPhotoRef != "" {
		t.Errorf("ad = %q / %q, want default text and no photo", doc.AdText, doc.AdPhotoRef)
	}
}

func TestFileStore_UnknownLayoutIsAnError(t *testing.T) {
	for _, content := range []string{`{}`, `{"scores": {"7": 40}}`, `[1, 2]`} {
		path := filepath.Join(t.TempDir(), "quiz_data.json")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		if _, err := NewFileStore(path).Load(context.Background()); err == nil {
			t.Errorf("Load(%s) should fail", content)
		}
		if got, _ := os.ReadFile(path); string(got) != content {
			t.Errorf("file was modified: %s", got)
		}
	}
}

func TestMemoryStore_SaveIsolatesCaller(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	doc := sampleDocument()
	if err := store.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}
	doc.AdText = "changed after save"

	got, _ := store.Load(ctx)
	if got.AdText != "iklan" {
		t.Errorf("AdText = %q, want %q", got.AdText, "iklan")
	}
	if store.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", store.Saves())
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "trivia:test")
	defer store.Close()
	ctx := context.Background()

	empty, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() on empty key error = %v", err)
	}
	if !reflect.DeepEqual(empty, models.DefaultDocument()) {
		t.Errorf("Load() on empty key = %+v, want default document", empty)
	}

	want := sampleDocument()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !mr.Exists("trivia:test") {
		t.Fatal("key was not written")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestRedisStore_CorruptValueIsAnError(t *testing.T) {
	mr := miniredis.RunT(t)
	if err := mr.Set("trivia:test", "garbage"); err != nil {
		t.Fatal(err)
	}
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "trivia:test")
	defer store.Close()

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Load() on a corrupt value should fail")
	}
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{name: "file", cfg: config.Config{StorageDriver: config.StorageFile, DataFile: filepath.Join(t.TempDir(), "d.json")}, want: "*storage.FileStore"},
		{name: "memory", cfg: config.Config{StorageDriver: config.StorageMemory}, want: "*storage.MemoryStore"},
		{name: "redis", cfg: config.Config{StorageDriver: config.StorageRedis, RedisAddr: mr.Addr(), RedisKey: "k"}, want: "*storage.RedisStore"},
		{name: "unknown", cfg: config.Config{StorageDriver: "floppy"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer store.Close()
			if got := reflect.TypeOf(store).String(); got != tt.want {
				t.Errorf("Open() = %s, want %s", got, tt.want)
			}
		})
	}
}
