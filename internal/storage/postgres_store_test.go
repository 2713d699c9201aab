package storage

import (
	"reflect"
	"testing"

	"github.com/mroshb/trivia_bot/internal/models"
)

func TestDocumentRows_RoundTrip(t *testing.T) {
	doc := sampleDocument()
	doc.Players[models.PlayerKey(7)] = models.PlayerRecord{ID: 7, Name: "Sari", Points: 5}
	doc.QuestionBank["Kota"] = append(doc.QuestionBank["Kota"], models.TriviaItem{Prompt: "Kota pahlawan", Answer: "surabaya"})

	rows := documentToRows(doc)

	if len(rows.players) != 2 || rows.players[0].TelegramID != 7 || rows.players[1].TelegramID != 42 {
		t.Errorf("players = %+v, want ids 7 then 42", rows.players)
	}
	wantQuestions := []struct {
		category string
		position int
		answer   string
	}{
		{"Kota", 0, "jakarta"},
		{"Kota", 1, "surabaya"},
		{"Umum", 0, "pisa"},
	}
	if len(rows.questions) != len(wantQuestions) {
		t.Fatalf("questions = %+v", rows.questions)
	}
	for i, want := range wantQuestions {
		q := rows.questions[i]
		if q.Category != want.category || q.Position != want.position || q.Answer != want.answer {
			t.Errorf("questions[%d] = %+v, want %+v", i, q, want)
		}
	}
	if len(rows.rooms) != 2 || rows.rooms[0].ChatID != -1001 {
		t.Errorf("rooms = %+v", rows.rooms)
	}

	if got := rowsToDocument(rows); !reflect.DeepEqual(got, doc) {
		t.Errorf("rowsToDocument() = %+v, want %+v", got, doc)
	}
}

func TestRowsToDocument(t *testing.T) {
	tests := []struct {
		name string
		rows documentRows
		want func() *models.Document
	}{
		{
			name: "empty tables",
			want: models.DefaultDocument,
		},
		{
			name: "players only keep the default ad",
			rows: documentRows{players: []models.PlayerRow{{TelegramID: 9, FullName: "Budi", Points: 20}}},
			want: func() *models.Document {
				doc := &models.Document{AdText: models.DefaultAdText}
				doc.Normalize()
				doc.Players["9"] = models.PlayerRecord{ID: 9, Name: "Budi", Points: 20}
				return doc
			},
		},
		{
			name: "settings",
			rows: documentRows{settings: []models.SettingRow{
				{Key: models.SettingAdText, Value: "Promo"},
				{Key: models.SettingAdPhotoRef, Value: "photo-1"},
				{Key: "unknown", Value: "x"},
			}},
			want: func() *models.Document {
				doc := &models.Document{AdText: "Promo", AdPhotoRef: "photo-1"}
				doc.Normalize()
				return doc
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, want := rowsToDocument(tt.rows), tt.want(); !reflect.DeepEqual(got, want) {
				t.Errorf("rowsToDocument() = %+v, want %+v", got, want)
			}
		})
	}
}
