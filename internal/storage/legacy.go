package storage

import (
	"encoding/json"
	"fmt"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/logger"
	"github.com/mroshb/trivia_bot/pkg/utils"
)

var (
	documentKeys = []string{"players", "rooms", "questionBank", "adText", "adPhotoRef"}
	legacyKeys   = []string{"users", "questions", "ads_text", "ads_photo"}
)

// legacyDocument is the data file written by the first version of the bot:
// players under "users" with "pts", questions as {q, h, a} and the ad under
// "ads_text" / "ads_photo". It never recorded rooms.
type legacyDocument struct {
	Users     map[string]legacyPlayer `json:"users"`
	Questions map[string][]legacyItem `json:"questions"`
	AdsText   *string                 `json:"ads_text"`
	AdsPhoto  *string                 `json:"ads_photo"`
}

type legacyPlayer struct {
	Name   string `json:"name"`
	Points int64  `json:"pts"`
}

type legacyItem struct {
	Question string `json:"q"`
	Hint     string `json:"h"`
	Answer   string `json:"a"`
}

// decodeDocument parses either layout of the data file. A JSON object with
// none of the known keys is rejected so that it is never overwritten by an
// empty document.
func decodeDocument(data []byte) (*models.Document, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}

	switch {
	case hasAny(keys, documentKeys):
		var doc models.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		doc.Normalize()
		return &doc, nil

	case hasAny(keys, legacyKeys):
		var old legacyDocument
		if err := json.Unmarshal(data, &old); err != nil {
			return nil, err
		}
		doc := old.convert()
		logger.Info("Converted legacy data file",
			"players", len(doc.Players),
			"questions", doc.QuestionCount())
		return doc, nil

	default:
		return nil, fmt.Errorf("unrecognised document layout")
	}
}

func (old *legacyDocument) convert() *models.Document {
	doc := &models.Document{
		Players:      make(map[string]models.PlayerRecord, len(old.Users)),
		Rooms:        []int64{},
		QuestionBank: make(map[string][]models.TriviaItem, len(old.Questions)),
		AdText:       models.DefaultAdText,
	}
	for key, u := range old.Users {
		doc.Players[key] = models.PlayerRecord{Name: u.Name, Points: u.Points}
	}
	for category, items := range old.Questions {
		converted := make([]models.TriviaItem, 0, len(items))
		for _, it := range items {
			answer := utils.NormalizeAnswer(it.Answer)
			if it.Question == "" || answer == "" {
				continue
			}
			converted = append(converted, models.TriviaItem{Prompt: it.Question, Answer: answer})
		}
		doc.QuestionBank[category] = converted
	}
	if old.AdsText != nil {
		doc.AdText = *old.AdsText
	}
	if old.AdsPhoto != nil {
		doc.AdPhotoRef = *old.AdsPhoto
	}
	doc.Normalize()
	return doc
}

func hasAny(keys map[string]json.RawMessage, names []string) bool {
	for _, name := range names {
		if _, ok := keys[name]; ok {
			return true
		}
	}
	return false
}
