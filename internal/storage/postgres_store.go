package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/mroshb/trivia_bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore maps the document onto the players, questions, rooms and
// settings tables.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (*models.Document, error) {
	db := s.db.WithContext(ctx)

	var questions []models.QuestionRow
	if err := db.Order("category, position").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	var players []models.PlayerRow
	if err := db.Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	var rooms []models.RoomRow
	if err := db.Order("created_at").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to load rooms: %w", err)
	}
	var settings []models.SettingRow
	if err := db.Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return rowsToDocument(documentRows{
		players:   players,
		questions: questions,
		rooms:     rooms,
		settings:  settings,
	}), nil
}

func (s *PostgresStore) Save(ctx context.Context, doc *models.Document) error {
	rows := documentToRows(doc)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows.players) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "telegram_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"full_name", "points", "updated_at"}),
			}).Create(&rows.players).Error
			if err != nil {
				return fmt.Errorf("failed to upsert players: %w", err)
			}
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.QuestionRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear questions: %w", err)
		}
		if len(rows.questions) > 0 {
			if err := tx.CreateInBatches(&rows.questions, 200).Error; err != nil {
				return fmt.Errorf("failed to insert questions: %w", err)
			}
		}

		if len(rows.rooms) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows.rooms).Error; err != nil {
				return fmt.Errorf("failed to upsert rooms: %w", err)
			}
		}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows.settings).Error
		if err != nil {
			return fmt.Errorf("failed to upsert settings: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// documentRows is the document in table form.
type documentRows struct {
	players   []models.PlayerRow
	questions []models.QuestionRow
	rooms     []models.RoomRow
	settings  []models.SettingRow
}

// documentToRows flattens doc. Players are ordered by id and questions by
// category then position.
func documentToRows(doc *models.Document) documentRows {
	rows := documentRows{
		players: make([]models.PlayerRow, 0, len(doc.Players)),
		rooms:   make([]models.RoomRow, 0, len(doc.Rooms)),
		settings: []models.SettingRow{
			{Key: models.SettingAdText, Value: doc.AdText},
			{Key: models.SettingAdPhotoRef, Value: doc.AdPhotoRef},
		},
	}
	for _, p := range doc.Players {
		rows.players = append(rows.players, models.PlayerRow{TelegramID: p.ID, FullName: p.Name, Points: p.Points})
	}
	sort.Slice(rows.players, func(i, j int) bool { return rows.players[i].TelegramID < rows.players[j].TelegramID })

	for _, category := range doc.Categories() {
		for i, item := range doc.QuestionBank[category] {
			rows.questions = append(rows.questions, models.QuestionRow{
				Category: category,
				Position: i,
				Prompt:   item.Prompt,
				Answer:   item.Answer,
			})
		}
	}
	for _, id := range doc.Rooms {
		rows.rooms = append(rows.rooms, models.RoomRow{ChatID: id})
	}
	return rows
}

// rowsToDocument rebuilds the document. Empty tables mean a fresh install.
// Questions are expected in category, position order.
func rowsToDocument(rows documentRows) *models.Document {
	if len(rows.questions) == 0 && len(rows.players) == 0 && len(rows.settings) == 0 {
		return models.DefaultDocument()
	}

	doc := &models.Document{AdText: models.DefaultAdText}
	doc.Normalize()
	for _, q := range rows.questions {
		doc.QuestionBank[q.Category] = append(doc.QuestionBank[q.Category], models.TriviaItem{
			Prompt: q.Prompt,
			Answer: q.Answer,
		})
	}
	for _, p := range rows.players {
		doc.Players[models.PlayerKey(p.TelegramID)] = models.PlayerRecord{
			ID:     p.TelegramID,
			Name:   p.FullName,
			Points: p.Points,
		}
	}
	for _, r := range rows.rooms {
		doc.Rooms = append(doc.Rooms, r.ChatID)
	}
	for _, setting := range rows.settings {
		switch setting.Key {
		case models.SettingAdText:
			doc.AdText = setting.Value
		case models.SettingAdPhotoRef:
			doc.AdPhotoRef = setting.Value
		}
	}
	return doc
}
