package models

import "time"

// Relational rows used by the postgres store. The JSON document above is the
// canonical shape; these tables are its normalised form.

type PlayerRow struct {
	TelegramID int64     `gorm:"primaryKey;autoIncrement:false"`
	FullName   string    `gorm:"type:varchar(255);not null"`
	Points     int64     `gorm:"default:0;not null;index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (PlayerRow) TableName() string {
	return "players"
}

type QuestionRow struct {
	ID        uint      `gorm:"primaryKey"`
	Category  string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_question_position"`
	Position  int       `gorm:"not null;uniqueIndex:idx_question_position"`
	Prompt    string    `gorm:"type:text;not null"`
	Answer    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (QuestionRow) TableName() string {
	return "questions"
}

type RoomRow struct {
	ChatID    int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomRow) TableName() string {
	return "rooms"
}

type SettingRow struct {
	Key   string `gorm:"primaryKey;type:varchar(50)"`
	Value string `gorm:"type:text"`
}

func (SettingRow) TableName() string {
	return "settings"
}

// Setting keys
const (
	SettingAdText     = "ad_text"
	SettingAdPhotoRef = "ad_photo_ref"
)
