package repositories

import (
	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/errors"
)

// ContentRepository stores the promotional content and the registry of rooms
// the bot has seen.
type ContentRepository struct {
	state *State
}

func NewContentRepository(state *State) *ContentRepository {
	return &ContentRepository{state: state}
}

// Ad returns the promotional text and optional photo reference.
func (r *ContentRepository) Ad() (text, photoRef string) {
	r.state.Read(func(doc *models.Document) {
		text, photoRef = doc.AdText, doc.AdPhotoRef
	})
	return text, photoRef
}

// SetAd replaces the promotional content. An empty photoRef clears the photo.
func (r *ContentRepository) SetAd(text, photoRef string) error {
	if text == "" && photoRef == "" {
		return errors.New(errors.ErrCodeValidation, "ad content is empty")
	}
	return r.state.Mutate(func(doc *models.Document) error {
		doc.AdText = text
		doc.AdPhotoRef = photoRef
		return nil
	})
}

// Rooms returns the known room ids in registration order.
func (r *ContentRepository) Rooms() []int64 {
	var rooms []int64
	r.state.Read(func(doc *models.Document) {
		rooms = append([]int64{}, doc.Rooms...)
	})
	return rooms
}

// RegisterRoom records roomID and reports whether it was new. Known rooms do
// not trigger a write.
func (r *ContentRepository) RegisterRoom(roomID int64) (bool, error) {
	known := false
	r.state.Read(func(doc *models.Document) {
		known = containsRoom(doc.Rooms, roomID)
	})
	if known {
		return false, nil
	}

	added := false
	err := r.state.Mutate(func(doc *models.Document) error {
		if containsRoom(doc.Rooms, roomID) {
			return errors.New(errors.ErrCodeConflict, "room already registered")
		}
		doc.Rooms = append(doc.Rooms, roomID)
		added = true
		return nil
	})
	if errors.HasCode(err, errors.ErrCodeConflict) {
		return false, nil
	}
	return added, err
}

func containsRoom(rooms []int64, id int64) bool {
	for _, r := range rooms {
		if r == id {
			return true
		}
	}
	return false
}
