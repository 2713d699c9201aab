package repositories

import (
	"sort"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/errors"
)

type ScoreRepository struct {
	state *State
}

func NewScoreRepository(state *State) *ScoreRepository {
	return &ScoreRepository{state: state}
}

// Award adds delta points to a player, creating the record on first use. The
// stored name follows the player's latest display name.
func (r *ScoreRepository) Award(playerID int64, name string, delta int64) (models.PlayerRecord, error) {
	if delta <= 0 {
		return models.PlayerRecord{}, errors.New(errors.ErrCodeValidation, "award must be positive")
	}

	var updated models.PlayerRecord
	err := r.state.Mutate(func(doc *models.Document) error {
		key := models.PlayerKey(playerID)
		p, ok := doc.Players[key]
		if !ok {
			p = models.PlayerRecord{ID: playerID}
		}
		if name != "" {
			p.Name = name
		}
		p.Points += delta
		doc.Players[key] = p
		updated = p
		return nil
	})
	return updated, err
}

// Deduct removes amount points. It fails with INSUFFICIENT_FUNDS and leaves the
// ledger untouched when the balance is lower than amount.
func (r *ScoreRepository) Deduct(playerID int64, amount int64) (models.PlayerRecord, error) {
	if amount <= 0 {
		return models.PlayerRecord{}, errors.New(errors.ErrCodeValidation, "deduction must be positive")
	}

	var updated models.PlayerRecord
	err := r.state.Mutate(func(doc *models.Document) error {
		key := models.PlayerKey(playerID)
		p, ok := doc.Players[key]
		if !ok || p.Points < amount {
			return errors.New(errors.ErrCodeInsufficientFunds, "not enough points")
		}
		p.Points -= amount
		doc.Players[key] = p
		updated = p
		return nil
	})
	return updated, err
}

func (r *ScoreRepository) Get(playerID int64) (models.PlayerRecord, error) {
	var (
		p  models.PlayerRecord
		ok bool
	)
	r.state.Read(func(doc *models.Document) {
		p, ok = doc.Players[models.PlayerKey(playerID)]
	})
	if !ok {
		return models.PlayerRecord{}, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	return p, nil
}

// Balance is zero for unknown players.
func (r *ScoreRepository) Balance(playerID int64) int64 {
	p, err := r.Get(playerID)
	if err != nil {
		return 0
	}
	return p.Points
}

// TopN returns up to n players ordered by points descending, then id ascending.
func (r *ScoreRepository) TopN(n int) []models.PlayerRecord {
	if n <= 0 {
		return nil
	}

	var players []models.PlayerRecord
	r.state.Read(func(doc *models.Document) {
		players = make([]models.PlayerRecord, 0, len(doc.Players))
		for _, p := range doc.Players {
			players = append(players, p)
		}
	})

	sort.Slice(players, func(i, j int) bool {
		if players[i].Points != players[j].Points {
			return players[i].Points > players[j].Points
		}
		return players[i].ID < players[j].ID
	})

	if len(players) > n {
		players = players[:n]
	}
	return players
}

func (r *ScoreRepository) Count() int {
	var n int
	r.state.Read(func(doc *models.Document) {
		n = len(doc.Players)
	})
	return n
}
