package repositories

import (
	"strings"

	"github.com/mroshb/trivia_bot/internal/models"
	"github.com/mroshb/trivia_bot/pkg/errors"
	"github.com/mroshb/trivia_bot/pkg/utils"
)

type QuestionRepository struct {
	state *State
}

func NewQuestionRepository(state *State) *QuestionRepository {
	return &QuestionRepository{state: state}
}

// Categories returns the category names in alphabetical order.
func (r *QuestionRepository) Categories() []string {
	var names []string
	r.state.Read(func(doc *models.Document) {
		names = doc.Categories()
	})
	return names
}

// Random draws one item from category. pick receives the item count and
// returns an index below it.
func (r *QuestionRepository) Random(category string, pick func(n int) int) (models.TriviaItem, error) {
	var (
		item  models.TriviaItem
		found bool
	)
	r.state.Read(func(doc *models.Document) {
		items := doc.QuestionBank[category]
		if len(items) == 0 {
			return
		}
		item = items[pick(len(items))]
		found = true
	})
	if !found {
		return models.TriviaItem{}, errors.New(errors.ErrCodeNotFound, "no questions in category")
	}
	return item, nil
}

// Append adds an item to category, creating the category if needed. The
// answer is stored in canonical form. It returns the category's new size.
func (r *QuestionRepository) Append(category string, item models.TriviaItem) (int, error) {
	category = strings.TrimSpace(category)
	item, err := canonicalItem(item)
	if err != nil {
		return 0, err
	}
	if category == "" {
		return 0, errors.New(errors.ErrCodeValidation, "category is empty")
	}

	var size int
	err = r.state.Mutate(func(doc *models.Document) error {
		doc.QuestionBank[category] = append(doc.QuestionBank[category], item)
		size = len(doc.QuestionBank[category])
		return nil
	})
	return size, err
}

// ImportItems appends every item of bank in a single write. Invalid items are
// skipped; the number of imported items is returned.
func (r *QuestionRepository) ImportItems(bank map[string][]models.TriviaItem) (int, error) {
	clean := make(map[string][]models.TriviaItem)
	total := 0
	for category, items := range bank {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		for _, item := range items {
			item, err := canonicalItem(item)
			if err != nil {
				continue
			}
			clean[category] = append(clean[category], item)
			total++
		}
	}
	if total == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "nothing to import")
	}

	err := r.state.Mutate(func(doc *models.Document) error {
		for category, items := range clean {
			doc.QuestionBank[category] = append(doc.QuestionBank[category], items...)
		}
		return nil
	})
	return total, err
}

// Bank returns a copy of the whole question bank.
func (r *QuestionRepository) Bank() map[string][]models.TriviaItem {
	var bank map[string][]models.TriviaItem
	r.state.Read(func(doc *models.Document) {
		bank = doc.Clone().QuestionBank
	})
	return bank
}

func (r *QuestionRepository) Count() int {
	var n int
	r.state.Read(func(doc *models.Document) {
		n = doc.QuestionCount()
	})
	return n
}

func (r *QuestionRepository) CountIn(category string) int {
	var n int
	r.state.Read(func(doc *models.Document) {
		n = len(doc.QuestionBank[category])
	})
	return n
}

func canonicalItem(item models.TriviaItem) (models.TriviaItem, error) {
	item.Prompt = strings.TrimSpace(item.Prompt)
	item.Answer = utils.NormalizeAnswer(item.Answer)
	if item.Prompt == "" || item.Answer == "" {
		return item, errors.New(errors.ErrCodeValidation, "prompt and answer are required")
	}
	return item, nil
}
