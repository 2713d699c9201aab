package models

import (
	"sort"
	"strconv"
)

// PlayerRecord is one row of the score ledger.
type PlayerRecord struct {
	ID     int64  `json:"-"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// TriviaItem is an immutable question. Answer is stored in canonical form.
type TriviaItem struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Document is the whole persisted state. It is read at startup and rewritten
// after every mutation.
type Document struct {
	Players      map[string]PlayerRecord `json:"players"`
	Rooms        []int64                 `json:"rooms"`
	QuestionBank map[string][]TriviaItem `json:"questionBank"`
	AdText       string                  `json:"adText"`
	AdPhotoRef   string                  `json:"adPhotoRef,omitempty"`
}

const (
	DefaultCategory = "Umum"
	DefaultAdText   = "PASANG IKLAN DISINI @admin"
)

// DefaultDocument is the state of a fresh installation.
func DefaultDocument() *Document {
	return &Document{
		Players: make(map[string]PlayerRecord),
		Rooms:   []int64{},
		QuestionBank: map[string][]TriviaItem{
			DefaultCategory: {
				{Prompt: "Menara miring di Italia", Answer: "pisa"},
			},
		},
		AdText: DefaultAdText,
	}
}

// PlayerKey is the document key for a player id.
func PlayerKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Normalize fills nil maps and restores player ids from their keys.
// Entries whose key is not a number are dropped.
func (d *Document) Normalize() {
	if d.Players == nil {
		d.Players = make(map[string]PlayerRecord)
	}
	if d.QuestionBank == nil {
		d.QuestionBank = make(map[string][]TriviaItem)
	}
	if d.Rooms == nil {
		d.Rooms = []int64{}
	}
	for key, p := range d.Players {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			delete(d.Players, key)
			continue
		}
		p.ID = id
		d.Players[key] = p
	}
}

// Clone returns a deep copy safe to hand to a store outside the state lock.
func (d *Document) Clone() *Document {
	out := &Document{
		Players:      make(map[string]PlayerRecord, len(d.Players)),
		Rooms:        append([]int64{}, d.Rooms...),
		QuestionBank: make(map[string][]TriviaItem, len(d.QuestionBank)),
		AdText:       d.AdText,
		AdPhotoRef:   d.AdPhotoRef,
	}
	for k, p := range d.Players {
		out.Players[k] = p
	}
	for cat, items := range d.QuestionBank {
		out.QuestionBank[cat] = append([]TriviaItem{}, items...)
	}
	return out
}

// Categories returns the category names sorted alphabetically.
func (d *Document) Categories() []string {
	names := make([]string, 0, len(d.QuestionBank))
	for name := range d.QuestionBank {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QuestionCount is the number of items across all categories.
func (d *Document) QuestionCount() int {
	total := 0
	for _, items := range d.QuestionBank {
		total += len(items)
	}
	return total
}
