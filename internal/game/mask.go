package game

import (
	"strings"
	"unicode"
)

// RevealMask is the clue shown for a round: the answer with some letters
// disclosed and the rest replaced by underscores. Spaces are never hidden.
type RevealMask struct {
	runes    []rune
	revealed map[int]bool
}

// NewRevealMask discloses the first and last non-space positions of answer.
func NewRevealMask(answer string) *RevealMask {
	m := &RevealMask{
		runes:    []rune(answer),
		revealed: make(map[int]bool),
	}

	first, last := -1, -1
	for i, r := range m.runes {
		if unicode.IsSpace(r) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first >= 0 {
		m.revealed[first] = true
		m.revealed[last] = true
	}
	return m
}

// Render produces e.g. "J _ _ _ _ _ A". A space in the answer shows as a
// wider gap between words.
func (m *RevealMask) Render() string {
	cells := make([]string, len(m.runes))
	for i, r := range m.runes {
		switch {
		case unicode.IsSpace(r):
			cells[i] = " "
		case m.revealed[i]:
			cells[i] = strings.ToUpper(string(r))
		default:
			cells[i] = "_"
		}
	}
	return strings.Join(cells, " ")
}

// Hidden returns the positions that are neither revealed nor spaces, in order.
func (m *RevealMask) Hidden() []int {
	var hidden []int
	for i, r := range m.runes {
		if !unicode.IsSpace(r) && !m.revealed[i] {
			hidden = append(hidden, i)
		}
	}
	return hidden
}

// Reveal discloses pos. It reports false for spaces, out of range positions
// and positions already shown.
func (m *RevealMask) Reveal(pos int) bool {
	if pos < 0 || pos >= len(m.runes) || unicode.IsSpace(m.runes[pos]) || m.revealed[pos] {
		return false
	}
	m.revealed[pos] = true
	return true
}

// RevealRandom discloses one hidden position chosen by pick, which receives the
// number of candidates and returns an index below it. It reports false when
// nothing is left to reveal.
func (m *RevealMask) RevealRandom(pick func(n int) int) (int, bool) {
	hidden := m.Hidden()
	if len(hidden) == 0 {
		return -1, false
	}
	pos := hidden[pick(len(hidden))]
	m.revealed[pos] = true
	return pos, true
}
