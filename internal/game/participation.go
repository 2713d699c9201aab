package game

import "sync"

// ParticipationTracker records the distinct players who solved a round in each
// room. Sets only grow for the lifetime of the process.
type ParticipationTracker struct {
	mu    sync.Mutex
	rooms map[int64]map[int64]struct{}
}

func NewParticipationTracker() *ParticipationTracker {
	return &ParticipationTracker{rooms: make(map[int64]map[int64]struct{})}
}

// Add records player in room and returns the room's distinct count.
func (t *ParticipationTracker) Add(roomID, playerID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	players, ok := t.rooms[roomID]
	if !ok {
		players = make(map[int64]struct{})
		t.rooms[roomID] = players
	}
	players[playerID] = struct{}{}
	return len(players)
}

func (t *ParticipationTracker) Count(roomID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rooms[roomID])
}
