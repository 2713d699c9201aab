package services

import (
	"sync"

	"github.com/mroshb/trivia_bot/pkg/errors"
)

// Lobby is the pre-round gathering of a room. Members and Names are parallel;
// the host is always the first member.
type Lobby struct {
	HostID    int64
	Members   []int64
	Names     []string
	Selecting bool
}

func (l Lobby) HostName() string {
	if len(l.Names) == 0 {
		return ""
	}
	return l.Names[0]
}

func (l Lobby) Has(playerID int64) bool {
	for _, id := range l.Members {
		if id == playerID {
			return true
		}
	}
	return false
}

func (l Lobby) clone() Lobby {
	l.Members = append([]int64(nil), l.Members...)
	l.Names = append([]string(nil), l.Names...)
	return l
}

// LobbyService keeps one lobby per room until its first round starts.
type LobbyService struct {
	mu      sync.Mutex
	lobbies map[int64]*Lobby
}

func NewLobbyService() *LobbyService {
	return &LobbyService{lobbies: make(map[int64]*Lobby)}
}

// Open creates a lobby with the host as its only member, replacing any
// previous lobby for the room.
func (s *LobbyService) Open(roomID, hostID int64, hostName string) Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := &Lobby{
		HostID:  hostID,
		Members: []int64{hostID},
		Names:   []string{hostName},
	}
	s.lobbies[roomID] = l
	return l.clone()
}

// Join adds a player to the room's lobby. It reports false when the player
// was already a member.
func (s *LobbyService) Join(roomID, playerID int64, name string) (Lobby, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[roomID]
	if !ok {
		return Lobby{}, false, errors.New(errors.ErrCodeNotFound, "no lobby in room")
	}
	if l.Has(playerID) {
		return l.clone(), false, nil
	}
	l.Members = append(l.Members, playerID)
	l.Names = append(l.Names, name)
	return l.clone(), true, nil
}

// BeginSelection moves the lobby to category selection. Only the host may do so.
func (s *LobbyService) BeginSelection(roomID, requesterID int64) (Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[roomID]
	if !ok {
		return Lobby{}, errors.New(errors.ErrCodeNotFound, "no lobby in room")
	}
	if l.HostID != requesterID {
		return Lobby{}, errors.New(errors.ErrCodeForbidden, "only the host can begin")
	}
	l.Selecting = true
	return l.clone(), nil
}

// ConfirmCategory is called by the host when a category is picked. The lobby
// is discarded and its final roster returned.
func (s *LobbyService) ConfirmCategory(roomID, requesterID int64) (Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[roomID]
	if !ok {
		return Lobby{}, errors.New(errors.ErrCodeNotFound, "no lobby in room")
	}
	if l.HostID != requesterID {
		return Lobby{}, errors.New(errors.ErrCodeForbidden, "only the host can choose")
	}
	if !l.Selecting {
		return Lobby{}, errors.New(errors.ErrCodeConflict, "lobby is not selecting a category")
	}
	delete(s.lobbies, roomID)
	return l.clone(), nil
}

func (s *LobbyService) Get(roomID int64) (Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lobbies[roomID]
	if !ok {
		return Lobby{}, false
	}
	return l.clone(), true
}

// Discard drops the room's lobby, if any.
func (s *LobbyService) Discard(roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, roomID)
}
