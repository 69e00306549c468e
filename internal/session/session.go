package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/localstore"
)

type state struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Service holds the current session. It is handed explicitly to the pieces
// that need it (API client auth, order sync) instead of being looked up
// ambiently. Authentication itself is owned by the external backend; this
// only stores what it issued.
type Service struct {
	mu    sync.RWMutex
	state state
	local localstore.Store
}

func NewService(local localstore.Store) *Service {
	s := &Service{local: local}
	var st state
	err := localstore.LoadJSON(context.Background(), local, localstore.KeySession, &st)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Printf("session load error: %v", err)
	}
	s.state = st
	return s
}

// SignIn stores the backend-issued token and user id.
func (s *Service) SignIn(token, userID string) {
	s.mu.Lock()
	s.state = state{Token: token, UserID: userID}
	if err := localstore.SaveJSON(context.Background(), s.local, localstore.KeySession, s.state); err != nil {
		log.Printf("session persist error: %v", err)
	}
	s.mu.Unlock()
}

// SignOut forgets the session.
func (s *Service) SignOut() {
	s.mu.Lock()
	s.state = state{}
	if err := s.local.Delete(context.Background(), localstore.KeySession); err != nil {
		log.Printf("session clear error: %v", err)
	}
	s.mu.Unlock()
}

func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Service) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserID
}

func (s *Service) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token != ""
}
