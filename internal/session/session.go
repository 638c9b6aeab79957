package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/r3labs/diff/v3"
	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber/internal/sync_"
)

var (
	ErrClientNotFound = errors.New("client not found")
)

type Config struct {
	Database Database
	// Now is the clock used for ClientState.UpdatedAt.
	Now func() time.Time
}

var DefaultConfig = Config{
	Database: NilDatabase{},
	Now:      time.Now,
}

type clientsByID = map[ClientID]ClientState

// Store holds per-client state, guarded by a lock and written through to its Database.
type Store struct {
	config Config
	log    *zap.SugaredLogger

	clients *sync_.RWMutexed[clientsByID]
}

func New(config Config) (*Store, error) {
	if config.Database == nil {
		config.Database = NilDatabase{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	s := &Store{
		config: config,
		log:    zap.S().Named("session"),

		clients: sync_.NewRWMutexed(make(clientsByID)),
	}
	states, err := config.Database.ListClients()
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	_ = s.clients.Locked(func(clients *clientsByID) error {
		for _, state := range states {
			(*clients)[state.ID] = state
		}
		return nil
	})
	s.log.Debugf("loaded %d clients", len(states))
	return s, nil
}

// Get returns a copy of the client's state.
func (s *Store) Get(id ClientID) (state ClientState, err error) {
	err = s.clients.RLocked(func(clients *clientsByID) error {
		var ok bool
		if state, ok = (*clients)[id]; !ok {
			return ErrClientNotFound
		}
		return nil
	})
	return state, err
}

// SetLink remembers the link a client last submitted, creating the client if necessary.
func (s *Store) SetLink(id ClientID, link string) error {
	return s.update(id, func(state *ClientState) {
		state.Link = link
	})
}

// TakeLink returns the client's link and forgets the client, so that each submitted link is only used once and
// nothing is kept for clients that have nothing pending.
func (s *Store) TakeLink(id ClientID) (link string, err error) {
	err = s.clients.Locked(func(clients *clientsByID) error {
		state, ok := (*clients)[id]
		if !ok {
			return ErrClientNotFound
		}
		if err := s.delete(clients, state); err != nil {
			return err
		}
		link = state.Link
		return nil
	})
	return link, err
}

// Delete forgets a client entirely.
func (s *Store) Delete(id ClientID) error {
	return s.clients.Locked(func(clients *clientsByID) error {
		state, ok := (*clients)[id]
		if !ok {
			return ErrClientNotFound
		}
		return s.delete(clients, state)
	})
}

func (s *Store) delete(clients *clientsByID, state ClientState) error {
	if err := s.config.Database.DeleteClient(&state); err != nil {
		return fmt.Errorf("failed to delete client %v: %w", state.ID, err)
	}
	delete(*clients, state.ID)
	s.log.Debugf("%v: deleted", state.ID)
	return nil
}

// Count returns the number of known clients.
func (s *Store) Count() (n int) {
	_ = s.clients.RLocked(func(clients *clientsByID) error {
		n = len(*clients)
		return nil
	})
	return n
}

func (s *Store) update(id ClientID, f func(state *ClientState)) error {
	return s.clients.Locked(func(clients *clientsByID) error {
		oldState, ok := (*clients)[id]
		if !ok {
			oldState = ClientState{ID: id}
		}
		newState := oldState
		f(&newState)
		if ok && newState == oldState {
			return nil
		}
		newState.UpdatedAt = s.config.Now()
		if err := s.config.Database.WriteClient(&newState); err != nil {
			return fmt.Errorf("failed to save client %v: %w", id, err)
		}
		(*clients)[id] = newState
		s.logChanges(oldState, newState)
		return nil
	})
}

func (s *Store) logChanges(oldState, newState ClientState) {
	changes, err := diff.Diff(oldState, newState)
	if err != nil {
		s.log.Errorf("failed to diff old and new client state: %v", err)
		return
	}
	for _, change := range changes {
		s.log.Debugf("%v: %v: %#v -> %#v", newState.ID, change.Path, change.From, change.To)
	}
}
