package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// TokenStorage persists the auth token between runs.
type TokenStorage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// TokenSource is what the API client needs from a session.
type TokenSource interface {
	Token() (string, bool)
}

// SessionObserver is called after every login or logout with the new token
// (empty after logout).
type SessionObserver func(token string)

// Session holds the current auth token. There is at most one token at a
// time and the last Login or Logout wins.
type Session struct {
	mu        sync.RWMutex
	token     string
	storage   TokenStorage
	observers map[int]SessionObserver
	nextID    int
	log       *logrus.Logger
}

// NewSession loads the persisted token once. The token is not validated
// against the server; a stale token shows up as a failed API call later.
func NewSession(storage TokenStorage, log *logrus.Logger) *Session {
	if log == nil {
		log = discardLogger()
	}
	s := &Session{
		storage:   storage,
		observers: make(map[int]SessionObserver),
		log:       log,
	}
	if storage == nil {
		return s
	}
	token, err := storage.Load()
	if err != nil {
		// Unreadable storage reads as "no token"
		log.WithError(err).Warn("Session.Load.Error")
		return s
	}
	s.token = token
	return s
}

// Token returns the current token and whether one is set.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// IsAuthenticated reports whether a token is present.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// Login stores the token and notifies observers before returning.
func (s *Session) Login(token string) {
	if s.storage != nil {
		if err := s.storage.Save(token); err != nil {
			s.log.WithError(err).Warn("Session.Login.PersistError")
		}
	}
	s.set(token)
}

// Logout clears the token and notifies observers before returning.
func (s *Session) Logout() {
	if s.storage != nil {
		if err := s.storage.Clear(); err != nil {
			s.log.WithError(err).Warn("Session.Logout.PersistError")
		}
	}
	s.set("")
}

// Subscribe registers an observer. The returned func removes it.
func (s *Session) Subscribe(fn SessionObserver) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(token string) {
	s.mu.Lock()
	s.token = token
	observers := make([]SessionObserver, 0, len(s.observers))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	// Observers run outside the lock so they may read the session
	for _, fn := range observers {
		fn(token)
	}
}

// sessionFile is the on-disk layout of FileStorage.
type sessionFile struct {
	Token string `yaml:"token,omitempty"`
}

// FileStorage keeps the token in a small YAML file.
type FileStorage struct {
	Path string
}

// DefaultSessionPath returns ~/.expense-tracker/session.yaml
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".expense-tracker", "session.yaml")
}

// Load returns the stored token, or "" when the file does not exist.
func (f FileStorage) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session file: %w", err)
	}

	var sf sessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return "", fmt.Errorf("parsing session file: %w", err)
	}
	return sf.Token, nil
}

func (f FileStorage) Save(token string) error {
	data, err := yaml.Marshal(sessionFile{Token: token})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

func (f FileStorage) Clear() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemoryStorage is a TokenStorage that lives only as long as the process.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStorage) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
