package session

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"pharmacy-dashboard/internal/config"
)

const CookieName = "dashboard_session"

type entry struct {
	state     *State
	expiresAt time.Time
}

// Store keeps sessions in memory. Entries expire after the configured TTL of
// inactivity and the least recently used entry is evicted once MaxEntries is
// reached.
type Store struct {
	mu      sync.Mutex
	cfg     config.SessionConfig
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	onSize  func(int)
	logger  *slog.Logger
	sweeper *gocron.Scheduler
}

func NewStore(cfg config.SessionConfig, logger *slog.Logger) *Store {
	return &Store{
		cfg:    cfg,
		items:  make(map[string]*list.Element),
		lru:    list.New(),
		now:    time.Now,
		onSize: func(int) {},
		logger: logger,
	}
}

// OnSizeChange registers fn to be called with the new session count whenever
// it changes. fn runs with the store lock held and must not call back into
// the store.
func (s *Store) OnSizeChange(fn func(int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSize = fn
}

func (s *Store) Get(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return nil, false
	}

	e := elem.Value.(*entry)
	if s.now().After(e.expiresAt) {
		s.removeElement(elem)
		return nil, false
	}

	e.expiresAt = s.now().Add(s.cfg.TTL)
	s.lru.MoveToFront(elem)
	return e.state, true
}

func (s *Store) Create() *State {
	now := s.now()
	state := &State{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for s.lru.Len() >= s.cfg.MaxEntries {
		oldest := s.lru.Back()
		s.logger.Debug("evicting least recently used session",
			"session_id", oldest.Value.(*entry).state.ID,
		)
		s.removeElement(oldest)
	}

	s.items[state.ID] = s.lru.PushFront(&entry{state: state, expiresAt: now.Add(s.cfg.TTL)})
	s.onSize(s.lru.Len())
	return state
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[id]; ok {
		s.removeElement(elem)
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Sweep drops every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry).expiresAt) {
			s.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (s *Store) removeElement(elem *list.Element) {
	s.lru.Remove(elem)
	delete(s.items, elem.Value.(*entry).state.ID)
	s.onSize(s.lru.Len())
}

// Start schedules the periodic sweep until ctx is cancelled or Stop is called.
func (s *Store) Start(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(s.cfg.SweepInterval).Do(func() {
		if n := s.Sweep(); n > 0 {
			s.logger.Info("expired sessions removed", "count", n, "remaining", s.Len())
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}

	s.mu.Lock()
	s.sweeper = scheduler
	s.mu.Unlock()

	scheduler.StartAsync()
	s.logger.Info("session sweeper started", "interval", s.cfg.SweepInterval, "ttl", s.cfg.TTL)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Store) Stop() {
	s.mu.Lock()
	sweeper := s.sweeper
	s.sweeper = nil
	s.mu.Unlock()

	if sweeper != nil {
		sweeper.Stop()
		s.logger.Info("session sweeper stopped")
	}
}

// Lookup returns the session named by the request cookie, if it is live.
func (s *Store) Lookup(r *http.Request) (*State, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return s.Get(cookie.Value)
}

// Ensure returns the request's session, creating one and setting the cookie
// when there is none.
func (s *Store) Ensure(w http.ResponseWriter, r *http.Request) *State {
	if state, ok := s.Lookup(r); ok {
		return state
	}

	state := s.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    state.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}
