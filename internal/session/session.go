// Package session keeps one set of page controllers per browser. Sessions
// live in memory, are identified by a cookie and are evicted after an idle
// period.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	CookieName = "storeadmin_session"
	contextKey = "session"

	// maxEditors bounds the open order forms kept per session; the oldest
	// form is dropped first.
	maxEditors = 8
)

// FlashLevel styles a notice.
type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Level   FlashLevel
	Message string
}

// Session is the per-browser controller set.
type Session struct {
	ID        string
	Dashboard *controller.DashboardController
	Products  *controller.ProductController

	newEditor func() *controller.OrderEditor

	mu          sync.Mutex
	flashes     []Flash
	lastSeen    time.Time
	editors     map[string]*controller.OrderEditor
	editorOrder []string
}

// NewEditor opens an order editor for one form instance and returns the
// token the form posts back.
func (s *Session) NewEditor() (string, *controller.OrderEditor, error) {
	token, err := newID()
	if err != nil {
		return "", nil, err
	}
	editor := s.newEditor()

	var evicted *controller.OrderEditor
	s.mu.Lock()
	if s.editors == nil {
		s.editors = make(map[string]*controller.OrderEditor)
	}
	if len(s.editorOrder) >= maxEditors {
		oldest := s.editorOrder[0]
		s.editorOrder = s.editorOrder[1:]
		evicted = s.editors[oldest]
		delete(s.editors, oldest)
	}
	s.editors[token] = editor
	s.editorOrder = append(s.editorOrder, token)
	s.mu.Unlock()

	if evicted != nil {
		evicted.Close()
	}
	return token, editor, nil
}

// Editor returns the editor opened for token.
func (s *Session) Editor(token string) (*controller.OrderEditor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	editor, ok := s.editors[token]
	return editor, ok
}

// DropEditor closes and forgets the editor opened for token.
func (s *Session) DropEditor(token string) {
	s.mu.Lock()
	editor, ok := s.editors[token]
	delete(s.editors, token)
	for i, t := range s.editorOrder {
		if t == token {
			s.editorOrder = append(s.editorOrder[:i], s.editorOrder[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	if ok {
		editor.Close()
	}
}

// EditorCount returns the number of open order forms.
func (s *Session) EditorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.editors)
}

// AddFlash queues a notice for the next page.
func (s *Session) AddFlash(level FlashLevel, message string) {
	s.mu.Lock()
	s.flashes = append(s.flashes, Flash{Level: level, Message: message})
	s.mu.Unlock()
}

// Flashes returns and clears the queued notices.
func (s *Session) Flashes() []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.Dashboard.Close()
	s.Products.Close()

	s.mu.Lock()
	editors := s.editors
	s.editors = nil
	s.editorOrder = nil
	s.mu.Unlock()
	for _, editor := range editors {
		editor.Close()
	}
}

// Dependencies are the services every session's controllers share.
type Dependencies struct {
	Orders          controller.OrderSource
	Catalog         controller.Catalog
	Simulator       controller.Simulator
	Dashboard       controller.DashboardOptions
	RequireQuantity bool
}

type Store struct {
	deps Dependencies
	idle time.Duration
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore(deps Dependencies, idle time.Duration) *Store {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Store{
		deps:     deps,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the live session for id and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	sess.touch(s.now())
	return sess, true
}

// Create starts a session with fresh controllers.
func (s *Store) Create() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:        id,
		Dashboard: controller.NewDashboardController(s.deps.Orders, s.deps.Catalog, s.deps.Simulator, s.deps.Dashboard),
		Products:  controller.NewProductController(s.deps.Catalog, controller.ProductOptions{RequireQuantity: s.deps.RequireQuantity}),
		newEditor: func() *controller.OrderEditor {
			return controller.NewOrderEditor(s.deps.Orders, s.deps.Catalog)
		},
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	log.Debug().Str("session", id).Msg("session created")
	return sess, nil
}

// Remove closes and forgets a session.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.close()
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle for longer than the configured period and
// returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		log.Info().Int("evicted", len(expired)).Msg("session sweep")
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done, then closes every session.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}

// Middleware attaches the caller's session to the gin context, creating one
// and setting the cookie when none is live.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(CookieName); err == nil {
			if sess, ok := s.Get(id); ok {
				c.Set(contextKey, sess)
				c.Next()
				return
			}
		}

		sess, err := s.Create()
		if err != nil {
			log.Error().Err(err).Msg("failed to create session")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, sess.ID, int(s.idle.Seconds()), "/", "", false, true)
		c.Set(contextKey, sess)
		c.Next()
	}
}

// FromContext returns the session attached by Middleware.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

func newID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
