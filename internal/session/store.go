package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrNotFound = errors.New("session not found")

// PatientInfo carries the demographic details collected before the
// interview begins. PatientID is the durable patient identifier: it
// outlives the kiosk session and links a returning patient's visits
// together. Registration mints one when the client does not supply it.
type PatientInfo struct {
	PatientID string `json:"patient_id,omitempty"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Phone     string `json:"phone,omitempty"`
}

// DoctorChoice records which doctor the patient picked at the kiosk, if any.
type DoctorChoice struct {
	DoctorID   string `json:"doctor_id,omitempty"`
	DoctorName string `json:"doctor_name,omitempty"`
	Department string `json:"department,omitempty"`
	// VisitType is one of "new-doctor", "follow-up" or "ai-help".
	VisitType string `json:"visit_type"`
}

// Session is the per-patient umbrella state that outlives a single interview.
type Session struct {
	ID             string            `json:"session_id"`
	CreatedAt      time.Time         `json:"created_at"`
	Patient        *PatientInfo      `json:"patient,omitempty"`
	SelectedDoctor *DoctorChoice     `json:"selected_doctor,omitempty"`
	Consultation   map[string]any    `json:"consultation,omitempty"`
	Prescreening   map[string]any    `json:"prescreening,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Store keeps patient sessions in memory with a TTL. Entries silently expire;
// an expired session is indistinguishable from one that never existed.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
}

const defaultMaxSessions = 4096

func NewStore(ttl time.Duration) *Store {
	return &Store{
		cache: expirable.NewLRU[string, *Session](defaultMaxSessions, nil, ttl),
	}
}

// Create allocates a session with a fresh id and stores it.
func (s *Store) Create() *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get returns the session for id, or ErrNotFound if it is absent or expired.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Update applies fn to the session under the store lock and writes it back,
// refreshing the entry's TTL.
func (s *Store) Update(id string, fn func(*Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	fn(sess)
	s.cache.Add(id, sess)
	return sess, nil
}
