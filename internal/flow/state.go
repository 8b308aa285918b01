package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
	"github.com/Wrivard/demenagementboreal-sub000/pkg/redis"
)

// Step numbers of the quote form. Step 3 is polymorphic: its required
// fields depend on the service type captured on leaving step 2.
const (
	StepContact     = 1
	StepServiceType = 2
	StepDetails     = 3
	StepLogistics   = 4
	StepResult      = 5
)

var ErrSessionNotFound = errors.New("form session not found")

// Session is the single owner of a form instance's mutable state. It only
// changes through advance/retreat/submit transitions.
type Session struct {
	ID          string              `json:"id"`
	CurrentStep int                 `json:"current_step"`
	ServiceType quote.ServiceType   `json:"service_type,omitempty"`
	Fields      map[string][]string `json:"fields"`

	// DistanceSeq is the latest issued distance-resolution request; a
	// response carrying an older sequence is stale and must be dropped.
	DistanceSeq int64   `json:"distance_seq"`
	DistanceKm  float64 `json:"distance_km"`

	Reference string           `json:"reference,omitempty"`
	Result    *quote.Breakdown `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionStore struct {
	redis *redis.Client
}

func NewSessionStore(redisClient *redis.Client) *SessionStore {
	return &SessionStore{redis: redisClient}
}

func (s *SessionStore) Create(ctx context.Context) (Session, error) {
	now := time.Now().UTC()
	session := Session{
		ID:          uuid.NewString(),
		CurrentStep: StepContact,
		Fields:      map[string][]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (Session, error) {
	var session Session
	if err := s.redis.GetJSON(ctx, sessionKey(id), &session); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if session.Fields == nil {
		session.Fields = map[string][]string{}
	}
	return session, nil
}

func (s *SessionStore) Save(ctx context.Context, session Session) error {
	session.UpdatedAt = time.Now().UTC()
	if err := s.redis.SaveJSON(ctx, sessionKey(session.ID), session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("form-session:%s", id)
}
