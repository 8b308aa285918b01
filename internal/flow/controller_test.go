package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

// memStore keeps sessions in a map, standing in for redis.
type memStore struct {
	sessions map[string]Session
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]Session{}}
}

func (m *memStore) Create(_ context.Context) (Session, error) {
	session := Session{
		ID:          uuid.NewString(),
		CurrentStep: StepContact,
		Fields:      map[string][]string{},
		CreatedAt:   time.Now(),
	}
	m.sessions[session.ID] = session
	return session, nil
}

func (m *memStore) Get(_ context.Context, id string) (Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

func (m *memStore) Save(_ context.Context, session Session) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func newTestController() (*Controller, *memStore) {
	store := newMemStore()
	return NewController(store, zap.NewNop()), store
}

func contactFields() map[string][]string {
	return map[string][]string{
		"name":  {"Lucie Tremblay"},
		"email": {"lucie@example.com"},
		"phone": {"514-555-0000"},
	}
}

func startAt(t *testing.T, c *Controller, step int, serviceType string) Session {
	t.Helper()
	ctx := context.Background()

	session, err := c.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if step == StepContact {
		return session
	}

	if session, err = c.Advance(ctx, session.ID, StepContact, contactFields()); err != nil {
		t.Fatalf("advance past contact: %v", err)
	}
	if step == StepServiceType {
		return session
	}

	session, err = c.Advance(ctx, session.ID, StepServiceType,
		map[string][]string{"service-type": {serviceType}})
	if err != nil {
		t.Fatalf("advance past service type: %v", err)
	}
	if step == StepDetails {
		return session
	}

	details := map[string][]string{
		"residence-type": {"apartment"},
		"rooms":          {"1-2"},
		"floors":         {"ground-floor"},
	}
	if serviceType == "commercial" {
		details = map[string][]string{
			"establishment-type": {"office"},
			"commercial-size":    {"0-100"},
		}
	}
	if session, err = c.Advance(ctx, session.ID, StepDetails, details); err != nil {
		t.Fatalf("advance past details: %v", err)
	}
	return session
}

func TestAdvance_ValidationCollectsAllFailures(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session, _ := c.Start(ctx)
	_, err := c.Advance(ctx, session.ID, StepContact,
		map[string][]string{"name": {"Lucie"}})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("want 2 failing fields (email, phone), got %v", verr.Fields)
	}

	// No state change on failure.
	got, _ := c.Get(ctx, session.ID)
	if got.CurrentStep != StepContact {
		t.Errorf("step changed to %d after failed validation", got.CurrentStep)
	}
	if len(got.Fields) != 0 {
		t.Errorf("fields partially saved: %v", got.Fields)
	}
}

func TestAdvance_Step2RequiresServiceType(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepServiceType, "")

	_, err := c.Advance(ctx, session.ID, StepServiceType, map[string][]string{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	got, _ := c.Get(ctx, session.ID)
	if got.CurrentStep != StepServiceType {
		t.Errorf("step = %d, want unchanged %d", got.CurrentStep, StepServiceType)
	}

	// An unknown service type is rejected too.
	_, err = c.Advance(ctx, session.ID, StepServiceType,
		map[string][]string{"service-type": {"industrial"}})
	if !errors.As(err, &verr) {
		t.Fatalf("unknown service type accepted: %v", err)
	}
}

func TestAdvance_CapturesServiceTypeAndPolymorphicStep3(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepDetails, "commercial")
	if session.ServiceType != quote.ServiceCommercial {
		t.Fatalf("ServiceType = %q, want commercial", session.ServiceType)
	}

	// The residential field set must not satisfy the commercial step 3.
	_, err := c.Advance(ctx, session.ID, StepDetails, map[string][]string{
		"residence-type": {"apartment"},
		"rooms":          {"1-2"},
		"floors":         {"ground-floor"},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("residential fields satisfied commercial step 3: %v", err)
	}

	// The commercial variant is the active one.
	session, err = c.Advance(ctx, session.ID, StepDetails, map[string][]string{
		"establishment-type": {"retail"},
		"commercial-size":    {"101-300"},
	})
	if err != nil {
		t.Fatalf("commercial step 3 rejected: %v", err)
	}
	if session.CurrentStep != StepLogistics {
		t.Errorf("step = %d, want %d", session.CurrentStep, StepLogistics)
	}
}

func TestAdvance_DoubleClickIsIdempotent(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepContact, "")

	first, err := c.Advance(ctx, session.ID, StepContact, contactFields())
	if err != nil {
		t.Fatalf("first advance: %v", err)
	}
	// Second click still names step 1; the session has moved on.
	second, err := c.Advance(ctx, session.ID, StepContact, contactFields())
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if second.CurrentStep != first.CurrentStep {
		t.Errorf("double click advanced twice: %d", second.CurrentStep)
	}
}

func TestRetreat(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepDetails, "residential")

	session, err := c.Retreat(ctx, session.ID)
	if err != nil {
		t.Fatalf("Retreat: %v", err)
	}
	if session.CurrentStep != StepServiceType {
		t.Errorf("step = %d, want %d", session.CurrentStep, StepServiceType)
	}

	// Collected fields survive the retreat.
	if len(session.Fields["name"]) == 0 {
		t.Error("contact fields lost on retreat")
	}

	// Retreating below step 1 is a no-op.
	c.Retreat(ctx, session.ID)
	session, _ = c.Retreat(ctx, session.ID)
	if session.CurrentStep != StepContact {
		t.Errorf("retreated below step 1: %d", session.CurrentStep)
	}
}

func TestSubmit(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepLogistics, "residential")

	// Step 4 validation failure keeps the session on step 4.
	_, _, err := c.Submit(ctx, session.ID, map[string][]string{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	session, submitted, err := c.Submit(ctx, session.ID, map[string][]string{
		"origin-address":      {"Montréal, QC"},
		"destination-address": {"Laval, QC"},
		"services":            {"packing"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !submitted {
		t.Error("first submit not reported as performed")
	}
	if session.CurrentStep != StepResult {
		t.Errorf("step = %d, want %d", session.CurrentStep, StepResult)
	}
	if session.Result == nil || session.Reference == "" {
		t.Fatal("submitted session has no result or reference")
	}

	// apartment 1-2 ground: 500, +30% packing = 650, tax 98, total 748.
	if session.Result.Total != 748 {
		t.Errorf("Total = %d, want 748", session.Result.Total)
	}

	// Re-submitting a terminal session returns the stored result.
	again, submitted, err := c.Submit(ctx, session.ID, nil)
	if err != nil {
		t.Fatalf("re-submit: %v", err)
	}
	if submitted {
		t.Error("re-submit reported as a fresh submission")
	}
	if again.Reference != session.Reference {
		t.Error("re-submit produced a new reference")
	}
}

func TestSubmit_UsesResolvedDistance(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepLogistics, "residential")

	seq, err := c.BeginDistance(ctx, session.ID)
	if err != nil {
		t.Fatalf("BeginDistance: %v", err)
	}
	if _, applied, _ := c.ApplyDistance(ctx, session.ID, seq, 100); !applied {
		t.Fatal("current-seq distance result not applied")
	}

	session, _, err = c.Submit(ctx, session.ID, map[string][]string{
		"origin-address":      {"Montréal, QC"},
		"destination-address": {"Québec, QC"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// 500 + 100*1.50 = 650 before tax.
	if session.Result.BasePrice != 650 {
		t.Errorf("BasePrice = %v, want 650", session.Result.BasePrice)
	}
}

func TestDistance_StaleResponseDropped(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepLogistics, "residential")

	// Two resolutions race; the slower first response must lose.
	seq1, _ := c.BeginDistance(ctx, session.ID)
	seq2, _ := c.BeginDistance(ctx, session.ID)

	if _, applied, _ := c.ApplyDistance(ctx, session.ID, seq2, 80); !applied {
		t.Fatal("latest response rejected")
	}
	if _, applied, _ := c.ApplyDistance(ctx, session.ID, seq1, 999); applied {
		t.Fatal("stale response applied")
	}

	got, _ := c.Get(ctx, session.ID)
	if got.DistanceKm != 80 {
		t.Errorf("DistanceKm = %v, want 80", got.DistanceKm)
	}
}

func TestDistance_ManualEditSupersedesInFlight(t *testing.T) {
	c, _ := newTestController()
	ctx := context.Background()

	session := startAt(t, c, StepLogistics, "residential")

	seq, _ := c.BeginDistance(ctx, session.ID)

	// The user types a value while the resolution is still in flight.
	if _, err := c.SetDistanceManual(ctx, session.ID, 25); err != nil {
		t.Fatalf("SetDistanceManual: %v", err)
	}

	if _, applied, _ := c.ApplyDistance(ctx, session.ID, seq, 500); applied {
		t.Fatal("in-flight resolution clobbered a manual edit")
	}

	got, _ := c.Get(ctx, session.ID)
	if got.DistanceKm != 25 {
		t.Errorf("DistanceKm = %v, want 25", got.DistanceKm)
	}
}

func TestAdvance_UnknownSession(t *testing.T) {
	c, _ := newTestController()
	_, err := c.Advance(context.Background(), "nope", StepContact, contactFields())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("want ErrSessionNotFound, got %v", err)
	}
}
