package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

// ErrInvalidTransition means the requested transition does not exist from
// the session's current step.
var ErrInvalidTransition = errors.New("invalid step transition")

// Store is the session persistence surface the controller needs.
type Store interface {
	Create(ctx context.Context) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session) error
	Delete(ctx context.Context, id string) error
}

// Controller owns the five-step quote form state machine. All transitions
// are strictly sequential per session: a transition request naming a step
// the session is no longer on is a no-op, which makes rapid double
// submissions idempotent.
type Controller struct {
	sessions Store
	rates    quote.Rates
	logger   *zap.Logger
}

func NewController(sessions Store, logger *zap.Logger) *Controller {
	return &Controller{
		sessions: sessions,
		rates:    quote.DefaultRates(),
		logger:   logger,
	}
}

func (c *Controller) Start(ctx context.Context) (Session, error) {
	session, err := c.sessions.Create(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("failed to start form session: %w", err)
	}
	c.logger.Info("Form session started", zap.String("session_id", session.ID))
	return session, nil
}

func (c *Controller) Get(ctx context.Context, id string) (Session, error) {
	return c.sessions.Get(ctx, id)
}

// Advance validates the currently visible step and moves the session one
// step forward. On validation failure nothing is saved and every failing
// field is reported. fromStep protects against double-clicks: when it no
// longer matches the stored step the call returns the session unchanged.
func (c *Controller) Advance(ctx context.Context, id string, fromStep int, fields map[string][]string) (Session, error) {
	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	if session.CurrentStep != fromStep {
		return session, nil
	}
	if fromStep < StepContact || fromStep >= StepLogistics {
		return Session{}, fmt.Errorf("%w: advance from step %d", ErrInvalidTransition, fromStep)
	}

	merged := mergeFields(session.Fields, quote.NormalizeFields(fields))
	if verr := validateStep(fromStep, session.ServiceType, merged); verr != nil {
		return Session{}, verr
	}

	if fromStep == StepServiceType {
		session.ServiceType = quote.ServiceType(merged["service-type"][0])
	}

	session.Fields = merged
	session.CurrentStep = fromStep + 1

	if err := c.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}

	c.logger.Debug("Form session advanced",
		zap.String("session_id", session.ID),
		zap.Int("step", session.CurrentStep),
		zap.String("service_type", string(session.ServiceType)))
	return session, nil
}

// Retreat always succeeds above step 1. No validation, no field loss.
func (c *Controller) Retreat(ctx context.Context, id string) (Session, error) {
	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	if session.CurrentStep <= StepContact || session.CurrentStep >= StepResult {
		return session, nil
	}

	session.CurrentStep--
	if err := c.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Submit re-validates the final step, assembles all collected fields into
// a quote request and computes the price. A second submit on an already
// terminal session returns the stored result unchanged, reported through
// the submitted flag so callers do not re-fire side effects.
func (c *Controller) Submit(ctx context.Context, id string, fields map[string][]string) (Session, bool, error) {
	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, false, err
	}

	if session.CurrentStep == StepResult {
		return session, false, nil
	}
	if session.CurrentStep != StepLogistics {
		return Session{}, false, fmt.Errorf("%w: submit from step %d", ErrInvalidTransition, session.CurrentStep)
	}

	merged := mergeFields(session.Fields, quote.NormalizeFields(fields))
	if verr := validateStep(StepLogistics, session.ServiceType, merged); verr != nil {
		return Session{}, false, verr
	}
	if missing := quote.MissingRequired(merged); len(missing) > 0 {
		verr := &ValidationError{Step: StepLogistics}
		for _, name := range missing {
			verr.Fields = append(verr.Fields, FieldError{Name: name, Label: quote.Label(name)})
		}
		return Session{}, false, verr
	}

	if session.DistanceKm > 0 && !hasValue(merged, "distance") {
		merged["distance"] = []string{strconv.FormatFloat(session.DistanceKm, 'f', -1, 64)}
	}

	req := quote.FromFields(merged)
	result := quote.Compute(req, c.rates)

	session.Fields = merged
	session.Reference = uuid.NewString()
	session.Result = &result
	session.CurrentStep = StepResult

	if err := c.sessions.Save(ctx, session); err != nil {
		return Session{}, false, err
	}

	c.logger.Info("Form session submitted",
		zap.String("session_id", session.ID),
		zap.String("reference", session.Reference),
		zap.Int64("total", result.Total))
	return session, true, nil
}

// Request rebuilds the quote request a submitted session was priced from.
func (s Session) Request() quote.Request {
	return quote.FromFields(s.Fields)
}

// BeginDistance registers a new distance-resolution attempt and returns
// its sequence number. Any response from an earlier attempt becomes stale.
func (c *Controller) BeginDistance(ctx context.Context, id string) (int64, error) {
	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	session.DistanceSeq++
	if err := c.sessions.Save(ctx, session); err != nil {
		return 0, err
	}
	return session.DistanceSeq, nil
}

// ApplyDistance writes a resolved distance only when seq is still the
// latest issued attempt. A stale response is dropped: the later request's
// result, or a manual edit made after seq was issued, wins.
func (c *Controller) ApplyDistance(ctx context.Context, id string, seq int64, km float64) (Session, bool, error) {
	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, false, err
	}

	if seq != session.DistanceSeq {
		c.logger.Debug("Dropping stale distance result",
			zap.String("session_id", id),
			zap.Int64("seq", seq),
			zap.Int64("latest_seq", session.DistanceSeq))
		return session, false, nil
	}

	session.DistanceKm = km
	session.Fields["distance"] = []string{strconv.FormatFloat(km, 'f', -1, 64)}
	if err := c.sessions.Save(ctx, session); err != nil {
		return Session{}, false, err
	}
	return session, true, nil
}

// SetDistanceManual records a manual edit of the distance field and
// invalidates every in-flight resolution.
func (c *Controller) SetDistanceManual(ctx context.Context, id string, km float64) (Session, error) {
	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}

	session.DistanceSeq++
	session.DistanceKm = km
	session.Fields["distance"] = []string{strconv.FormatFloat(km, 'f', -1, 64)}
	if err := c.sessions.Save(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

func mergeFields(saved, incoming map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(saved)+len(incoming))
	for name, values := range saved {
		merged[name] = values
	}
	for name, values := range incoming {
		merged[name] = values
	}
	return merged
}
