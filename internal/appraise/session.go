package appraise

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

// State is a session's position in the estimate lifecycle.
type State string

const (
	StateInitial      State = "initial"
	StateEstimated    State = "estimated"
	StateReestimating State = "re-estimating"
)

var (
	// ErrNotEstimated is returned for operations that need a completed first
	// estimate.
	ErrNotEstimated = eris.New("session: no estimate yet")

	// ErrNoCorrections is returned when a re-estimate is requested with no
	// effective corrections.
	ErrNoCorrections = eris.New("session: nothing corrected")

	// ErrEstimateInFlight is returned when Estimate is called while the first
	// estimate is still running.
	ErrEstimateInFlight = eris.New("session: estimate already in flight")

	// ErrReestimateInFlight tells the caller their edit was accepted but a
	// re-estimate is already running; the running loop picks the edit up and
	// the caller should wait for that result instead.
	ErrReestimateInFlight = eris.New("session: re-estimate already in flight")
)

// Session tracks one visitor's appraisal: the captured photos, the current
// estimate, and the user's corrections. Corrections are always diffed against
// the ORIGINAL estimate's detail values, not the most recent one, so that
// reverting a field back to what the model first said removes the correction
// entirely.
//
// Re-estimation is serialized per session: at most one model call runs at a
// time, and corrections that arrive mid-flight coalesce into one follow-up
// call rather than queueing one call per edit.
type Session struct {
	runner Runner
	images []Image

	mu          sync.Mutex
	state       State
	current     *model.Appraisal
	original    map[string]string
	corrections *model.CorrectionSet
	history     []model.CorrectionSet
	busy        bool
	pending     bool
	seq         uint64
}

// NewSession creates a session over a fixed set of photos. The photo set is
// immutable for the session's lifetime; new photos mean a new session.
func NewSession(runner Runner, images []Image) (*Session, error) {
	if len(images) == 0 {
		return nil, eris.New("session: at least one image is required")
	}
	return &Session{
		runner:      runner,
		images:      images,
		state:       StateInitial,
		corrections: model.NewCorrectionSet(),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the latest appraisal, or nil before the first estimate.
func (s *Session) Current() *model.Appraisal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Estimate runs the first appraisal. It snapshots the original detail values
// exactly once; later re-estimates never overwrite that baseline.
func (s *Session) Estimate(ctx context.Context) (*model.Appraisal, error) {
	s.mu.Lock()
	if s.state != StateInitial {
		s.mu.Unlock()
		return nil, eris.New("session: already estimated")
	}
	if s.busy {
		s.mu.Unlock()
		return nil, ErrEstimateInFlight
	}
	s.busy = true
	s.mu.Unlock()

	a, err := s.runner.Run(ctx, Request{Images: s.images})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		return nil, err
	}
	s.current = a
	s.state = StateEstimated
	s.original = make(map[string]string, len(a.Details))
	for _, d := range a.Details {
		s.original[d.Label] = d.Value
	}
	return a, nil
}

// SetCorrection records the user's value for a detail field. A value equal to
// the original estimate's value is a revert and removes the entry; only real
// differences survive into the correction set.
func (s *Session) SetCorrection(label, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInitial {
		return ErrNotEstimated
	}
	if value == s.original[label] {
		delete(s.corrections.Fields, label)
		return nil
	}
	s.corrections.Fields[label] = value
	return nil
}

// SetExtraNotes sets the free-text notes accompanying the corrections.
func (s *Session) SetExtraNotes(notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInitial {
		return ErrNotEstimated
	}
	s.corrections.ExtraNotes = notes
	return nil
}

// Corrections returns a copy of the live correction set.
func (s *Session) Corrections() *model.CorrectionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.corrections.Clone()
}

// History returns the correction snapshots applied by completed re-estimates,
// oldest first. This is what lead submission reports.
func (s *Session) History() []model.CorrectionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CorrectionSet, len(s.history))
	copy(out, s.history)
	return out
}

// Reestimate runs the appraisal again with the current corrections attached.
// If a re-estimate is already running the call returns ErrReestimateInFlight
// immediately; the running loop notices the newer corrections and performs one
// more pass before settling. A completion whose request id is no longer the
// latest issued is discarded.
func (s *Session) Reestimate(ctx context.Context) (*model.Appraisal, error) {
	s.mu.Lock()
	if s.state == StateInitial {
		s.mu.Unlock()
		return nil, ErrNotEstimated
	}
	if s.corrections.Empty() {
		s.mu.Unlock()
		return nil, ErrNoCorrections
	}
	if s.busy {
		// Invalidate the in-flight request so its result (computed against
		// older corrections) is discarded, and queue one follow-up pass.
		s.seq++
		s.pending = true
		s.mu.Unlock()
		return nil, ErrReestimateInFlight
	}
	s.busy = true
	s.state = StateReestimating
	s.mu.Unlock()

	for {
		s.mu.Lock()
		s.seq++
		id := s.seq
		snapshot := s.corrections.Clone()
		s.pending = false
		s.mu.Unlock()

		a, err := s.runner.Run(ctx, Request{
			Images:      s.images,
			Corrections: snapshot.Serialize(),
		})

		s.mu.Lock()
		if err != nil {
			s.busy = false
			s.pending = false
			s.state = StateEstimated
			s.mu.Unlock()
			return nil, err
		}
		if id != s.seq {
			// A newer request was issued while this one ran; its result
			// supersedes ours.
			zap.L().Debug("discarding stale re-estimate result", zap.Uint64("id", id))
			s.mu.Unlock()
			continue
		}
		s.current = a
		s.history = append(s.history, *snapshot)
		if s.pending {
			s.mu.Unlock()
			continue
		}
		s.busy = false
		s.state = StateEstimated
		s.mu.Unlock()
		return a, nil
	}
}
