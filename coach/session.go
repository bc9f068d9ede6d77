// Package coach runs a live "beat your own best" session against a selected
// challenge and owns the history the challenges are derived from.
package coach

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/challenge"
	"github.com/lucasjlepore/ppi-coach/score"
)

// DefaultPaceTolerance is the half-width, in seconds per km, of the on-target
// pace band.
const DefaultPaceTolerance = 5.0

// ErrInvalidState is returned when an operation is not allowed in the
// session's current state.
var ErrInvalidState = errors.New("invalid state")

// State is a session's position in its lifecycle.
type State int

const (
	Idle State = iota
	ChallengeSelected
	Active
	Completed
)

var stateNames = [...]string{"idle", "challenge_selected", "active", "completed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PaceZone classifies the current pace against the target.
type PaceZone int

const (
	OnTarget PaceZone = iota
	TooFast
	TooSlow
)

func (z PaceZone) String() string {
	switch z {
	case TooFast:
		return "too_fast"
	case TooSlow:
		return "too_slow"
	default:
		return "on_target"
	}
}

func (z PaceZone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// Live is the latest telemetry of an active session.
type Live struct {
	DistanceMeters float64 `json:"distance_m"`
	DurationSec    int64   `json:"duration_sec"`
	CurrentPace    float64 `json:"current_pace_sec_per_km"`
}

// Feedback is derived from Live and the selected challenge on every query.
type Feedback struct {
	CurrentPace     float64  `json:"current_pace_sec_per_km"`
	TargetPace      float64  `json:"target_pace_sec_per_km"`
	PaceDifference  float64  `json:"pace_difference_sec_per_km"`
	Zone            PaceZone `json:"pace_zone"`
	ProgressPercent float64  `json:"progress_percent"`
}

// Score is produced once, when a session completes.
type Score struct {
	PPI            float64       `json:"ppi"`
	Bucket         bucket.Bucket `json:"bucket"`
	TargetPace     *float64      `json:"target_pace_sec_per_km,omitempty"`
	TargetDuration *int64        `json:"target_duration_sec,omitempty"`
	Achieved       bool          `json:"achieved"`
}

// Snapshot is an immutable copy of a session.
type Snapshot struct {
	State     State             `json:"state"`
	Challenge *challenge.Option `json:"challenge,omitempty"`
	Live      Live              `json:"live"`
	Score     *Score            `json:"score,omitempty"`
}

// Session is the coaching state machine. It has a single owner and is not
// safe for concurrent use; Service serialises access to one.
type Session struct {
	tolerance float64

	state     State
	challenge *challenge.Option
	live      Live
	score     *Score
}

// NewSession returns an idle session. toleranceSec must be finite and not
// negative.
func NewSession(toleranceSec float64) (*Session, error) {
	if math.IsNaN(toleranceSec) || math.IsInf(toleranceSec, 0) || toleranceSec < 0 {
		return nil, fmt.Errorf("%w: pace tolerance must be >= 0, got %v", score.ErrInvalidInput, toleranceSec)
	}
	return &Session{tolerance: toleranceSec}, nil
}

// State reports the current state.
func (s *Session) State() State {
	return s.state
}

// Tolerance reports the on-target band half-width in seconds per km.
func (s *Session) Tolerance() float64 {
	return s.tolerance
}

// SelectChallenge stores opt and moves to ChallengeSelected. Re-selection
// before the first update is allowed; a completed session is cleared first.
func (s *Session) SelectChallenge(opt challenge.Option) error {
	if s.state == Active {
		return fmt.Errorf("%w: cannot select a challenge while a session is active", ErrInvalidState)
	}
	s.clear()
	s.challenge = &opt
	s.state = ChallengeSelected
	return nil
}

// Update applies one telemetry tick. The first tick after selection starts
// the session. Distance and duration never go backwards: a regression, or a
// non-finite reading, keeps the previous value. A pace of zero or less means
// the device has no reading (the runner is standing still) and keeps the
// previous pace.
func (s *Session) Update(distanceMeters float64, durationSec int64, currentPace float64) error {
	switch s.state {
	case ChallengeSelected:
		s.state = Active
	case Active:
	default:
		return fmt.Errorf("%w: update needs a selected challenge (state %s)", ErrInvalidState, s.state)
	}

	live := s.live
	if isFinite(distanceMeters) && distanceMeters > live.DistanceMeters {
		live.DistanceMeters = distanceMeters
	}
	if durationSec > live.DurationSec {
		live.DurationSec = durationSec
	}
	if isFinite(currentPace) && currentPace > 0 {
		live.CurrentPace = currentPace
	}
	s.live = live
	return nil
}

// Feedback compares the live pace with the challenge. ok is false unless the
// session is active.
func (s *Session) Feedback() (fb Feedback, ok bool) {
	if s.state != Active || s.challenge == nil {
		return Feedback{}, false
	}
	target := s.challenge.TargetPace

	// Without a pace reading yet there is nothing to compare.
	var diff float64
	zone := OnTarget
	if s.live.CurrentPace > 0 {
		diff = s.live.CurrentPace - target
		// Exactly one tolerance ahead of target already counts as too fast.
		switch {
		case diff <= -s.tolerance:
			zone = TooFast
		case diff > s.tolerance:
			zone = TooSlow
		}
	}

	var progress float64
	if s.challenge.TargetDistance > 0 {
		progress = clamp(100*s.live.DistanceMeters/s.challenge.TargetDistance, 0, 100)
	}

	return Feedback{
		CurrentPace:     s.live.CurrentPace,
		TargetPace:      target,
		PaceDifference:  diff,
		Zone:            zone,
		ProgressPercent: progress,
	}, true
}

// Complete scores the session and moves to Completed. It returns nil when
// there is no active session. If the final distance or duration cannot be
// scored the session stays active and the error wraps score.ErrInvalidInput.
func (s *Session) Complete() (*Score, error) {
	if s.state != Active {
		return nil, nil
	}
	ppi, err := score.PerformanceIndex(s.live.DistanceMeters, s.live.DurationSec)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	pace := s.challenge.TargetPace
	duration := s.challenge.TargetDuration
	result := &Score{
		PPI:            ppi,
		Bucket:         s.challenge.Bucket,
		TargetPace:     &pace,
		TargetDuration: &duration,
		Achieved:       ppi >= s.challenge.ExpectedPPI,
	}
	s.score = result
	s.state = Completed

	out := *result
	return &out, nil
}

// Reset abandons whatever is in progress and returns to Idle.
func (s *Session) Reset() {
	s.clear()
}

// Snapshot copies the session. The copy shares nothing with the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{State: s.state, Live: s.live}
	if s.challenge != nil {
		c := *s.challenge
		snap.Challenge = &c
	}
	if s.score != nil {
		sc := *s.score
		if sc.TargetPace != nil {
			p := *sc.TargetPace
			sc.TargetPace = &p
		}
		if sc.TargetDuration != nil {
			d := *sc.TargetDuration
			sc.TargetDuration = &d
		}
		snap.Score = &sc
	}
	return snap
}

func (s *Session) clear() {
	s.state = Idle
	s.challenge = nil
	s.live = Live{}
	s.score = nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
