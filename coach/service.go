package coach

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/lucasjlepore/ppi-coach/bucket"
	"github.com/lucasjlepore/ppi-coach/challenge"
	"github.com/lucasjlepore/ppi-coach/observe"
	"github.com/lucasjlepore/ppi-coach/runstore"
	"github.com/lucasjlepore/ppi-coach/score"
)

// Options configures a Service. Zero values fall back to the defaults.
type Options struct {
	PaceToleranceSec   float64
	ChallengeIncrement float64
	Logger             *slog.Logger
	// NewID mints challenge IDs; random UUIDs when nil.
	NewID func() string
	// Rand drives surprise challenges; seeded from the clock when nil.
	Rand *rand.Rand
}

// Service owns a runner's bucket history, the current challenge batch and
// one coaching session. Every mutating call is serialised and then
// publishes fresh snapshots, so observers never see a half-applied change.
type Service struct {
	mu         sync.Mutex
	logger     *slog.Logger
	history    *bucket.History
	generator  challenge.Generator
	rnd        *rand.Rand
	session    *Session
	challenges []challenge.Option

	Challenges *observe.Value[[]challenge.Option]
	Selected   *observe.Value[*challenge.Option]
	Session    *observe.Value[Snapshot]
	Stats      *observe.Value[[]bucket.Stats]
}

// NewService returns a Service with an empty history.
func NewService(opts Options) (*Service, error) {
	tolerance := opts.PaceToleranceSec
	if tolerance == 0 {
		tolerance = DefaultPaceTolerance
	}
	increment := opts.ChallengeIncrement
	if increment == 0 {
		increment = challenge.DefaultIncrement
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session, err := NewSession(tolerance)
	if err != nil {
		return nil, err
	}
	gen, err := challenge.NewGenerator(increment)
	if err != nil {
		return nil, err
	}
	if opts.NewID != nil {
		gen = gen.WithIDs(opts.NewID)
	}

	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // not crypto
	}

	history := bucket.NewHistory()
	return &Service{
		logger:     logger,
		history:    history,
		generator:  gen,
		rnd:        rnd,
		session:    session,
		Challenges: observe.NewValue[[]challenge.Option](nil),
		Selected:   observe.NewValue[*challenge.Option](nil),
		Session:    observe.NewValue(session.Snapshot()),
		Stats:      observe.NewValue(history.AllStats()),
	}, nil
}

// Seed replays every stored run started at or after sinceMs into the
// history and returns how many were recorded. Runs that cannot be scored,
// such as zero-distance manual entries, are skipped.
func (s *Service) Seed(src runstore.Lister, sinceMs int64) (int, error) {
	runs, err := src.ListSince(sinceMs)
	if err != nil {
		return 0, fmt.Errorf("seed history: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recorded := 0
	for _, r := range runs {
		if _, err := s.history.RecordSession(r.DistanceMeters, r.ElapsedSeconds); err != nil {
			s.logger.Warn("skipping run", "id", r.ID, "error", err)
			continue
		}
		recorded++
	}
	s.logger.Info("history seeded", "runs", len(runs), "recorded", recorded)
	s.Stats.Publish(s.history.AllStats())
	return recorded, nil
}

// RecordRun files one finished run under its bucket and returns its index.
func (s *Service) RecordRun(distanceMeters float64, durationSec int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.history.RecordSession(distanceMeters, durationSec)
	if err != nil {
		return 0, err
	}
	s.Stats.Publish(s.history.AllStats())
	return idx, nil
}

// GenerateChallenges replaces the current batch. A runner with no history
// gets the starter options instead.
func (s *Service) GenerateChallenges() ([]challenge.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts, err := s.generator.Generate(s.history)
	if err != nil {
		return nil, fmt.Errorf("generate challenges: %w", err)
	}
	if len(opts) == 0 {
		opts = challenge.Starter()
	}
	s.challenges = opts
	s.logger.Info("challenges generated", "count", len(opts))
	s.Challenges.Publish(copyOptions(opts))
	return copyOptions(opts), nil
}

// Surprise adds one randomly chosen challenge to the current batch so it can
// be selected by ID like any other option.
func (s *Service) Surprise() (challenge.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opt, err := s.generator.Surprise(s.history, s.rnd)
	if err != nil {
		return challenge.Option{}, fmt.Errorf("surprise challenge: %w", err)
	}
	s.challenges = append(copyOptions(s.challenges), opt)
	s.logger.Info("surprise challenge generated", "id", opt.ID, "bucket", opt.Bucket.String(), "expected_ppi", opt.ExpectedPPI)
	s.Challenges.Publish(copyOptions(s.challenges))
	return opt, nil
}

// SelectChallenge starts a new session around opt.
func (s *Service) SelectChallenge(opt challenge.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(opt)
}

// SelectByID selects an option from the current batch.
func (s *Service) SelectByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, opt := range s.challenges {
		if opt.ID == id {
			return s.selectLocked(opt)
		}
	}
	return fmt.Errorf("%w: no challenge %q in the current batch", score.ErrInvalidInput, id)
}

// SelectForBucket selects the current batch's option for b.
func (s *Service) SelectForBucket(b bucket.Bucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, opt := range s.challenges {
		if opt.Bucket == b {
			return s.selectLocked(opt)
		}
	}
	return fmt.Errorf("%w: no challenge for %s in the current batch", score.ErrInvalidInput, b)
}

func (s *Service) selectLocked(opt challenge.Option) error {
	if err := s.session.SelectChallenge(opt); err != nil {
		return err
	}
	s.logger.Info("challenge selected", "id", opt.ID, "bucket", opt.Bucket.String(), "target_pace", opt.TargetPace)
	selected := opt
	s.Selected.Publish(&selected)
	s.Session.Publish(s.session.Snapshot())
	return nil
}

// Update applies a telemetry tick and returns the resulting feedback.
func (s *Service) Update(distanceMeters float64, durationSec int64, currentPace float64) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.session.Update(distanceMeters, durationSec, currentPace); err != nil {
		return Feedback{}, err
	}
	s.Session.Publish(s.session.Snapshot())
	fb, _ := s.session.Feedback()
	return fb, nil
}

// Feedback returns live feedback; ok is false when no session is active.
func (s *Service) Feedback() (Feedback, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Feedback()
}

// Complete finishes the active session and records it into the history.
// It returns nil when there is nothing to complete.
func (s *Service) Complete() (*Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.session.Complete()
	if err != nil || result == nil {
		return nil, err
	}

	live := s.session.Snapshot().Live
	if _, err := s.history.RecordSession(live.DistanceMeters, live.DurationSec); err != nil {
		return nil, fmt.Errorf("record completed session: %w", err)
	}
	s.logger.Info("session completed",
		"ppi", result.PPI,
		"bucket", result.Bucket.String(),
		"achieved", result.Achieved,
		"distance_m", live.DistanceMeters,
		"duration_sec", live.DurationSec,
	)
	s.Session.Publish(s.session.Snapshot())
	s.Stats.Publish(s.history.AllStats())
	return result, nil
}

// Reset abandons the session.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Reset()
	s.Selected.Publish(nil)
	s.Session.Publish(s.session.Snapshot())
}

// State reports the session state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State()
}

// AllStats returns a copy of the history.
func (s *Service) AllStats() []bucket.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.AllStats()
}

func copyOptions(in []challenge.Option) []challenge.Option {
	if in == nil {
		return nil
	}
	out := make([]challenge.Option, len(in))
	copy(out, in)
	return out
}
