package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"exam-service/internal/flatten"
	"exam-service/internal/models"
	"exam-service/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// Identity is the authenticated student taking the attempt.
type Identity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ResultStore persists exactly one result per completed attempt.
type ResultStore interface {
	CreateResult(ctx context.Context, r *models.Result) (string, error)
}

// PresenceStore is the external liveness record of an in-progress attempt.
type PresenceStore interface {
	Touch(ctx context.Context, id string, at time.Time) error
	SetState(ctx context.Context, id string, state models.LiveState) error
}

// ExamSession owns every piece of one attempt's mutable state: the tracker,
// the countdown, the heartbeat and the submission latch. All operations are
// serialized through its mutex, so a render never observes a half-applied
// commit.
type ExamSession struct {
	ID           string
	User         Identity
	Exam         *models.ExamDefinition
	Units        []flatten.Unit
	LiveStatusID string

	results    ResultStore
	presence   PresenceStore
	log        *zap.Logger
	now        Clock
	onFinalize func(sessionID string)

	mu         sync.Mutex
	tracker    *Tracker
	countdown  *Countdown
	heartbeat  *Heartbeat
	submitting bool
	result     *models.Result
}

// Config carries the collaborators an ExamSession needs. TickInterval and
// HeartbeatInterval default to one second and one minute.
type Config struct {
	Exam         *models.ExamDefinition
	Units        []flatten.Unit
	User         Identity
	LiveStatusID string
	Results      ResultStore
	Presence     PresenceStore
	Log          *zap.Logger

	// OnFinalize runs once after the result is durably created, whether the
	// submit was manual or timeout-triggered. The registry hooks it to evict
	// the finished session.
	OnFinalize func(sessionID string)

	Clock             Clock
	TickInterval      time.Duration
	HeartbeatInterval time.Duration
}

// New builds the session, its tracker and its two scheduled tasks. Start
// must be called to launch the clocks.
func New(cfg Config) *ExamSession {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = time.Minute
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	s := &ExamSession{
		ID:           uuid.NewString(),
		User:         cfg.User,
		Exam:         cfg.Exam,
		Units:        cfg.Units,
		LiveStatusID: cfg.LiveStatusID,
		results:      cfg.Results,
		presence:     cfg.Presence,
		log:          cfg.Log,
		now:          cfg.Clock,
		onFinalize:   cfg.OnFinalize,
		tracker:      NewTracker(len(cfg.Units), cfg.Clock),
	}

	s.countdown = NewCountdown(cfg.Exam.DurationMinutes*60, cfg.TickInterval, s.expire)
	s.heartbeat = NewHeartbeat(cfg.HeartbeatInterval, s.beat)
	return s
}

// Start launches the countdown and, when a live-status record exists, the
// heartbeat.
func (s *ExamSession) Start() {
	s.countdown.Start()
	if s.LiveStatusID != "" {
		s.heartbeat.Start()
	}
}

// expire is the countdown's terminal callback: a graceful timeout submit,
// never a disqualification.
func (s *ExamSession) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.Submit(ctx, false); err != nil && !errors.Is(err, ErrSubmitInProgress) {
		s.log.Error("timeout submission failed",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
}

// beat reports liveness. Failures are swallowed: presence is best-effort.
func (s *ExamSession) beat(at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.presence.Touch(ctx, s.LiveStatusID, at); err != nil {
		s.log.Warn("heartbeat write failed",
			zap.String("session_id", s.ID),
			zap.Error(err))
	}
}

// GoTo navigates to target, charging elapsed time to the question being left.
func (s *ExamSession) GoTo(target int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.GoTo(target)
}

// Stage records a pending answer for index.
func (s *ExamSession) Stage(index int, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.Units) {
		return fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	u := &s.Units[index]
	if !u.Answerable() {
		return fmt.Errorf("question %d is defective: %s", index, u.Defect)
	}
	return s.tracker.Stage(index, u.Type, value)
}

// Commit commits the staged answer for index, optionally marking it for
// review.
func (s *ExamSession) Commit(index int, asReview bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.Units) {
		return fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	return s.tracker.Commit(index, s.Units[index].Type, asReview)
}

// Clear drops the staged and committed answer for index.
func (s *ExamSession) Clear(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Clear(index)
}

// Submitted reports whether the attempt has been finalized.
func (s *ExamSession) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result != nil
}

// Submit finalizes the attempt: it acquires the single-use latch, cancels
// the countdown and heartbeat before any scoring or persistence, scores the
// attempt and writes the result, and only after the result is durably
// created finalizes the live status. A persistence failure releases the
// latch so the caller can retry without losing answers. A second call after
// success returns the already-persisted result without writing again.
func (s *ExamSession) Submit(ctx context.Context, disqualified bool) (*models.Result, error) {
	s.mu.Lock()
	if s.result != nil {
		res := s.result
		s.mu.Unlock()
		return res, nil
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.submitting = true

	s.countdown.Cancel()
	s.heartbeat.Cancel()

	s.tracker.Finish()
	answers := s.tracker.Answers()
	timeSpent := s.tracker.TimeSpentSeconds()
	totalTime := s.tracker.TotalTimeSeconds()
	s.mu.Unlock()

	outcome := scoring.Evaluate(scoring.Input{
		Units:        s.Units,
		Answers:      answers,
		TimeSpent:    timeSpent,
		Disqualified: disqualified,
	})

	res := &models.Result{
		AttemptID:         s.ID,
		UserID:            s.User.UserID,
		Name:              s.User.Name,
		Email:             s.User.Email,
		ExamID:            s.Exam.ID,
		Score:             outcome.Score,
		PerQuestionDetail: outcome.Details,
		Answers:           rawAnswers(answers),
		TotalTimeSpent:    totalTime,
		Timestamp:         s.now(),
		Status:            outcome.Status,
	}

	id, err := s.results.CreateResult(ctx, res)
	if err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		return nil, fmt.Errorf("persist result: %w", err)
	}
	res.ID = id

	// The score-bearing result exists; only now may the presence record
	// report completion.
	if s.LiveStatusID != "" {
		state := models.LiveCompleted
		if disqualified {
			state = models.LiveDisqualified
		}
		if err := s.presence.SetState(ctx, s.LiveStatusID, state); err != nil {
			s.log.Warn("live status finalization failed",
				zap.String("session_id", s.ID),
				zap.Error(err))
		}
	}

	s.mu.Lock()
	s.result = res
	s.submitting = false
	s.mu.Unlock()

	if s.onFinalize != nil {
		s.onFinalize(s.ID)
	}
	return res, nil
}

// rawAnswers keys the committed answers by string for document persistence,
// matching the stored shape the aggregator normalizes back.
func rawAnswers(answers map[int]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(answers))
	for k, v := range answers {
		out[fmt.Sprintf("%d", k)] = v
	}
	return out
}
