package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exam-service/internal/flatten"
	"exam-service/internal/models"
	"exam-service/internal/repository"
	"exam-service/internal/session"

	"go.uber.org/zap"
)

// ResultStore extends the session-facing writer with the attempt-count query
// the eligibility guard needs.
type ResultStore interface {
	session.ResultStore
	CountByUserAndExam(ctx context.Context, userID, examID string) (int64, error)
}

// PresenceStore extends the session-facing presence writer with registration.
type PresenceStore interface {
	session.PresenceStore
	Create(ctx context.Context, status *models.LiveStatus) (string, error)
}

// AttemptService drives the attempt lifecycle: eligibility, start,
// navigation, answer commits and submission.
type AttemptService struct {
	exams    ExamReader
	results  ResultStore
	presence PresenceStore
	sessions *session.Store
	log      *zap.Logger

	clock             session.Clock
	tickInterval      time.Duration
	heartbeatInterval time.Duration
}

func NewAttemptService(exams ExamReader, results ResultStore, presence PresenceStore, log *zap.Logger) *AttemptService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AttemptService{
		exams:    exams,
		results:  results,
		presence: presence,
		sessions: session.NewStore(),
		log:      log,
	}
}

// Start begins an attempt: it re-checks eligibility against persisted
// results (the authoritative guard, since a dashboard check may have raced a
// concurrent tab), flattens the exam, registers the presence record, and
// launches the countdown and heartbeat. Returns the user's existing live
// session instead of creating a second one.
func (svc *AttemptService) Start(ctx context.Context, examID string, user session.Identity) (*session.ExamSession, error) {
	if live, ok := svc.sessions.ActiveFor(user.UserID, examID); ok {
		return live, nil
	}

	exam, err := svc.exams.FindByID(ctx, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch exam %s: %w", examID, err)
	}

	now := svc.now()
	if !exam.OpenAt(now) {
		return nil, ErrExamClosed
	}

	count, err := svc.results.CountByUserAndExam(ctx, user.UserID, examID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if exam.AttemptsAllowed > 0 && count >= int64(exam.AttemptsAllowed) {
		return nil, ErrAttemptLimit
	}

	units := flatten.Flatten(exam)
	if len(units) == 0 {
		return nil, fmt.Errorf("exam %s has no questions", examID)
	}

	liveID, err := svc.presence.Create(ctx, &models.LiveStatus{
		UserID:     user.UserID,
		Name:       user.Name,
		Email:      user.Email,
		ExamID:     examID,
		Status:     models.LiveTakingExam,
		LastActive: now,
	})
	if err != nil {
		// Liveness is best-effort: the attempt proceeds without a
		// presence record, but the failure is reported.
		svc.log.Warn("live status registration failed",
			zap.String("exam_id", examID),
			zap.String("user_id", user.UserID),
			zap.Error(err))
		liveID = ""
	}

	s := session.New(session.Config{
		Exam:              exam,
		Units:             units,
		User:              user,
		LiveStatusID:      liveID,
		Results:           svc.results,
		Presence:          svc.presence,
		Log:               svc.log,
		OnFinalize:        svc.sessions.Remove,
		Clock:             svc.clock,
		TickInterval:      svc.tickInterval,
		HeartbeatInterval: svc.heartbeatInterval,
	})
	svc.sessions.Add(s)
	s.Start()

	svc.log.Info("attempt started",
		zap.String("session_id", s.ID),
		zap.String("exam_id", examID),
		zap.String("user_id", user.UserID),
		zap.Int("questions", len(units)))
	return s, nil
}

// Session resolves a live session by id.
func (svc *AttemptService) Session(id string) (*session.ExamSession, error) {
	return svc.sessions.Get(id)
}

// GoTo navigates a session to the target question.
func (svc *AttemptService) GoTo(sessionID string, target int) error {
	s, err := svc.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return s.GoTo(target)
}

// Stage records a pending answer. MATRIX cells arrive from JSON as
// {"row": r, "col": c} objects and are converted before staging.
func (svc *AttemptService) Stage(sessionID string, index int, value interface{}) error {
	s, err := svc.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return s.Stage(index, coerceCell(value))
}

// Commit commits the staged answer, optionally marking it for review.
func (svc *AttemptService) Commit(sessionID string, index int, asReview bool) error {
	s, err := svc.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return s.Commit(index, asReview)
}

// Clear drops the staged and committed answer.
func (svc *AttemptService) Clear(sessionID string, index int) error {
	s, err := svc.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	return s.Clear(index)
}

// Submit finalizes the attempt. The session's finalize hook drops it from
// the registry, whether submission was manual or timeout-triggered.
// Persistence failures leave the session intact for retry.
func (svc *AttemptService) Submit(ctx context.Context, sessionID string, disqualified bool) (*models.Result, error) {
	s, err := svc.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, disqualified)
}

func (svc *AttemptService) now() time.Time {
	if svc.clock != nil {
		return svc.clock()
	}
	return time.Now()
}

// coerceCell turns a decoded {"row": r, "col": c} object into a MatrixCell;
// other values pass through untouched.
func coerceCell(value interface{}) interface{} {
	m, ok := value.(map[string]interface{})
	if !ok {
		return value
	}
	row, rok := m["row"].(float64)
	col, cok := m["col"].(float64)
	if !rok || !cok {
		return value
	}
	return session.MatrixCell{Row: int(row), Col: int(col)}
}
