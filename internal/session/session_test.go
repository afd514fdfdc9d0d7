package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"exam-service/internal/flatten"
	"exam-service/internal/models"
)

type fakeResultStore struct {
	mu      sync.Mutex
	created []*models.Result
	failGet int // fail the next n calls
}

func (f *fakeResultStore) CreateResult(_ context.Context, r *models.Result) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet > 0 {
		f.failGet--
		return "", errors.New("write concern error")
	}
	f.created = append(f.created, r)
	return "res-1", nil
}

func (f *fakeResultStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakePresenceStore struct {
	mu      sync.Mutex
	touches []time.Time
	states  []models.LiveState
}

func (f *fakePresenceStore) Touch(_ context.Context, _ string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches = append(f.touches, at)
	return nil
}

func (f *fakePresenceStore) SetState(_ context.Context, _ string, state models.LiveState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return nil
}

func (f *fakePresenceStore) stateLog() []models.LiveState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LiveState, len(f.states))
	copy(out, f.states)
	return out
}

func twoQuestionUnits() []flatten.Unit {
	return []flatten.Unit{
		{
			Index:         0,
			ID:            "q0.0",
			Type:          models.TypeSingle,
			Text:          "Capital of France?",
			Options:       []models.Option{{Text: "Paris"}, {Text: "Lyon"}},
			Correct:       0,
			PositiveMarks: 4,
			NegativeMarks: 1,
		},
		{
			Index:         1,
			ID:            "q1.0",
			Type:          models.TypeInteger,
			Text:          "2 + 2?",
			Correct:       "4",
			PositiveMarks: 4,
			NegativeMarks: 1,
		},
	}
}

func newTestSession(results ResultStore, presence PresenceStore, clock Clock) *ExamSession {
	return New(Config{
		Exam: &models.ExamDefinition{
			ID:              "exam-1",
			Title:           "Unit Test Exam",
			DurationMinutes: 60,
		},
		Units:        twoQuestionUnits(),
		User:         Identity{UserID: "u1", Name: "Asha", Email: "asha@example.com"},
		LiveStatusID: "live-1",
		Results:      results,
		Presence:     presence,
		Clock:        clock,
	})
}

func TestSubmitPersistsOnceAndFinalizesPresence(t *testing.T) {
	results := &fakeResultStore{}
	presence := &fakePresenceStore{}
	clock := newFakeClock()
	s := newTestSession(results, presence, clock.Now)

	if err := s.Stage(0, 0); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := s.Commit(0, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	clock.Advance(90 * time.Second)

	res, err := s.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 4 {
		t.Errorf("Score = %v, want 4", res.Score)
	}
	if res.Status != models.ResultCompleted {
		t.Errorf("Status = %q, want %q", res.Status, models.ResultCompleted)
	}
	if res.TotalTimeSpent != 90 {
		t.Errorf("TotalTimeSpent = %d, want 90", res.TotalTimeSpent)
	}
	if res.ID != "res-1" {
		t.Errorf("ID = %q, want res-1", res.ID)
	}
	if results.count() != 1 {
		t.Fatalf("CreateResult called %d times, want 1", results.count())
	}
	if got := presence.stateLog(); len(got) != 1 || got[0] != models.LiveCompleted {
		t.Errorf("presence states = %v, want [COMPLETED]", got)
	}

	// Second submit returns the stored result without writing again.
	again, err := s.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if again != res {
		t.Error("second Submit returned a different result")
	}
	if results.count() != 1 {
		t.Errorf("CreateResult called %d times after resubmit, want 1", results.count())
	}
	if !s.Submitted() {
		t.Error("Submitted() = false after successful submit")
	}
}

func TestSubmitRetryableAfterPersistenceFailure(t *testing.T) {
	results := &fakeResultStore{failGet: 1}
	presence := &fakePresenceStore{}
	clock := newFakeClock()
	s := newTestSession(results, presence, clock.Now)

	if _, err := s.Submit(context.Background(), false); err == nil {
		t.Fatal("Submit should fail when persistence fails")
	}
	if s.Submitted() {
		t.Fatal("Submitted() = true after failed submit")
	}
	if got := presence.stateLog(); len(got) != 0 {
		t.Fatalf("presence finalized before result persisted: %v", got)
	}

	// The latch is released; a retry succeeds.
	res, err := s.Submit(context.Background(), false)
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if res == nil || results.count() != 1 {
		t.Fatalf("retry persisted %d results, want 1", results.count())
	}
}

func TestSubmitDisqualifiedOverridesScore(t *testing.T) {
	results := &fakeResultStore{}
	presence := &fakePresenceStore{}
	clock := newFakeClock()
	s := newTestSession(results, presence, clock.Now)

	if err := s.Stage(0, 0); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := s.Commit(0, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	res, err := s.Submit(context.Background(), true)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != -10 {
		t.Errorf("Score = %v, want -10", res.Score)
	}
	if res.Status != models.ResultDisqualified {
		t.Errorf("Status = %q, want %q", res.Status, models.ResultDisqualified)
	}
	// Detail survives the override.
	if len(res.PerQuestionDetail) != 2 || !res.PerQuestionDetail[0].IsCorrect {
		t.Errorf("PerQuestionDetail = %+v, want detail with q0 correct", res.PerQuestionDetail)
	}
	if got := presence.stateLog(); len(got) != 1 || got[0] != models.LiveDisqualified {
		t.Errorf("presence states = %v, want [DISQUALIFIED]", got)
	}
}

func TestSubmitRunsFinalizeHookOnce(t *testing.T) {
	results := &fakeResultStore{failGet: 1}
	clock := newFakeClock()
	var finalized []string
	s := New(Config{
		Exam:       &models.ExamDefinition{ID: "exam-1", DurationMinutes: 10},
		Units:      twoQuestionUnits(),
		User:       Identity{UserID: "u1"},
		Results:    results,
		OnFinalize: func(id string) { finalized = append(finalized, id) },
		Clock:      clock.Now,
	})

	// A failed persist must not finalize.
	if _, err := s.Submit(context.Background(), false); err == nil {
		t.Fatal("Submit should fail when persistence fails")
	}
	if len(finalized) != 0 {
		t.Fatalf("finalize hook ran after failed persist: %v", finalized)
	}

	if _, err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	// A replayed submit must not finalize again.
	if _, err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("replay Submit: %v", err)
	}
	if len(finalized) != 1 || finalized[0] != s.ID {
		t.Errorf("finalize hook calls = %v, want exactly [%s]", finalized, s.ID)
	}
}

func TestConcurrentSubmitSingleWrite(t *testing.T) {
	results := &fakeResultStore{}
	presence := &fakePresenceStore{}
	clock := newFakeClock()
	s := newTestSession(results, presence, clock.Now)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Submit(context.Background(), false)
		}(i)
	}
	wg.Wait()

	if results.count() != 1 {
		t.Errorf("CreateResult called %d times, want 1", results.count())
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrSubmitInProgress) {
			t.Errorf("unexpected submit error: %v", err)
		}
	}
}

func TestStageRejectsDefectiveUnit(t *testing.T) {
	units := twoQuestionUnits()
	units[1].Defect = "MATRIX question missing rows or columns"
	s := New(Config{
		Exam:    &models.ExamDefinition{ID: "exam-1", DurationMinutes: 10},
		Units:   units,
		User:    Identity{UserID: "u1"},
		Results: &fakeResultStore{},
	})

	if err := s.Stage(1, "4"); err == nil {
		t.Error("Stage on a defective unit should fail")
	}
	if err := s.Stage(0, 1); err != nil {
		t.Errorf("Stage on a healthy unit: %v", err)
	}
}

func TestStoreActiveFor(t *testing.T) {
	st := NewStore()
	results := &fakeResultStore{}
	clock := newFakeClock()
	s := newTestSession(results, &fakePresenceStore{}, clock.Now)
	st.Add(s)

	got, ok := st.ActiveFor("u1", "exam-1")
	if !ok || got.ID != s.ID {
		t.Fatalf("ActiveFor = (%v, %v), want the live session", got, ok)
	}
	if _, ok := st.ActiveFor("u2", "exam-1"); ok {
		t.Error("ActiveFor matched the wrong user")
	}

	if _, err := s.Submit(context.Background(), false); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := st.ActiveFor("u1", "exam-1"); ok {
		t.Error("ActiveFor returned a submitted session")
	}

	st.Remove(s.ID)
	if _, err := st.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Remove err = %v, want ErrSessionNotFound", err)
	}
}
