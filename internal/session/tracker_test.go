package session

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"exam-service/internal/models"
)

// fakeClock advances only when the test says so.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestTrackerTimeConservation(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(3, clock.Now)

	clock.Advance(10 * time.Second)
	if err := tr.GoTo(1); err != nil {
		t.Fatalf("GoTo(1): %v", err)
	}
	clock.Advance(25 * time.Second)
	if err := tr.GoTo(0); err != nil {
		t.Fatalf("GoTo(0): %v", err)
	}
	clock.Advance(5 * time.Second)
	if err := tr.GoTo(2); err != nil {
		t.Fatalf("GoTo(2): %v", err)
	}
	clock.Advance(20 * time.Second)
	tr.Finish()

	want := map[int]int{0: 15, 1: 25, 2: 20}
	if got := tr.TimeSpentSeconds(); !reflect.DeepEqual(got, want) {
		t.Errorf("TimeSpentSeconds() = %v, want %v", got, want)
	}
	if got := tr.TotalTimeSeconds(); got != 60 {
		t.Errorf("TotalTimeSeconds() = %d, want 60", got)
	}
}

func TestTrackerFinishIsReferenceAdvancing(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(1, clock.Now)

	clock.Advance(30 * time.Second)
	tr.Finish()
	tr.Finish()

	if got := tr.TotalTimeSeconds(); got != 30 {
		t.Errorf("TotalTimeSeconds() after double Finish = %d, want 30", got)
	}
}

func TestTrackerStatusTransitions(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(4, clock.Now)

	for i, want := range []Status{StatusNotAnswered, StatusNotVisited, StatusNotVisited, StatusNotVisited} {
		if got := tr.StatusOf(i); got != want {
			t.Fatalf("initial StatusOf(%d) = %q, want %q", i, got, want)
		}
	}

	// Visiting without answering.
	if err := tr.GoTo(1); err != nil {
		t.Fatalf("GoTo(1): %v", err)
	}
	if got := tr.StatusOf(1); got != StatusNotAnswered {
		t.Errorf("StatusOf(1) on arrival = %q, want %q", got, StatusNotAnswered)
	}

	// Commit with an answer.
	if err := tr.Stage(1, models.TypeSingle, 2); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := tr.Commit(1, models.TypeSingle, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := tr.StatusOf(1); got != StatusAnswered {
		t.Errorf("StatusOf(1) = %q, want %q", got, StatusAnswered)
	}

	// Mark for review with and without an answer.
	if err := tr.Commit(1, models.TypeSingle, true); err != nil {
		t.Fatalf("Commit review: %v", err)
	}
	if got := tr.StatusOf(1); got != StatusMarkedAnswered {
		t.Errorf("StatusOf(1) = %q, want %q", got, StatusMarkedAnswered)
	}
	if err := tr.Commit(2, models.TypeSingle, true); err != nil {
		t.Fatalf("Commit review empty: %v", err)
	}
	if got := tr.StatusOf(2); got != StatusMarked {
		t.Errorf("StatusOf(2) = %q, want %q", got, StatusMarked)
	}

	// Clearing resets to NOT_ANSWERED, never back to NOT_VISITED.
	if err := tr.Clear(1); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := tr.StatusOf(1); got != StatusNotAnswered {
		t.Errorf("StatusOf(1) after Clear = %q, want %q", got, StatusNotAnswered)
	}
	if tr.Answer(1) != nil {
		t.Error("Answer(1) after Clear should be nil")
	}
}

func TestTrackerTargetedQuestionIsSeen(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(4, clock.Now)

	// The initially displayed question is already seen.
	if got := tr.StatusOf(0); got != StatusNotAnswered {
		t.Errorf("StatusOf(0) = %q, want %q", got, StatusNotAnswered)
	}

	// Jumping promotes the target immediately, not on departure.
	if err := tr.GoTo(2); err != nil {
		t.Fatalf("GoTo(2): %v", err)
	}
	if got := tr.StatusOf(2); got != StatusNotAnswered {
		t.Errorf("StatusOf(2) after GoTo(2) = %q, want %q", got, StatusNotAnswered)
	}

	// Questions never targeted stay NOT_VISITED.
	for _, i := range []int{1, 3} {
		if got := tr.StatusOf(i); got != StatusNotVisited {
			t.Errorf("StatusOf(%d) = %q, want %q", i, got, StatusNotVisited)
		}
	}

	// Arrival never demotes a richer status.
	if err := tr.Stage(2, models.TypeSingle, 1); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := tr.Commit(2, models.TypeSingle, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := tr.GoTo(0); err != nil {
		t.Fatalf("GoTo(0): %v", err)
	}
	if err := tr.GoTo(2); err != nil {
		t.Fatalf("GoTo(2) again: %v", err)
	}
	if got := tr.StatusOf(2); got != StatusAnswered {
		t.Errorf("StatusOf(2) after revisit = %q, want %q", got, StatusAnswered)
	}
}

func TestTrackerMultiToggleAndEmptyCommit(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(1, clock.Now)

	for _, opt := range []int{2, 0, 2} { // 2 toggled off again
		if err := tr.Stage(0, models.TypeMulti, opt); err != nil {
			t.Fatalf("Stage(%d): %v", opt, err)
		}
	}
	if err := tr.Commit(0, models.TypeMulti, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got, want := tr.Answer(0), []int{0}; !reflect.DeepEqual(got, want) {
		t.Errorf("Answer(0) = %v, want %v", got, want)
	}

	// Toggling the last option off commits to absence, not an empty slice.
	if err := tr.Stage(0, models.TypeMulti, 0); err != nil {
		t.Fatalf("Stage toggle off: %v", err)
	}
	if err := tr.Commit(0, models.TypeMulti, false); err != nil {
		t.Fatalf("Commit empty: %v", err)
	}
	if got := tr.Answer(0); got != nil {
		t.Errorf("Answer(0) after empty commit = %v, want nil", got)
	}
	if got := tr.StatusOf(0); got != StatusNotAnswered {
		t.Errorf("StatusOf(0) after empty commit = %q, want %q", got, StatusNotAnswered)
	}
}

func TestTrackerMatrixRoundTrip(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(1, clock.Now)

	cells := []MatrixCell{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 0, Col: 0}}
	for _, c := range cells {
		if err := tr.Stage(0, models.TypeMatrix, c); err != nil {
			t.Fatalf("Stage(%v): %v", c, err)
		}
	}
	// Toggle one back off.
	if err := tr.Stage(0, models.TypeMatrix, MatrixCell{Row: 0, Col: 0}); err != nil {
		t.Fatalf("Stage toggle: %v", err)
	}
	if err := tr.Commit(0, models.TypeMatrix, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	want := map[int][]int{0: {1}, 1: {0}}
	if got := tr.Answer(0); !reflect.DeepEqual(got, want) {
		t.Errorf("Answer(0) = %v, want %v", got, want)
	}
}

func TestTrackerNumericStaging(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(2, clock.Now)

	if err := tr.Stage(0, models.TypeInteger, "  42 "); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := tr.Commit(0, models.TypeInteger, false); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := tr.Answer(0); got != "42" {
		t.Errorf("Answer(0) = %v, want \"42\"", got)
	}

	// A blanked field commits to absence.
	if err := tr.Stage(0, models.TypeInteger, "   "); err != nil {
		t.Fatalf("Stage blank: %v", err)
	}
	if err := tr.Commit(0, models.TypeInteger, false); err != nil {
		t.Fatalf("Commit blank: %v", err)
	}
	if got := tr.Answer(0); got != nil {
		t.Errorf("Answer(0) after blank commit = %v, want nil", got)
	}
}

func TestTrackerIndexRange(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(2, clock.Now)

	if err := tr.GoTo(2); !errors.Is(err, ErrIndexRange) {
		t.Errorf("GoTo(2) err = %v, want ErrIndexRange", err)
	}
	if err := tr.GoTo(-1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("GoTo(-1) err = %v, want ErrIndexRange", err)
	}
	if err := tr.Stage(5, models.TypeSingle, 1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Stage(5) err = %v, want ErrIndexRange", err)
	}
	if err := tr.Commit(5, models.TypeSingle, false); !errors.Is(err, ErrIndexRange) {
		t.Errorf("Commit(5) err = %v, want ErrIndexRange", err)
	}
}
