// Package session holds the in-memory state of one exam attempt: the
// per-question answer/status/time tracker, the countdown timer, the liveness
// heartbeat and the submission latch. All state is owned by an ExamSession
// passed explicitly to every operation; there are no package-level singletons.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"exam-service/internal/models"
)

// Status is the palette state of one flattened question.
type Status string

const (
	StatusNotVisited     Status = "NOT_VISITED"
	StatusNotAnswered    Status = "NOT_ANSWERED"
	StatusAnswered       Status = "ANSWERED"
	StatusMarked         Status = "MARKED"
	StatusMarkedAnswered Status = "MARKED_ANSWERED"
)

// Clock supplies the current instant. Injected so tests can drive time.
type Clock func() time.Time

// MatrixCell is one (row, column) selection of a MATRIX answer.
type MatrixCell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

var ErrIndexRange = errors.New("question index out of range")

// Tracker records answers, palette status and accumulated time per flattened
// question index. Staged values live separately from committed answers: a
// selection only counts once it is committed. Time buckets accrue against a
// single navigation reference instant so revisits never lose or double-count
// time.
type Tracker struct {
	now       Clock
	status    []Status
	timeSpent []time.Duration
	answers   map[int]interface{}

	stagedScalar map[int]interface{}
	stagedSet    map[int]map[int]bool
	stagedMatrix map[int]map[MatrixCell]bool

	current int
	lastNav time.Time
}

// NewTracker initializes tracking for n questions with the first question
// displayed. Must be called exactly once per attempt.
func NewTracker(n int, now Clock) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{
		now:          now,
		status:       make([]Status, n),
		timeSpent:    make([]time.Duration, n),
		answers:      make(map[int]interface{}),
		stagedScalar: make(map[int]interface{}),
		stagedSet:    make(map[int]map[int]bool),
		stagedMatrix: make(map[int]map[MatrixCell]bool),
		lastNav:      now(),
	}
	for i := range t.status {
		t.status[i] = StatusNotVisited
	}
	// The first question is displayed from the start, so it counts as seen.
	if n > 0 {
		t.status[0] = StatusNotAnswered
	}
	return t
}

func (t *Tracker) check(index int) error {
	if index < 0 || index >= len(t.status) {
		return fmt.Errorf("%w: %d", ErrIndexRange, index)
	}
	return nil
}

// accrue folds the wall-clock time since the last navigation event into the
// currently displayed question's bucket and advances the reference instant.
func (t *Tracker) accrue() {
	now := t.now()
	if delta := now.Sub(t.lastNav); delta > 0 && t.current < len(t.timeSpent) {
		t.timeSpent[t.current] += delta
	}
	t.lastNav = now
}

// GoTo makes target the displayed question, charging the elapsed time to the
// question being left. A question counts as seen the moment it is targeted,
// so arrival promotes it out of NOT_VISITED.
func (t *Tracker) GoTo(target int) error {
	if err := t.check(target); err != nil {
		return err
	}
	t.accrue()
	t.current = target
	if t.status[target] == StatusNotVisited {
		t.status[target] = StatusNotAnswered
	}
	return nil
}

// Finish closes the last open time bucket. Called once on submit or timeout.
func (t *Tracker) Finish() {
	t.accrue()
}

// Stage records a pending answer for index without committing status.
// Staging is type-specific: SINGLE replaces the scalar, INTEGER/NUMERICAL
// replace the scalar with empty-string normalizing to unanswered, MULTI
// toggles option membership, MATRIX toggles a (row, col) cell.
func (t *Tracker) Stage(index int, qt models.QuestionType, value interface{}) error {
	if err := t.check(index); err != nil {
		return err
	}
	switch qt {
	case models.TypeSingle:
		if value == nil {
			delete(t.stagedScalar, index)
			return nil
		}
		t.stagedScalar[index] = value
	case models.TypeInteger, models.TypeNumerical:
		s, ok := value.(string)
		if !ok && value != nil {
			s = fmt.Sprintf("%v", value)
		}
		if strings.TrimSpace(s) == "" {
			delete(t.stagedScalar, index)
			return nil
		}
		t.stagedScalar[index] = strings.TrimSpace(s)
	case models.TypeMulti:
		opt, err := asInt(value)
		if err != nil {
			return fmt.Errorf("multi answer: %w", err)
		}
		set := t.stagedSet[index]
		if set == nil {
			set = make(map[int]bool)
			t.stagedSet[index] = set
		}
		if set[opt] {
			delete(set, opt)
		} else {
			set[opt] = true
		}
	case models.TypeMatrix:
		cell, ok := value.(MatrixCell)
		if !ok {
			return fmt.Errorf("matrix answer requires a (row, col) cell, got %T", value)
		}
		cells := t.stagedMatrix[index]
		if cells == nil {
			cells = make(map[MatrixCell]bool)
			t.stagedMatrix[index] = cells
		}
		if cells[cell] {
			delete(cells, cell)
		} else {
			cells[cell] = true
		}
	default:
		return fmt.Errorf("cannot stage answer for question type %q", qt)
	}
	return nil
}

// Commit copies the staged value for index into the committed answers and
// derives the palette status from the answered predicate and the review flag.
// Empty MULTI/MATRIX selections commit to absence, never to an empty
// collection, so scoring's unanswered check stays uniform.
func (t *Tracker) Commit(index int, qt models.QuestionType, asReview bool) error {
	if err := t.check(index); err != nil {
		return err
	}
	value := t.snapshotStaged(index, qt)
	answered := value != nil
	if answered {
		t.answers[index] = value
	} else {
		delete(t.answers, index)
	}

	switch {
	case asReview && answered:
		t.status[index] = StatusMarkedAnswered
	case asReview:
		t.status[index] = StatusMarked
	case answered:
		t.status[index] = StatusAnswered
	default:
		t.status[index] = StatusNotAnswered
	}
	return nil
}

// Clear drops both the staged and committed answer for index.
func (t *Tracker) Clear(index int) error {
	if err := t.check(index); err != nil {
		return err
	}
	delete(t.stagedScalar, index)
	delete(t.stagedSet, index)
	delete(t.stagedMatrix, index)
	delete(t.answers, index)
	t.status[index] = StatusNotAnswered
	return nil
}

// snapshotStaged converts the staged working value into its committed shape:
// scalars as-is, MULTI as a sorted option slice, MATRIX as row -> sorted
// columns. Returns nil when the staged value is empty.
func (t *Tracker) snapshotStaged(index int, qt models.QuestionType) interface{} {
	switch qt {
	case models.TypeMulti:
		set := t.stagedSet[index]
		if len(set) == 0 {
			return nil
		}
		return sortedKeys(set)
	case models.TypeMatrix:
		cells := t.stagedMatrix[index]
		if len(cells) == 0 {
			return nil
		}
		rows := make(map[int][]int)
		for cell := range cells {
			rows[cell.Row] = append(rows[cell.Row], cell.Col)
		}
		for r := range rows {
			sort.Ints(rows[r])
		}
		return rows
	default:
		v, ok := t.stagedScalar[index]
		if !ok {
			return nil
		}
		return v
	}
}

// StagedAnswer exposes the committed-shape staged value for rendering.
func (t *Tracker) StagedAnswer(index int, qt models.QuestionType) interface{} {
	return t.snapshotStaged(index, qt)
}

// Answer returns the committed answer for index, nil when unanswered.
func (t *Tracker) Answer(index int) interface{} {
	return t.answers[index]
}

// Answers returns a copy of the committed answer map.
func (t *Tracker) Answers() map[int]interface{} {
	out := make(map[int]interface{}, len(t.answers))
	for k, v := range t.answers {
		out[k] = v
	}
	return out
}

// Palette returns a copy of every question's status.
func (t *Tracker) Palette() []Status {
	out := make([]Status, len(t.status))
	copy(out, t.status)
	return out
}

// StatusOf returns the palette status for index.
func (t *Tracker) StatusOf(index int) Status {
	if index < 0 || index >= len(t.status) {
		return StatusNotVisited
	}
	return t.status[index]
}

// Current returns the displayed question index.
func (t *Tracker) Current() int { return t.current }

// TimeSpentSeconds returns accumulated whole seconds per question index.
func (t *Tracker) TimeSpentSeconds() map[int]int {
	out := make(map[int]int, len(t.timeSpent))
	for i, d := range t.timeSpent {
		if d > 0 {
			out[i] = int(d / time.Second)
		}
	}
	return out
}

// TotalTimeSeconds returns the sum of all per-question buckets.
func (t *Tracker) TotalTimeSeconds() int {
	var total time.Duration
	for _, d := range t.timeSpent {
		total += d
	}
	return int(total / time.Second)
}

func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected option index, got %T", v)
	}
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
