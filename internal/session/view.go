package session

import (
	"exam-service/internal/flatten"
	"exam-service/internal/models"
)

// QuestionView is the render-ready projection of the displayed question.
// The correct answer never appears here; marks appear only when the exam's
// display options allow it.
type QuestionView struct {
	Index         int                 `json:"index"`
	ID            string              `json:"id"`
	Type          models.QuestionType `json:"type"`
	Text          string              `json:"text"`
	Image         string              `json:"image,omitempty"`
	Options       []models.Option     `json:"options,omitempty"`
	Rows          []string            `json:"rows,omitempty"`
	Columns       []string            `json:"columns,omitempty"`
	PositiveMarks *float64            `json:"positiveMarks,omitempty"`
	NegativeMarks *float64            `json:"negativeMarks,omitempty"`
	Section       *flatten.SectionRef `json:"section,omitempty"`
	Passage       string              `json:"passage,omitempty"`
	Defect        string              `json:"defect,omitempty"`
	Staged        interface{}         `json:"staged,omitempty"`
	Committed     interface{}         `json:"committed,omitempty"`
	Status        Status              `json:"status"`
}

// ViewModel is the plain-data snapshot an external presentation layer draws
// from: current question, full palette, progress counters and the clock.
type ViewModel struct {
	SessionID        string       `json:"sessionId"`
	ExamID           string       `json:"examId"`
	Title            string       `json:"title"`
	Total            int          `json:"total"`
	Answered         int          `json:"answered"`
	Question         QuestionView `json:"question"`
	Palette          []Status     `json:"palette"`
	RemainingSeconds int          `json:"remainingSeconds"`
	Submitted        bool         `json:"submitted"`
}

// View snapshots the session for rendering. The snapshot is taken under the
// session lock, so it never observes a half-applied commit.
func (s *ExamSession) View() ViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()

	vm := ViewModel{
		SessionID:        s.ID,
		ExamID:           s.Exam.ID,
		Title:            s.Exam.Title,
		Total:            len(s.Units),
		Palette:          s.tracker.Palette(),
		RemainingSeconds: s.countdown.Remaining(),
		Submitted:        s.result != nil,
	}
	for _, st := range vm.Palette {
		if st == StatusAnswered || st == StatusMarkedAnswered {
			vm.Answered++
		}
	}

	cur := s.tracker.Current()
	if cur >= 0 && cur < len(s.Units) {
		vm.Question = s.questionView(cur)
	}
	return vm
}

func (s *ExamSession) questionView(index int) QuestionView {
	u := &s.Units[index]
	qv := QuestionView{
		Index:     u.Index,
		ID:        u.ID,
		Type:      u.Type,
		Text:      u.Text,
		Image:     u.Image,
		Options:   u.Options,
		Rows:      u.Rows,
		Columns:   u.Columns,
		Section:   u.Section,
		Passage:   u.Passage,
		Defect:    u.Defect,
		Staged:    s.tracker.StagedAnswer(index, u.Type),
		Committed: s.tracker.Answer(index),
		Status:    s.tracker.StatusOf(index),
	}
	if s.Exam.DisplayOptions.ShowMarkingScheme {
		pos, neg := u.PositiveMarks, u.NegativeMarks
		qv.PositiveMarks = &pos
		qv.NegativeMarks = &neg
	}
	return qv
}
