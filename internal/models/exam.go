package models

import "time"

type ResultMode string

const (
	ModeAnalysis ResultMode = "ANALYSIS"
	ModeResult   ResultMode = "RESULT"
)

type DisplayOptions struct {
	ShowMarkingScheme  bool `bson:"showMarkingScheme" json:"showMarkingScheme"`
	ShowRank           bool `bson:"showRank" json:"showRank"`
	ShowFinalMarks     bool `bson:"showFinalMarks" json:"showFinalMarks"`
	ShowCorrectAnswers bool `bson:"showCorrectAnswers" json:"showCorrectAnswers"`
}

type Section struct {
	Title       string         `bson:"title" json:"title"`
	Instruction string         `bson:"instruction,omitempty" json:"instruction,omitempty"`
	Questions   []QuestionNode `bson:"questions" json:"questions"`
}

// ExamDefinition is one document of the "tests" collection. The question
// source is either Questions (flat, possibly passage-nested) or Sections;
// Sections wins when both are present. The document is read once at attempt
// start and treated as immutable for the attempt's duration.
type ExamDefinition struct {
	ID              string         `bson:"_id,omitempty" json:"id"`
	Title           string         `bson:"title" json:"title"`
	DurationMinutes int            `bson:"duration" json:"duration"`
	AttemptsAllowed int            `bson:"attemptsAllowed" json:"attemptsAllowed"`
	StartTime       time.Time      `bson:"startTime,omitempty" json:"startTime,omitempty"`
	EndTime         time.Time      `bson:"endTime,omitempty" json:"endTime,omitempty"`
	Questions       []QuestionNode `bson:"questions,omitempty" json:"questions,omitempty"`
	Sections        []Section      `bson:"sections,omitempty" json:"sections,omitempty"`
	DisplayOptions  DisplayOptions `bson:"displayOptions" json:"displayOptions"`
	ResultMode      ResultMode     `bson:"resultMode" json:"resultMode"`
	ResultsReleased bool           `bson:"resultsReleased" json:"resultsReleased"`
}

// Sectioned reports whether the exam uses the sectioned source variant.
func (e *ExamDefinition) Sectioned() bool {
	return len(e.Sections) > 0
}

// OpenAt reports whether the exam window admits new attempts at t. A zero
// StartTime/EndTime leaves that side of the window unbounded.
func (e *ExamDefinition) OpenAt(t time.Time) bool {
	if !e.StartTime.IsZero() && t.Before(e.StartTime) {
		return false
	}
	if !e.EndTime.IsZero() && t.After(e.EndTime) {
		return false
	}
	return true
}
