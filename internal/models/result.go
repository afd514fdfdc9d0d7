package models

import "time"

type ResultStatus string

const (
	ResultCompleted    ResultStatus = "COMPLETED"
	ResultDisqualified ResultStatus = "DISQUALIFIED"
)

// QuestionDetail is the per-question record of a persisted result.
type QuestionDetail struct {
	UserAnswer    interface{} `bson:"userAnswer" json:"userAnswer"`
	CorrectAnswer interface{} `bson:"correctAnswer" json:"correctAnswer"`
	IsCorrect     bool        `bson:"isCorrect" json:"isCorrect"`
	Marks         float64     `bson:"marks" json:"marks"`
	TimeSpent     int         `bson:"timeSpent" json:"timeSpent"`
}

// Result is one document of the "results" collection, written exactly once
// per completed attempt and immutable afterwards. The field set follows the
// stored-document contract; Answers keeps the raw flat-index answer map for
// aggregate analysis (object keys round-trip as strings).
type Result struct {
	ID                string                 `bson:"_id,omitempty" json:"id"`
	AttemptID         string                 `bson:"attemptId,omitempty" json:"attemptId,omitempty"`
	UserID            string                 `bson:"userId" json:"userId"`
	Name              string                 `bson:"name,omitempty" json:"name,omitempty"`
	Email             string                 `bson:"email,omitempty" json:"email,omitempty"`
	ExamID            string                 `bson:"examId" json:"examId"`
	Score             float64                `bson:"score" json:"score"`
	PerQuestionDetail []QuestionDetail       `bson:"perQuestionDetail" json:"perQuestionDetail"`
	Answers           map[string]interface{} `bson:"answers,omitempty" json:"answers,omitempty"`
	TotalTimeSpent    int                    `bson:"totalTimeSpent" json:"totalTimeSpent"`
	Timestamp         time.Time              `bson:"timestamp" json:"timestamp"`
	Status            ResultStatus           `bson:"status" json:"status"`
}
