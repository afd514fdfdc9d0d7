package models

import "time"

type LiveState string

const (
	LiveTakingExam   LiveState = "TAKING_EXAM"
	LiveActive       LiveState = "ACTIVE"
	LiveCompleted    LiveState = "COMPLETED"
	LiveDisqualified LiveState = "DISQUALIFIED"
)

// LiveStatus is the ephemeral presence record of the "live_status"
// collection: created at attempt start, touched by the heartbeat, finalized
// at submit.
type LiveStatus struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	Name       string    `bson:"name,omitempty" json:"name,omitempty"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	ExamID     string    `bson:"examId" json:"examId"`
	Status     LiveState `bson:"status" json:"status"`
	LastActive time.Time `bson:"lastActive" json:"lastActive"`
}
