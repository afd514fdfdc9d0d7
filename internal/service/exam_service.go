package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exam-service/internal/models"
	"exam-service/internal/repository"
)

// ExamReader is the slice of the exam repository the services consume.
type ExamReader interface {
	FindAll(ctx context.Context) ([]models.ExamDefinition, error)
	FindByID(ctx context.Context, id string) (*models.ExamDefinition, error)
}

// ExamSummary is the dashboard card: never carries questions or answer keys.
type ExamSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration"`
	AttemptsAllowed int       `json:"attemptsAllowed"`
	StartTime       time.Time `json:"startTime,omitempty"`
	EndTime         time.Time `json:"endTime,omitempty"`
	Open            bool      `json:"open"`
	ResultsReleased bool      `json:"resultsReleased"`
}

type ExamService struct {
	Repo ExamReader
}

func NewExamService(repo ExamReader) *ExamService {
	return &ExamService{Repo: repo}
}

// List returns dashboard summaries in insertion order.
func (s *ExamService) List(ctx context.Context) ([]ExamSummary, error) {
	exams, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	now := time.Now()
	summaries := make([]ExamSummary, 0, len(exams))
	for i := range exams {
		e := &exams[i]
		summaries = append(summaries, ExamSummary{
			ID:              e.ID,
			Title:           e.Title,
			DurationMinutes: e.DurationMinutes,
			AttemptsAllowed: e.AttemptsAllowed,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			Open:            e.OpenAt(now),
			ResultsReleased: e.ResultsReleased,
		})
	}
	return summaries, nil
}

// Get fetches one exam definition.
func (s *ExamService) Get(ctx context.Context, id string) (*models.ExamDefinition, error) {
	exam, err := s.Repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam %s: %w", id, err)
	}
	return exam, nil
}
