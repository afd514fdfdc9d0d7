package service

import (
	"context"
	"errors"
	"fmt"

	"exam-service/internal/analysis"
	"exam-service/internal/flatten"
	"exam-service/internal/models"
	"exam-service/internal/repository"
)

// ResultReader is the slice of the result repository the aggregator needs.
type ResultReader interface {
	FindByExam(ctx context.Context, examID string) ([]models.Result, error)
	FindByUserAndExam(ctx context.Context, userID, examID string) ([]models.Result, error)
}

// AnalysisService serves exam-wide reports and per-user standings.
type AnalysisService struct {
	exams   ExamReader
	results ResultReader
}

func NewAnalysisService(exams ExamReader, results ResultReader) *AnalysisService {
	return &AnalysisService{exams: exams, results: results}
}

// ExamReport aggregates every result of an exam. Before release it returns
// the under-evaluation report rather than an error.
func (svc *AnalysisService) ExamReport(ctx context.Context, examID string) (analysis.Report, error) {
	exam, units, err := svc.examUnits(ctx, examID)
	if err != nil {
		return analysis.Report{}, err
	}
	results, err := svc.results.FindByExam(ctx, examID)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("fetch results: %w", err)
	}
	return analysis.Aggregate(exam, units, results), nil
}

// UserStanding locates the user's attempt (a specific one when attemptID is
// given, otherwise their best-ranked) and computes its rank and accuracy.
// Returns ErrUnderEvaluation while results are gated.
func (svc *AnalysisService) UserStanding(ctx context.Context, examID, userID, attemptID string) (analysis.Standing, error) {
	exam, units, err := svc.examUnits(ctx, examID)
	if err != nil {
		return analysis.Standing{}, err
	}
	if analysis.UnderEvaluation(exam, units) {
		return analysis.Standing{}, ErrUnderEvaluation
	}

	results, err := svc.results.FindByExam(ctx, examID)
	if err != nil {
		return analysis.Standing{}, fmt.Errorf("fetch results: %w", err)
	}

	target := findTarget(results, userID, attemptID)
	if target == nil {
		return analysis.Standing{Attempted: false}, nil
	}
	return analysis.StandingFor(target, results, units), nil
}

func (svc *AnalysisService) examUnits(ctx context.Context, examID string) (*models.ExamDefinition, []flatten.Unit, error) {
	exam, err := svc.exams.FindByID(ctx, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrExamNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fetch exam %s: %w", examID, err)
	}
	return exam, flatten.Flatten(exam), nil
}

// findTarget picks the attempt whose standing is requested: an exact attempt
// id match when supplied, otherwise the user's best-ranked result.
func findTarget(results []models.Result, userID, attemptID string) *models.Result {
	if attemptID != "" {
		for i := range results {
			if results[i].AttemptID == attemptID && results[i].UserID == userID {
				return &results[i]
			}
		}
		return nil
	}

	sorted := make([]models.Result, len(results))
	copy(sorted, results)
	analysis.SortResults(sorted)
	for i := range sorted {
		if sorted[i].UserID == userID {
			return &sorted[i]
		}
	}
	return nil
}
