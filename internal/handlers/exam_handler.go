package handlers

import (
	"context"
	"errors"
	"net/http"

	"exam-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	Service *service.ExamService
}

func NewExamHandler(s *service.ExamService) *ExamHandler {
	return &ExamHandler{Service: s}
}

// ListExams returns the dashboard cards.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.Service.List(context.Background())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list exams", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exams": exams, "count": len(exams)})
}

// GetExam returns one exam's dashboard summary.
func (h *ExamHandler) GetExam(c *gin.Context) {
	exam, err := h.Service.Get(context.Background(), c.Param("id"))
	if errors.Is(err, service.ErrExamNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get exam", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":              exam.ID,
		"title":           exam.Title,
		"duration":        exam.DurationMinutes,
		"attemptsAllowed": exam.AttemptsAllowed,
		"resultsReleased": exam.ResultsReleased,
	})
}
