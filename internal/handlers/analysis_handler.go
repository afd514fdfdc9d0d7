package handlers

import (
	"context"
	"errors"
	"net/http"

	"exam-service/internal/auth"
	"exam-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	Service *service.AnalysisService
}

func NewAnalysisHandler(s *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{Service: s}
}

// ExamAnalysis returns the exam-wide aggregate report. Before results are
// released it reports the under-evaluation state, which is an expected
// lifecycle phase and not an error.
func (h *AnalysisHandler) ExamAnalysis(c *gin.Context) {
	report, err := h.Service.ExamReport(context.Background(), c.Param("id"))
	if errors.Is(err, service.ErrExamNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build analysis", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// MyStanding returns the authenticated user's rank and accuracy for an exam.
// The attemptId query selects a specific attempt; otherwise the best-ranked
// one is used.
func (h *AnalysisHandler) MyStanding(c *gin.Context) {
	identity, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	standing, err := h.Service.UserStanding(context.Background(), c.Param("id"), identity.UserID, c.Query("attemptId"))
	switch {
	case errors.Is(err, service.ErrUnderEvaluation):
		c.JSON(http.StatusOK, gin.H{"underEvaluation": true})
		return
	case errors.Is(err, service.ErrExamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute standing", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, standing)
}
