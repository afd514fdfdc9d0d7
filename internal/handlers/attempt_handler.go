package handlers

import (
	"context"
	"errors"
	"net/http"

	"exam-service/internal/auth"
	"exam-service/internal/service"
	"exam-service/internal/session"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	Service *service.AttemptService
}

func NewAttemptHandler(s *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{Service: s}
}

// StartAttempt checks eligibility and launches a timed attempt.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	identity, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	s, err := h.Service.Start(context.Background(), c.Param("id"), identity)
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Exam not found"})
		return
	case errors.Is(err, service.ErrAttemptLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": "You have reached the maximum number of attempts for this exam"})
		return
	case errors.Is(err, service.ErrExamClosed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Exam is not open"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start attempt", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, s.View())
}

// GetAttempt returns the current view-model: displayed question, palette and
// remaining time.
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// GoTo navigates to a question index.
func (h *AttemptHandler) GoTo(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.GoTo(req.Index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Answer stages a pending answer value for a question.
func (h *AttemptHandler) Answer(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Index int         `json:"index"`
		Value interface{} `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Service.Stage(s.ID, req.Index, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Commit commits the staged answer, optionally marking it for review.
func (h *AttemptHandler) Commit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Index         int  `json:"index"`
		MarkForReview bool `json:"markForReview"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Commit(req.Index, req.MarkForReview); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Clear removes the staged and committed answer for a question.
func (h *AttemptHandler) Clear(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Index int `json:"index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Clear(req.Index); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// Submit finalizes the attempt. The disqualified flag is set only by the
// external proctoring integration, never inferred here.
func (h *AttemptHandler) Submit(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Disqualified bool `json:"disqualified"`
	}
	// An empty body means a plain manual submit.
	_ = c.ShouldBindJSON(&req)

	result, err := h.Service.Submit(context.Background(), s.ID, req.Disqualified)
	if errors.Is(err, session.ErrSubmitInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Submission already in progress"})
		return
	}
	if err != nil {
		// AttemptState is preserved; the client may retry.
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to save result, please retry", "details": err.Error(), "retryable": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attemptId":      result.AttemptID,
		"score":          result.Score,
		"status":         result.Status,
		"totalTimeSpent": result.TotalTimeSpent,
		"timestamp":      result.Timestamp,
	})
}

// session resolves the routed session and enforces that it belongs to the
// authenticated user.
func (h *AttemptHandler) session(c *gin.Context) (*session.ExamSession, bool) {
	identity, ok := auth.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}
	s, err := h.Service.Session(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attempt session not found"})
		return nil, false
	}
	if s.User.UserID != identity.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return nil, false
	}
	return s, true
}
