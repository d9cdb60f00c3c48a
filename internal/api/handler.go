package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kurihiro0119/mosscheck/internal/domain"
	apperrors "github.com/kurihiro0119/mosscheck/internal/errors"
	"github.com/kurihiro0119/mosscheck/internal/storage"
)

// Handler handles API requests
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage) *Handler {
	return &Handler{
		storage: store,
	}
}

// HealthCheck returns the API health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSummary returns aggregate counts for an assignment
// GET /api/v1/assignments/:assignment
func (h *Handler) GetSummary(c *gin.Context) {
	assignment := c.Param("assignment")

	subs, err := h.storage.ListSubmissions(c.Request.Context(), assignment)
	if err != nil {
		respondError(c, err)
		return
	}
	checkouts, err := h.storage.ListCheckouts(c.Request.Context(), assignment)
	if err != nil {
		respondError(c, err)
		return
	}

	summary := domain.AssignmentSummary{
		Assignment:  assignment,
		Checkouts:   len(checkouts),
		Submissions: len(subs),
	}
	for _, sub := range subs {
		switch sub.Status {
		case domain.SubmissionStatusDone:
			summary.Done++
		case domain.SubmissionStatusFailed:
			summary.Failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// GetSubmissions returns all submissions for an assignment
// GET /api/v1/assignments/:assignment/submissions
func (h *Handler) GetSubmissions(c *gin.Context) {
	assignment := c.Param("assignment")

	subs, err := h.storage.ListSubmissions(c.Request.Context(), assignment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": subs,
	})
}

// GetSubmission returns a single submission
// GET /api/v1/assignments/:assignment/submissions/:id
func (h *Handler) GetSubmission(c *gin.Context) {
	id := c.Param("id")

	sub, err := h.storage.GetSubmission(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": sub,
	})
}

// GetReport serves the saved report page of a submission
// GET /api/v1/assignments/:assignment/submissions/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	id := c.Param("id")

	sub, err := h.storage.GetSubmission(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	reportFile := filepath.Join(sub.ReportPath, "report.html")
	if _, err := os.Stat(reportFile); err != nil {
		respondError(c, apperrors.NewNotFoundError("report for submission "+id))
		return
	}
	c.File(reportFile)
}

// GetCheckouts returns all recorded checkouts for an assignment
// GET /api/v1/assignments/:assignment/checkouts
func (h *Handler) GetCheckouts(c *gin.Context) {
	assignment := c.Param("assignment")

	checkouts, err := h.storage.ListCheckouts(c.Request.Context(), assignment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": checkouts,
	})
}

// respondError maps application errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeConfig, apperrors.ErrCodeCredential:
			status = http.StatusBadRequest
		}
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
	})
}
