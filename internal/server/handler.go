package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/logger"
	"github.com/bnema/coursecal/internal/schedule"
	"github.com/bnema/coursecal/internal/spreadsheet"
)

// ActionCreateCalendar asks the server to create the course calendar and
// add every course in the message to it.
const ActionCreateCalendar = "createCalendarAndAddCourses"

type messageRequest struct {
	Action  string            `json:"action" binding:"required"`
	Courses []schedule.Record `json:"courses"`
}

type messageResponse struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Report  *calendar.Report `json:"report,omitempty"`
}

func (s *Server) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Error: "invalid message: " + err.Error()})
		return
	}

	switch req.Action {
	case ActionCreateCalendar:
		s.createCalendar(c, req.Courses)
	default:
		c.JSON(http.StatusBadRequest, messageResponse{Error: "unknown action: " + req.Action})
	}
}

func (s *Server) createCalendar(c *gin.Context, courses []schedule.Record) {
	if err := schedule.ValidateAll(courses); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Error: err.Error()})
		return
	}

	release, err := s.guard.TryAcquire()
	if err != nil {
		c.JSON(http.StatusConflict, messageResponse{Error: err.Error()})
		return
	}
	defer release()

	// A started sync finishes even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	report, err := s.syncer.Sync(ctx, courses)
	if err != nil {
		logger.Error("sync request failed", "error", err)
		c.JSON(syncStatus(err), messageResponse{Error: err.Error(), Report: report})
		return
	}
	c.JSON(http.StatusOK, messageResponse{Success: true, Report: report})
}

func (s *Server) uploadSchedule(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	rows, err := spreadsheet.Read(f, header.Filename, spreadsheet.Options{Sheet: s.cfg.Sheet})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	result := schedule.Extract(rows, s.cfg.HeaderRow)
	logger.Info("schedule uploaded", "file", header.Filename, "courses", len(result.Records), "skipped", len(result.Skipped))
	c.JSON(http.StatusOK, result)
}

func syncStatus(err error) int {
	var (
		authErr   *calendar.AuthenticationError
		createErr *calendar.CalendarCreationError
		eventErr  *calendar.EventCreationError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &createErr), errors.As(err, &eventErr):
		return http.StatusBadGateway
	case errors.Is(err, calendar.ErrSyncInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
