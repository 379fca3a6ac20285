package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cpg716/SuitSync-sub003/internal/httperr"
	"github.com/cpg716/SuitSync-sub003/internal/httpresp"
	"github.com/cpg716/SuitSync-sub003/internal/jobs"
)

type jobControl interface {
	GetJobStatus() []jobs.Status
	RunNow(ctx context.Context, name string) error
	StartJob(name string) error
	StopJob(name string) error
}

type JobsHandler struct {
	runner jobControl
}

func NewJobsHandler(runner jobControl) *JobsHandler {
	return &JobsHandler{runner: runner}
}

func (h *JobsHandler) List(c *gin.Context) {
	httpresp.List(c, h.runner.GetJobStatus())
}

func (h *JobsHandler) Run(c *gin.Context) {
	name := c.Param("name")
	if err := h.runner.RunNow(c.Request.Context(), name); err != nil {
		writeJobError(c, err)
		return
	}
	httpresp.OK(c, gin.H{"job": name, "ran": true})
}

func (h *JobsHandler) Start(c *gin.Context) {
	name := c.Param("name")
	if err := h.runner.StartJob(name); err != nil {
		writeJobError(c, err)
		return
	}
	httpresp.OK(c, gin.H{"job": name, "active": true})
}

func (h *JobsHandler) Stop(c *gin.Context) {
	name := c.Param("name")
	if err := h.runner.StopJob(name); err != nil {
		writeJobError(c, err)
		return
	}
	httpresp.OK(c, gin.H{"job": name, "active": false})
}

// ProcessNotifications runs the delivery sweep job now. It shares the job's
// overlap guard and lock, so a scheduled sweep in flight answers 409.
func (h *JobsHandler) ProcessNotifications(c *gin.Context) {
	if err := h.runner.RunNow(c.Request.Context(), jobs.ProcessNotifications); err != nil {
		writeJobError(c, err)
		return
	}
	httpresp.OK(c, gin.H{"job": jobs.ProcessNotifications, "ran": true})
}

func writeJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrUnknownJob):
		httperr.NotFound(c, "unknown_job", "Job not found.")
	case errors.Is(err, jobs.ErrAlreadyRunning), errors.Is(err, jobs.ErrLocked):
		httperr.Conflict(c, "job_busy", err.Error())
	case errors.Is(err, jobs.ErrClosed):
		httperr.Write(c, http.StatusServiceUnavailable, "runner_closed", "Job runner is shutting down.")
	default:
		httperr.Internal(c, "job_failed", err.Error())
	}
}
