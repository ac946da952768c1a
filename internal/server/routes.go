package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/edgemesh/meshexec/internal/dispatch"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ExecRequest is the submit body for POST /ssh/exec. Exactly one of command
// or the (app_type, app_url) pair must be present.
type ExecRequest struct {
	DeviceID string   `json:"device_id"`
	Command  []string `json:"command,omitempty"`
	AppType  string   `json:"app_type,omitempty"`
	AppURL   string   `json:"app_url,omitempty"`
}

func (s *Node) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"uptime":        time.Since(s.Appeared).String(),
			"node":          s.ID,
			"overlay_ready": s.network.Ready(),
			"version":       "0.0.1",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":         true,
			"uptime":        time.Since(s.Appeared).String(),
			"node":          s.ID,
			"overlay_ready": s.network.Ready(),
			"version":       "0.0.1",
		})
	})

	s.router.POST("/ssh/exec", func(c *gin.Context) {
		var req ExecRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		id, err := s.dispatcher.Dispatch(dispatch.Request{
			DeviceID: req.DeviceID,
			Command:  req.Command,
			AppType:  req.AppType,
			AppRef:   req.AppURL,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"execution_id": id,
			"status":       "accepted",
			"message":      "execution dispatched, poll /deployments/status for result",
		})
	})

	s.router.GET("/deployments/status", func(c *gin.Context) {
		id := strings.TrimSpace(c.Query("id"))
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id query parameter is required"})
			return
		}

		rec, err := s.dispatcher.Status(id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, dispatch.ErrUnknownExecutionID) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"execution_id": id,
			"status":       string(rec.Status),
			"message":      "ok",
			"output":       rec.Output,
			"error":        rec.Error,
		})
	})
}
