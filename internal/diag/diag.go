// Package diag exposes a minimal, read-only HTTP surface over a
// Supervisor's runtime state for operational visibility. It never
// accepts any mutating request: every route is a GET reporting a
// snapshot of state the supervisor already tracks.
package diag

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Snapshot is the diagnostic view of a running (or terminal) supervisor.
type Snapshot struct {
	Pid            int64  `json:"pid"`
	HasPid         bool   `json:"hasPid"`
	Executable     string `json:"executable"`
	WorkDir        string `json:"workDir"`
	InPipePath     string `json:"inPipePath"`
	OutPipePath    string `json:"outPipePath"`
	OutboundQueued int    `json:"outboundQueued"`
}

// Snapshotter is implemented by a Supervisor; diag depends only on this
// narrow view so it never reaches back into supervisor internals.
type Snapshotter interface {
	Pid() (int64, bool)
	Executable() string
	WorkDir() string
	InPipePath() string
	OutPipePath() string
	QueueSize() int
	TailStdout(n int) []string
	TailStderr(n int) []string
}

func snapshot(s Snapshotter) Snapshot {
	pid, ok := s.Pid()
	return Snapshot{
		Pid:            pid,
		HasPid:         ok,
		Executable:     s.Executable(),
		WorkDir:        s.WorkDir(),
		InPipePath:     s.InPipePath(),
		OutPipePath:    s.OutPipePath(),
		OutboundQueued: s.QueueSize(),
	}
}

// zapLogger attaches structured fields after the handler runs, routing
// status to the matching zap level.
func zapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// NewEngine builds the diagnostics gin.Engine. CORS is enabled only when
// ENV=dev.
func NewEngine(log *zap.Logger, s Snapshotter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	if os.Getenv("ENV") == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "OPTIONS"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.Use(zapLogger(log.Named("diag")))

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, snapshot(s))
	})

	r.GET("/status/logs/stdout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"lines": s.TailStdout(tailCount(c))})
	})

	r.GET("/status/logs/stderr", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"lines": s.TailStderr(tailCount(c))})
	})

	return r
}

func tailCount(c *gin.Context) int {
	n := 50
	if v := c.Query("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	return n
}
