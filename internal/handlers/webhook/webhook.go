// Package webhook serves the voice assistant dice channel over HTTP. It
// speaks the Alice skill protocol: the request carries a free-text command
// and the reply is the text the assistant reads back.
package webhook

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice"
)

// AliceRequest is the subset of the skill request the webhook reads.
type AliceRequest struct {
	Version string          `json:"version"`
	Session json.RawMessage `json:"session"`
	Request struct {
		Command string `json:"command"`
	} `json:"request"`
}

// AliceResponse echoes version and session back with the answer.
type AliceResponse struct {
	Version  string          `json:"version"`
	Session  json.RawMessage `json:"session"`
	Response AliceAnswer     `json:"response"`
}

// AliceAnswer is the text read to the user.
type AliceAnswer struct {
	Text       string `json:"text"`
	EndSession bool   `json:"end_session"`
}

type aliceSession struct {
	SessionID string `json:"session_id"`
}

// Config holds the dependencies for the webhook router
type Config struct {
	DiceService dice.Service
	Limiter     *RateLimiter

	// Gatherer backs /metrics; the route is omitted when nil
	Gatherer prometheus.Gatherer
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.DiceService == nil {
		vb.RequiredField("DiceService")
	}
	if c.Limiter == nil {
		vb.RequiredField("Limiter")
	}
	return vb.Build()
}

type handler struct {
	diceService dice.Service
	limiter     *RateLimiter
}

// NewRouter builds the gin engine with the webhook, health and metrics routes.
func NewRouter(cfg *Config) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	h := &handler{
		diceService: cfg.DiceService,
		limiter:     cfg.Limiter,
	}

	engine := gin.New()
	engine.Use(requestLogger(), gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/webhook/alice", h.alice)
	if cfg.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	return engine, nil
}

// alice never surfaces engine errors to the assistant; anything that goes
// wrong after the request parses is answered with dice.DefaultAnswer.
func (h *handler) alice(c *gin.Context) {
	var req AliceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, errors.InvalidArgument("malformed request"))
		return
	}

	var session aliceSession
	if len(req.Session) > 0 {
		_ = json.Unmarshal(req.Session, &session)
	}
	sessionID := session.SessionID
	if sessionID == "" {
		sessionID = c.ClientIP()
	}

	if !h.limiter.Allow(sessionID) {
		slog.Warn("Rate limit exceeded",
			"session_id", sessionID,
			"path", c.Request.URL.Path,
		)
		c.Header("Retry-After", "1")
		abort(c, errors.ResourceExhausted("too many requests"))
		return
	}

	resp := AliceResponse{
		Version:  req.Version,
		Session:  req.Session,
		Response: AliceAnswer{Text: dice.DefaultAnswer},
	}

	out, err := h.diceService.HandleCommand(c.Request.Context(), &dice.HandleCommandInput{
		SessionID: sessionID,
		Command:   req.Request.Command,
	})
	if err != nil {
		slog.Warn("Voice command failed",
			"session_id", sessionID,
			"error", err,
		)
	} else {
		resp.Response.Text = out.Text
	}

	c.JSON(http.StatusOK, resp)
}

// abort answers with the status err's code maps to.
func abort(c *gin.Context, err *errors.Error) {
	c.AbortWithStatusJSON(err.Code.HTTPStatus(), gin.H{
		"error": err.Message,
		"code":  err.Code,
	})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
