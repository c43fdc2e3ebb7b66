// Package replay serves scripted interpretation streams over HTTP in the
// dashboard's wire format, for offline demos and end-to-end tests.
package replay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/interpret"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"
)

const requestIDKey = "requestID"

// Server answers interpretation POSTs with a Script.
type Server struct {
	engine    *gin.Engine
	script    Script
	delay     time.Duration
	writeSize int
	token     string
	paths     []string
	logger    *slog.Logger
	registry  *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// Option configures a Server.
type Option func(*Server)

// WithDelay sleeps d before every write.
func WithDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

// WithWriteSize splits a raw script into writes of n bytes.
func WithWriteSize(n int) Option {
	return func(s *Server) { s.writeSize = n }
}

// WithToken requires a matching bearer token.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithPaths sets the endpoint paths. Defaults to the YAML and issues paths.
func WithPaths(paths ...string) Option {
	return func(s *Server) { s.paths = paths }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRegistry exposes metrics from reg on /metrics and records request
// metrics into it.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// New constructs a Server with all routes configured.
func New(script Script, opts ...Option) *Server {
	s := &Server{
		script: script,
		paths:  []string{interpret.DefaultYAMLPath, interpret.DefaultIssuesPath},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	f := promauto.With(s.registry)
	s.requests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "kubeinterp_replay_requests_total",
		Help: "Replay requests grouped by path and status",
	}, []string{"path", "status"})
	s.latency = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kubeinterp_replay_request_duration_seconds",
		Help:    "Replay request duration including the streamed body",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestID(), s.metrics(), s.requestLogger())
	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	protected := engine.Group("/")
	protected.Use(s.auth())
	for _, p := range s.paths {
		protected.POST(p, s.interpret)
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("replay server listening", "addr", addr, "paths", strings.Join(s.paths, ","))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) interpret(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil || !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "request body must be a JSON object"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for _, w := range s.script.Body(s.writeSize) {
		if s.delay > 0 {
			select {
			case <-ctx.Done():
				s.logger.Debug("client went away", "request_id", c.GetString(requestIDKey))
				return
			case <-time.After(s.delay):
			}
		}
		if _, err := c.Writer.WriteString(w); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.requests.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
		s.latency.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		header := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if header != s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			return
		}
		c.Next()
	}
}
