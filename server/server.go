// Copyright 2021 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/config"
	"github.com/matrixorigin/cubesql/executor"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/util/stop"
)

var (
	// ErrServerStarted the server is already listening
	ErrServerStarted = errors.New("server already started")
)

// Submitter executes sql statements, it is implemented by the dispatcher
type Submitter interface {
	Submit(ctx context.Context, sql string, args []interface{}, createdAt time.Time) *executor.Future[*response.SQLResponse]
}

// WorkerStats exposes the state of the shared worker pool
type WorkerStats interface {
	AvailableWorkers() int
	Running() int
	Cap() int
}

// Option server option
type Option func(*Server)

// WithLogger set the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithWorkerStats reports the pool state in the health endpoint
func WithWorkerStats(stats WorkerStats) Option {
	return func(s *Server) {
		s.stats = stats
	}
}

// WithDataPath reports the disk usage of the path in the health endpoint
func WithDataPath(path string) Option {
	return func(s *Server) {
		s.dataPath = path
	}
}

// Server is the http front end of the dispatcher
type Server struct {
	cfg       config.ServerConfig
	logger    *zap.Logger
	submitter Submitter
	stats     WorkerStats
	dataPath  string
	limiter   *rateLimiter
	router    *gin.Engine
	stopper   *stop.Stopper

	mu struct {
		sync.Mutex
		listener net.Listener
		server   *http.Server
	}
}

// NewServer returns a server over the submitter
func NewServer(cfg config.ServerConfig, submitter Submitter, opts ...Option) *Server {
	s := &Server{cfg: cfg, submitter: submitter}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.Adjust(s.logger).Named("server")
	s.stopper = stop.NewStopper(stop.WithLogger(s.logger))

	if cfg.RequestsPerSecond > 0 {
		s.limiter = newRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst, defaultLimiterTTL)
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.accessLog())
	if s.limiter != nil {
		s.router.Use(s.limiter.middleware())
	}
	s.router.POST("/_sql", s.handleSQL)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metric.Handler()))
	return s
}

// Handler returns the http handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listening address, it is empty before Start
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mu.listener == nil {
		return ""
	}
	return s.mu.listener.Addr().String()
}

// Start listens on the configured address and serves until Stop
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mu.listener != nil {
		return ErrServerStarted
	}

	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Addr)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout.Duration,
	}
	s.mu.listener = l
	s.mu.server = srv

	if err := s.stopper.RunNamedTask("http-server", func(ctx context.Context) {
		errC := make(chan error, 1)
		go func() {
			errC <- srv.Serve(l)
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("fail to shutdown http server", zap.Error(err))
			}
		case err := <-errC:
			if err != nil && err != http.ErrServerClosed {
				s.logger.Error("http server exited", zap.Error(err))
			}
		}
	}); err != nil {
		_ = l.Close()
		return err
	}

	if s.limiter != nil {
		if err := s.stopper.RunNamedTask("rate-limiter-evict", s.limiter.evictLoop); err != nil {
			return err
		}
	}

	s.logger.Info("http server started", log.ListenAddressField(l.Addr().String()))
	return nil
}

// Stop shutdowns the http server and waits for the background tasks
func (s *Server) Stop() error {
	names, err := s.stopper.StopWithTimeout(s.cfg.ShutdownTimeout.Duration + time.Second)
	if err != nil {
		return errors.Wrapf(err, "stop server, running tasks %v", names)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if ce := s.logger.Check(zap.DebugLevel, "http request"); ce != nil {
			ce.Write(zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()),
				zap.String("client", c.ClientIP()),
				log.DurationField(time.Since(start)))
		}
	}
}
