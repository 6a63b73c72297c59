// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trackpro-client/internal/config"
	"trackpro-client/internal/devapi"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Server is the in-memory development backend the client talks to.
type Server struct {
	cfg         config.DevAPIConfig
	engine      *gin.Engine
	logger      *zap.Logger
	store       *devapi.Store
	authService *devapi.AuthService
}

func NewServer(cfg config.DevAPIConfig, logger *zap.Logger) (*Server, error) {
	// ----- JWT Manager -----
	jwtManager, err := jwt.NewManager(cfg.JWTSecret, devapi.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWT manager: %w", err)
	}

	// ----- Store & Services -----
	store := devapi.NewStore()
	mailer := devapi.NewMailer(cfg, logger)
	authService := devapi.NewAuthService(store, jwtManager, mailer, cfg.ResetURL, logger)

	s := &Server{
		cfg:         cfg,
		engine:      gin.New(),
		logger:      logger,
		store:       store,
		authService: authService,
	}

	// ----- Seed Admin -----
	if err := s.initializeAdmin(); err != nil {
		return nil, err
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RequestID(),
		middleware.RecoveryMiddleware(logger),
		middleware.RequestLogger(logger),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
	)

	// ----- Router -----
	SetupRouter(s.engine, &Handlers{
		API:            devapi.NewHandler(store, authService, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authService, devapi.NewSubscriptionGate(store)),
		AuthLimiter:    middleware.NewIPRateLimiter(authRequestsPerMinute),
	})
	return s, nil
}

// Handler exposes the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev backend listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down dev backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// initializeAdmin creates the admin account if it doesn't exist.
func (s *Server) initializeAdmin() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.authService.EnsureAdmin(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to ensure admin exists: %w", err)
	}
	return nil
}
