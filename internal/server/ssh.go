// Package server serves deskos desktops over SSH, one independent session
// per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/activeterm"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/deskos/internal/app"
	"github.com/Gaurav-Gosain/deskos/internal/config"
	"github.com/Gaurav-Gosain/deskos/internal/input"
	"github.com/Gaurav-Gosain/deskos/internal/metrics"
	"github.com/Gaurav-Gosain/deskos/internal/session"
)

// shutdownTimeout bounds how long open connections get to finish.
const shutdownTimeout = 5 * time.Second

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	Host    string
	Port    string
	KeyPath string // empty uses the xdg data directory
	Config  *config.Config
	Logger  *log.Logger
	Metrics *metrics.Metrics
}

// Server hands every SSH connection its own session manager and desktop.
type Server struct {
	cfg    SSHServerConfig
	logger *log.Logger
}

// New validates cfg and fills in defaults.
func New(cfg SSHServerConfig) (*Server, error) {
	if cfg.Config == nil {
		cfg.Config = config.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.KeyPath == "" {
		path, err := xdg.DataFile("deskos/ssh_host_ed25519")
		if err != nil {
			return nil, fmt.Errorf("host key path: %w", err)
		}
		cfg.KeyPath = path
	}
	return &Server{cfg: cfg, logger: cfg.Logger.WithPrefix("ssh")}, nil
}

// StartSSHServer runs the server until ctx is cancelled.
func StartSSHServer(ctx context.Context, cfg SSHServerConfig) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	return s.ListenAndServe(ctx)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	app.SetInputHandler(input.HandleInput)

	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(s.cfg.Host, s.cfg.Port)),
		wish.WithHostKeyPath(s.cfg.KeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(s.logger),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting SSH server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// teaHandler creates a desktop for each SSH session. The session manager
// lives exactly as long as the connection.
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, active := sess.Pty()
	if !active {
		return nil, nil
	}

	id := uuid.NewString()
	logger := s.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())

	desktop := NewDesktop(sess.Context(), s.cfg.Config, id, logger, s.cfg.Metrics)
	desktop.Width = pty.Window.Width
	desktop.Height = pty.Window.Height

	go func() {
		<-sess.Context().Done()
		desktop.Cleanup()
		if err := desktop.Manager.Close(); err != nil {
			logger.Warn("closing session", "session", id, "err", err)
		}
		logger.Info("session ended", "session", id)
	}()

	logger.Info("session started", "session", id, "term", pty.Term)
	return desktop, nil
}

// NewDesktop wires a session manager to a terminal surface and returns the
// desktop model driving it.
func NewDesktop(ctx context.Context, cfg *config.Config, id string, logger *log.Logger, mt *metrics.Metrics) *app.OS {
	surf := app.NewSurface(session.Viewport(cfg))
	opts := []session.Option{
		session.WithSessionID(id),
		session.WithLogger(logger),
	}
	if mt != nil {
		opts = append(opts, session.WithMetrics(mt))
	}
	mgr := session.NewManager(surf, cfg, opts...)
	return app.New(mgr, surf, cfg, app.WithContext(ctx), app.WithLogger(logger))
}
