package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/vanpelt/trainer/internal/config"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
)

const (
	initialRows = 24
	initialCols = 80
)

// ShellService starts interactive shells and runs check scripts against the scenario environment
type ShellService struct {
	cfg *config.ServerConfig

	mu       sync.RWMutex
	sessions map[string]*ShellSession
}

// ShellSession is one PTY-backed shell serving a single terminal connection
type ShellSession struct {
	ID        string
	PTY       *os.File
	Cmd       *exec.Cmd
	CreatedAt time.Time

	closeOnce sync.Once
	service   *ShellService
}

// NewShellService creates a shell service for the given configuration
func NewShellService(cfg *config.ServerConfig) *ShellService {
	return &ShellService{
		cfg:      cfg,
		sessions: make(map[string]*ShellSession),
	}
}

// shellCommand builds the command behind an interactive terminal
func (s *ShellService) shellCommand() *exec.Cmd {
	if s.cfg.IsLocal() {
		cmd := exec.Command(s.cfg.LocalShell)
		cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")
		return cmd
	}
	return exec.Command("kubectl", "exec", "-n", s.cfg.Namespace, s.cfg.ShellPodName, "-it", "-c", "shell", "--", "/bin/bash")
}

// checkCommand builds the command that runs a check script non-interactively
func (s *ShellService) checkCommand(ctx context.Context, script string) *exec.Cmd {
	if s.cfg.IsLocal() {
		return exec.CommandContext(ctx, "bash", "-c", script)
	}
	return exec.CommandContext(ctx, "kubectl", "exec", "-n", s.cfg.Namespace, s.cfg.ShellPodName, "-c", "shell", "--", "bash", "-c", script)
}

// Start spawns a new shell under a PTY and tracks it under id
func (s *ShellService) Start(id string) (*ShellSession, error) {
	cmd := s.shellCommand()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: initialRows, Cols: initialCols})
	if err != nil {
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	session := &ShellSession{
		ID:        id,
		PTY:       ptmx,
		Cmd:       cmd,
		CreatedAt: time.Now(),
		service:   s,
	}

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	logger.Infof("🐚 Started shell session %s (%s backend)", id, s.cfg.ShellBackend)
	return session, nil
}

// Count returns the number of live shell sessions
func (s *ShellService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll terminates every live shell session
func (s *ShellService) CloseAll() {
	s.mu.RLock()
	sessions := make([]*ShellSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		session.Close()
	}
}

// RunCheck executes a step's check script. A non-zero exit (or timeout) is a failed check,
// never an error: the trimmed combined output is always reported back as the message.
func (s *ShellService) RunCheck(ctx context.Context, script string) models.CheckResult {
	if s.cfg.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CheckTimeout)
		defer cancel()
	}

	output, err := s.checkCommand(ctx, script).CombinedOutput()
	msg := strings.TrimSpace(string(output))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warnf("⏱️ Check timed out after %v", s.cfg.CheckTimeout)
			if msg == "" {
				msg = fmt.Sprintf("check timed out after %v", s.cfg.CheckTimeout)
			}
		}
		return models.CheckResult{Success: false, Message: msg}
	}
	return models.CheckResult{Success: true, Message: msg}
}

// Resize changes the PTY window size
func (sess *ShellSession) Resize(cols, rows uint16) error {
	return pty.Setsize(sess.PTY, &pty.Winsize{Rows: rows, Cols: cols})
}

// Close kills the shell process and releases the PTY. Safe to call more than once.
func (sess *ShellSession) Close() {
	sess.closeOnce.Do(func() {
		_ = sess.PTY.Close()
		if sess.Cmd.Process != nil {
			_ = sess.Cmd.Process.Kill()
			_ = sess.Cmd.Wait()
		}

		sess.service.mu.Lock()
		delete(sess.service.sessions, sess.ID)
		sess.service.mu.Unlock()

		logger.Infof("🧹 Closed shell session %s", sess.ID)
	})
}
