package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"TokenBoard/internal/board"
	"TokenBoard/internal/notifier"
)

// Sender delivers notification text.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const maxTopN = 20

// Scheduler manages all cron tasks and answers bot commands.
type Scheduler struct {
	Cron       *cron.Cron
	Board      *board.Manager
	Notifier   Sender // nil disables notifications
	DigestSize int
	Ctx        context.Context

	logger *slog.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, b *board.Manager, n Sender, digestSize int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if digestSize <= 0 {
		digestSize = 5
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Board:      b,
		Notifier:   n,
		DigestSize: digestSize,
		Ctx:        ctx,
		logger:     logger.With("component", "scheduler"),
		now:        time.Now,
	}
}

// RegisterAll registers the price refresh and digest tasks.
func (s *Scheduler) RegisterAll(refreshCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.logger.Info("running price refresh")
	n, err := s.Board.Refresh(s.Ctx)
	if err != nil {
		s.logger.Error("price refresh failed", "error", err)
		return
	}
	s.logger.Info("price refresh done", "updated", n)
}

func (s *Scheduler) digestTask() {
	s.logger.Info("running digest")
	text, err := s.digest(s.DigestSize)
	if err != nil {
		s.logger.Error("build digest", "error", err)
		return
	}
	s.trySend(text)
}

func (s *Scheduler) digest(n int) (string, error) {
	tokens, err := s.Board.List(s.Ctx, board.FilterTrending)
	if err != nil {
		return "", err
	}
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return notifier.FormatDigest(tokens, s.now()), nil
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command, args string) string {
	fields := strings.Fields(args)
	switch command {
	case "top":
		n := s.DigestSize
		if len(fields) > 0 {
			if v, err := strconv.Atoi(fields[0]); err == nil && v > 0 {
				n = min(v, maxTopN)
			}
		}
		text, err := s.digest(n)
		if err != nil {
			return "Failed to load the board: " + err.Error()
		}
		return text
	case "token":
		if len(fields) == 0 {
			return "Usage: /token &lt;address&gt;"
		}
		tok, err := s.Board.Get(ctx, fields[0])
		if err != nil {
			return "Token not found on the board."
		}
		return notifier.FormatToken(tok)
	case "chart":
		if len(fields) == 0 {
			return "Usage: /chart &lt;address&gt; [24h|7d|30d|1y]"
		}
		tf := ""
		if len(fields) > 1 {
			tf = fields[1]
		}
		cd, err := s.Board.Chart(ctx, fields[0], tf)
		if err != nil {
			return "Invalid token address."
		}
		symbol := fields[0]
		if tok, err := s.Board.Get(ctx, fields[0]); err == nil {
			symbol = tok.Symbol
		}
		return notifier.FormatChart(symbol, cd)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error("send notification", "error", err)
	}
}
