package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"GradeSentinel/internal/model"
	"GradeSentinel/internal/notifier"
)

// ErrCheckInFlight is returned when a trigger arrives while a cycle runs.
var ErrCheckInFlight = errors.New("a grade check is already running")

const historyLimit = 10

// Runner executes one check cycle and serves the read-only views.
type Runner interface {
	Run(ctx context.Context, trigger model.TriggerType) (*model.CycleResult, error)
	CurrentGrades() string
	RecentHistory(limit int) (string, error)
}

// Scheduler runs automatic checks on a cron schedule and accepts manual
// triggers. At most one cycle is in flight at any time.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Ctx    context.Context

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Runner: runner,
		Ctx:    ctx,
	}
}

// Register schedules the automatic grade check.
func (s *Scheduler) Register(checkCron string) error {
	if _, err := s.Cron.AddFunc(checkCron, s.scheduledCheck); err != nil {
		return fmt.Errorf("register grade check: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Println("[INFO] scheduler stopped")
}

// TriggerCheck runs a cycle now unless one is already running, in which
// case the trigger is dropped and ErrCheckInFlight returned.
func (s *Scheduler) TriggerCheck(ctx context.Context, trigger model.TriggerType) (*model.CycleResult, error) {
	if !s.mu.TryLock() {
		log.Printf("[WARN] %s check skipped: %v", trigger, ErrCheckInFlight)
		return nil, ErrCheckInFlight
	}
	defer s.mu.Unlock()
	return s.Runner.Run(ctx, trigger)
}

func (s *Scheduler) scheduledCheck() {
	if _, err := s.TriggerCheck(s.Ctx, model.TriggerScheduled); err != nil && !errors.Is(err, ErrCheckInFlight) {
		log.Printf("[ERROR] scheduled check: %v", err)
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/check":
		res, err := s.TriggerCheck(ctx, model.TriggerManual)
		if errors.Is(err, ErrCheckInFlight) {
			return "⏳ A grade check is already running"
		}
		if err != nil {
			return fmt.Sprintf("❌ Grade check failed: %v", err)
		}
		return notifier.FormatCycleReport(res)
	case "/grades":
		return s.Runner.CurrentGrades()
	case "/history":
		text, err := s.Runner.RecentHistory(historyLimit)
		if err != nil {
			return fmt.Sprintf("❌ History unavailable: %v", err)
		}
		return text
	default:
		return "Available commands:\n• /check - check grades now\n• /grades - show current grades\n• /history - show recent changes"
	}
}
