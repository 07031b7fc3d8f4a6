package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one periodic task.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on cron schedules. It implements
// cartridge.BackgroundWorker.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	isRunning bool
	running   map[string]bool
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]bool),
	}
}

// Register schedules job with a standard cron spec or a descriptor such as
// "@every 5m".
func (s *Scheduler) Register(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.executeJobSafely(job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name(), spec, err)
	}
	s.logger.Info("Registered background job",
		slog.String("job", job.Name()),
		slog.String("schedule", spec))
	return nil
}

// executeJobSafely skips a run while the previous run of the same job is
// still going and recovers panics.
func (s *Scheduler) executeJobSafely(job Job) {
	name := job.Name()

	s.mu.Lock()
	if s.running[name] {
		s.logger.Debug("Skipping job execution - previous run still active", slog.String("job", name))
		s.mu.Unlock()
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", name),
				slog.Any("panic", r))
		}
		s.mu.Lock()
		s.running[name] = false
		s.mu.Unlock()
	}()

	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", name), slog.Any("error", err))
		return
	}
	s.logger.Debug("Job finished", slog.String("job", name), slog.Duration("took", time.Since(started)))
}

// RunNow executes job once on the calling goroutine with the same guards
// as a scheduled run.
func (s *Scheduler) RunNow(job Job) {
	s.executeJobSafely(job)
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}
	s.cron.Start()
	s.isRunning = true
	s.logger.Info("Background jobs started", slog.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.cancel()
	<-s.cron.Stop().Done()

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
	s.logger.Info("Background jobs stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
