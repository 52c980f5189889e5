package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/rwclient/internal/backup"
)

const defaultRunTimeout = 10 * time.Minute

// Runner performs one backup pass
type Runner interface {
	Run(ctx context.Context) (*backup.Result, error)
}

// BackupScheduler runs periodic backups of the Readwise library
type BackupScheduler struct {
	runner   Runner
	schedule string
	log      logrus.FieldLogger

	// AfterRun is called after every successful pass, e.g. to refresh a markdown export
	AfterRun func(ctx context.Context, result *backup.Result) error

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	baseCtx    context.Context
	cancelFunc context.CancelFunc
	runTimeout time.Duration
}

func NewBackupScheduler(runner Runner, schedule string, log logrus.FieldLogger) *BackupScheduler {
	if log == nil {
		quiet := logrus.New()
		quiet.Out = io.Discard
		log = quiet
	}
	return &BackupScheduler{
		runner:     runner,
		schedule:   schedule,
		log:        log,
		cron:       cron.New(cron.WithParser(cronParser)),
		baseCtx:    context.Background(),
		runTimeout: defaultRunTimeout,
	}
}

// Start begins the scheduler. Cancelling ctx stops it.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runBackup)
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)
	s.baseCtx = cancelCtx

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.schedule, time.Now())
	s.log.WithFields(logrus.Fields{
		"schedule":    s.schedule,
		"description": CronDescription(s.schedule),
		"next_run":    nextRun,
	}).Info("Backup scheduler: started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running backup to complete
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.baseCtx = context.Background()
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}

	s.log.Info("Backup scheduler: stopped")
}

// RunNow triggers an immediate backup in the background
func (s *BackupScheduler) RunNow() {
	go s.runBackup()
}

func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a backup is currently in progress
func (s *BackupScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// NextRun returns when the next backup will occur, or nil when stopped
func (s *BackupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *BackupScheduler) runBackup() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		s.log.Warn("Backup: skipped (already running)")
		return
	}
	s.isSyncing = true
	baseCtx := s.baseCtx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(baseCtx, s.runTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.log.WithError(err).Error("Backup: scheduled run failed")
		return
	}

	if s.AfterRun != nil {
		if err := s.AfterRun(ctx, result); err != nil {
			s.log.WithError(err).Error("Backup: post-run hook failed")
		}
	}
}
