// Package cron runs the background maintenance sweeps: event log
// rotation and expired ledger cleanup.
package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tether/pkg/logger"
)

// taskTimeout bounds a single task run.
const taskTimeout = time.Minute

// Task is one scheduled maintenance job.
type Task struct {
	Name     string
	Schedule string // cron spec, 5-field or 6-field with seconds
	Run      func(ctx context.Context) error
}

// TaskStatus is the observed run history of one task.
type TaskStatus struct {
	Name    string    `json:"name"`
	Runs    int64     `json:"runs"`
	LastRun time.Time `json:"last_run"`
	LastErr string    `json:"last_error,omitempty"`
}

// Scheduler drives a fixed set of maintenance tasks on cron schedules.
// Overlapping runs of the same task are skipped, not queued.
type Scheduler struct {
	cron *cron.Cron
	log  *zerolog.Logger

	mu      sync.Mutex
	running bool
	entries map[string]cron.EntryID
	status  map[string]*TaskStatus

	wg        sync.WaitGroup
	executing sync.Map // task name -> start time
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     logger.Component("cron"),
		entries: make(map[string]cron.EntryID),
		status:  make(map[string]*TaskStatus),
	}
}

// Register adds a task. A 5-field schedule gets a zero seconds field
// prepended so both classic and seconds-resolution specs work.
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" || task.Run == nil {
		return errors.New("task needs a name and a run function")
	}

	schedule := task.Schedule
	if len(strings.Fields(schedule)) == 5 {
		schedule = "0 " + schedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[task.Name]; ok {
		return fmt.Errorf("task %s already registered", task.Name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runTask(task)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule for task %s: %w", task.Name, err)
	}

	s.entries[task.Name] = entryID
	s.status[task.Name] = &TaskStatus{Name: task.Name}
	return nil
}

// Start begins scheduling. Safe to call once.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}
	s.cron.Start()
	s.running = true
	s.log.Info().Int("tasks", len(s.entries)).Msg("Maintenance scheduler started")
	return nil
}

// Stop stops scheduling and waits for running tasks, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("Stopped with maintenance tasks still running")
	}

	s.log.Info().Msg("Maintenance scheduler stopped")
	return nil
}

// Entries returns the number of registered tasks.
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Status returns a snapshot of every task's run history.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskStatus, 0, len(s.status))
	for _, st := range s.status {
		out = append(out, *st)
	}
	return out
}

// runTask executes one task with the overlap guard and records the
// outcome.
func (s *Scheduler) runTask(task Task) {
	started := time.Now()
	if prev, loaded := s.executing.LoadOrStore(task.Name, started); loaded {
		s.log.Warn().
			Str("task", task.Name).
			Time("previous_start", prev.(time.Time)).
			Msg("Skipping overlapping task run")
		return
	}
	defer s.executing.Delete(task.Name)

	s.wg.Add(1)
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	err := task.Run(ctx)

	s.mu.Lock()
	if st, ok := s.status[task.Name]; ok {
		st.Runs++
		st.LastRun = started
		if err != nil {
			st.LastErr = err.Error()
		} else {
			st.LastErr = ""
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).
			Str("task", task.Name).
			Dur("elapsed", time.Since(started)).
			Msg("Maintenance task failed")
		return
	}
	s.log.Debug().
		Str("task", task.Name).
		Dur("elapsed", time.Since(started)).
		Msg("Maintenance task finished")
}
