package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const cleanupTimeout = 30 * time.Second

// SweepFunc deletes expired rows and returns how many were removed.
type SweepFunc func(ctx context.Context) (int64, error)

// Task is one named sweep run on every tick.
type Task struct {
	Name  string
	Sweep SweepFunc
}

// CleanupJob periodically removes expired pairing codes. Expiry is already
// enforced on read, so this only keeps storage from growing.
type CleanupJob struct {
	tasks    []Task
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewCleanupJob(interval time.Duration, tasks ...Task) *CleanupJob {
	return &CleanupJob{
		tasks:    tasks,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().Dur("interval", j.interval).Int("tasks", len(j.tasks)).Msg("cleanup job started")
}

// Stop ends the loop and waits for a running sweep to finish.
func (j *CleanupJob) Stop() {
	close(j.done)
	j.wg.Wait()
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	for _, task := range j.tasks {
		j.runCleanup(ctx, task.Name, task.Sweep)
	}
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn SweepFunc) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
