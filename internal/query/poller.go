// internal/query/poller.go
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const defaultJobTimeout = 30 * time.Second

// Job is a periodic read. Gate, when set, must return true for the job to
// issue any request.
type Job struct {
	Name     string
	Interval time.Duration
	Gate     func() bool
	Run      func(ctx context.Context) error

	logger  *zap.Logger
	timeout time.Duration
}

// RunOnce executes the job if its gate allows it and reports whether it ran.
func (j *Job) RunOnce(ctx context.Context) (bool, error) {
	if j.Gate != nil && !j.Gate() {
		return false, nil
	}
	return true, j.Run(ctx)
}

// cronJob adapts Job to cron.Job.
type cronJob struct {
	job *Job
}

func (c cronJob) Run() {
	timeout := c.job.timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ran, err := c.job.RunOnce(ctx)
	if err != nil && c.job.logger != nil {
		c.job.logger.Warn("poll failed", zap.String("job", c.job.Name), zap.Error(err))
	}
	if !ran && c.job.logger != nil {
		c.job.logger.Debug("poll skipped by gate", zap.String("job", c.job.Name))
	}
}

// Poller schedules Jobs with robfig/cron "@every" specs. Runs of the same
// job may overlap when a request outlives its interval.
type Poller struct {
	cron   *cron.Cron
	logger *zap.Logger

	mu   sync.Mutex
	jobs map[cron.EntryID]*Job
}

func NewPoller(logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		cron:   cron.New(cron.WithLogger(cronLogger{logger.Sugar()})),
		logger: logger,
		jobs:   make(map[cron.EntryID]*Job),
	}
}

// Add schedules job and returns a func that removes it again.
func (p *Poller) Add(job *Job) (func(), error) {
	if job.Interval <= 0 {
		return nil, fmt.Errorf("poll job %s: interval must be positive", job.Name)
	}
	if job.Run == nil {
		return nil, fmt.Errorf("poll job %s: no run func", job.Name)
	}
	job.logger = p.logger
	if job.timeout == 0 {
		job.timeout = job.Interval * 2
	}

	id, err := p.cron.AddJob(fmt.Sprintf("@every %s", job.Interval), cronJob{job: job})
	if err != nil {
		return nil, fmt.Errorf("schedule poll job %s: %w", job.Name, err)
	}

	p.mu.Lock()
	p.jobs[id] = job
	p.mu.Unlock()

	return func() {
		p.cron.Remove(id)
		p.mu.Lock()
		delete(p.jobs, id)
		p.mu.Unlock()
	}, nil
}

// TriggerAll runs every scheduled job once right now, each on its own
// goroutine. Used when a gate flips open.
func (p *Poller) TriggerAll() {
	p.mu.Lock()
	jobs := make([]*Job, 0, len(p.jobs))
	for _, j := range p.jobs {
		jobs = append(jobs, j)
	}
	p.mu.Unlock()

	for _, j := range jobs {
		go cronJob{job: j}.Run()
	}
}

func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func (p *Poller) Start() { p.cron.Start() }

// Stop halts scheduling and waits for running jobs or ctx, whichever ends first.
func (p *Poller) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
