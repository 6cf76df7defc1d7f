// Package launch runs external scripts as background jobs of the console.
//
// A Launcher tracks every job it starts, streams the script's output to the
// console writer, and announces the exit status when the script finishes.
// Shutdown terminates stragglers gracefully and escalates after a timeout.
package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/Jajasek/conch/internal/logging"
)

// Sentinel errors for the launch package.
var (
	// ErrShutdown is returned when the launcher is shutting down.
	ErrShutdown = fmt.Errorf("launcher is shutting down")

	// ErrJobNotFound is returned for operations on unknown job IDs.
	ErrJobNotFound = fmt.Errorf("job not found")
)

// Job is one running (or finished) script.
type Job struct {
	// ID is the unique job identifier.
	ID string

	// Name is the script path as given to Launch.
	Name string

	// Started is the time the script was started.
	Started time.Time

	cmd      *exec.Cmd
	done     chan struct{}
	exitCode atomic.Int32
}

// Done returns a channel closed when the script exits.
func (j *Job) Done() <-chan struct{} { return j.done }

// ExitCode returns the script's exit code, or -1 while it is running.
func (j *Job) ExitCode() int { return int(j.exitCode.Load()) }

// Running reports whether the script is still alive.
func (j *Job) Running() bool {
	select {
	case <-j.done:
		return false
	default:
		return true
	}
}

// PID returns the operating system process ID, or -1 if not started.
func (j *Job) PID() int {
	if j.cmd.Process == nil {
		return -1
	}
	return j.cmd.Process.Pid
}

// Launcher starts and tracks script jobs. Safe for concurrent use.
type Launcher struct {
	mu   sync.Mutex
	jobs map[string]*Job
	wg   sync.WaitGroup

	out    io.Writer
	log    *logging.Logger
	closed atomic.Bool
}

// NewLauncher returns a launcher writing script output and exit
// announcements to out.
func NewLauncher(out io.Writer, log *logging.Logger) *Launcher {
	if out == nil {
		out = os.Stdout
	}
	if log == nil {
		log = logging.Null
	}
	return &Launcher{
		jobs: make(map[string]*Job),
		out:  out,
		log:  log.WithComponent("launch"),
	}
}

// Launch starts path with args as a background job. The script file must
// exist; its stdout and stderr are wired to the launcher's writer. The
// returned job is already running.
func (l *Launcher) Launch(ctx context.Context, path string, args ...string) (*Job, error) {
	if l.closed.Load() {
		return nil, ErrShutdown
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("script %s: is a directory", path)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = l.out
	cmd.Stderr = l.out

	job := &Job{
		ID:   uuid.New().String(),
		Name: path,
		cmd:  cmd,
		done: make(chan struct{}),
	}
	job.exitCode.Store(-1)

	l.mu.Lock()
	if l.closed.Load() {
		l.mu.Unlock()
		return nil, ErrShutdown
	}
	if err := cmd.Start(); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	job.Started = time.Now()
	l.jobs[job.ID] = job
	l.wg.Add(1)
	l.mu.Unlock()

	l.log.Debug("launched %s (pid %d, job %s)", path, job.PID(), job.ID)
	go l.monitor(job)
	return job, nil
}

// monitor waits for the job to exit, announces the result, and forgets it.
func (l *Launcher) monitor(job *Job) {
	defer l.wg.Done()

	err := job.cmd.Wait()
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	job.exitCode.Store(int32(code))
	close(job.done)

	fmt.Fprintf(l.out, "script '%s' exited with code %d\n", job.Name, code)
	l.log.Debug("job %s finished with code %d", job.ID, code)

	l.mu.Lock()
	delete(l.jobs, job.ID)
	l.mu.Unlock()
}

// Jobs returns the currently running jobs, oldest first.
func (l *Launcher) Jobs() []*Job {
	l.mu.Lock()
	defer l.mu.Unlock()
	jobs := make([]*Job, 0, len(l.jobs))
	for _, j := range l.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Started.Before(jobs[k].Started) })
	return jobs
}

// Count returns the number of running jobs.
func (l *Launcher) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.jobs)
}

// Kill forcibly terminates a job by ID.
func (l *Launcher) Kill(id string) error {
	l.mu.Lock()
	job, ok := l.jobs[id]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.cmd.Process.Kill()
}

// Shutdown stops accepting new jobs, sends SIGTERM to every running
// script, and escalates to SIGKILL for whatever is still alive after
// the timeout. It blocks until all monitors have finished.
func (l *Launcher) Shutdown(timeout time.Duration) {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}

	l.mu.Lock()
	jobs := make([]*Job, 0, len(l.jobs))
	for _, j := range l.jobs {
		jobs = append(jobs, j)
	}
	l.mu.Unlock()

	for _, j := range jobs {
		if err := j.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			l.log.Warn("terminate job %s: %v", j.ID, err)
		}
	}

	deadline := time.After(timeout)
	for _, j := range jobs {
		select {
		case <-j.done:
		case <-deadline:
			for _, k := range jobs {
				if k.Running() {
					_ = k.cmd.Process.Kill()
				}
			}
			// Drain the rest; Kill guarantees they exit.
			for _, k := range jobs {
				<-k.done
			}
			l.wg.Wait()
			return
		}
	}
	l.wg.Wait()
}
