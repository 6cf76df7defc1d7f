package launch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jajasek/conch/internal/launch"
)

// syncWriter serializes writes from script pipes and announcements.
type syncWriter struct {
	mu sync.Mutex
	b  strings.Builder
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.Write(p)
}

func (w *syncWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.b.String()
}

func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	path := filepath.Join(t.TempDir(), "job.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLaunchStreamsOutputAndAnnouncesExit(t *testing.T) {
	out := &syncWriter{}
	l := launch.NewLauncher(out, nil)
	path := script(t, "echo hello from job\nexit 3\n")

	job, err := l.Launch(context.Background(), path)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	<-job.Done()
	// The announcement is written by the monitor goroutine after done
	// closes; drain it.
	l.Shutdown(time.Second)

	if job.ExitCode() != 3 {
		t.Errorf("exit code = %d, want 3", job.ExitCode())
	}
	got := out.String()
	if !strings.Contains(got, "hello from job\n") {
		t.Errorf("script output missing: %q", got)
	}
	want := fmt.Sprintf("script '%s' exited with code 3\n", path)
	if !strings.Contains(got, want) {
		t.Errorf("announcement missing: %q", got)
	}
}

func TestLaunchMissingScript(t *testing.T) {
	l := launch.NewLauncher(&syncWriter{}, nil)
	if _, err := l.Launch(context.Background(), filepath.Join(t.TempDir(), "nope.sh")); err == nil {
		t.Fatal("Launch accepted a missing script")
	}
}

func TestLaunchDirectoryRejected(t *testing.T) {
	l := launch.NewLauncher(&syncWriter{}, nil)
	if _, err := l.Launch(context.Background(), t.TempDir()); err == nil {
		t.Fatal("Launch accepted a directory")
	}
}

func TestJobsTracksRunningJobs(t *testing.T) {
	l := launch.NewLauncher(&syncWriter{}, nil)
	path := script(t, "sleep 5\n")

	job, err := l.Launch(context.Background(), path)
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	jobs := l.Jobs()
	if len(jobs) != 1 || jobs[0].ID != job.ID {
		t.Errorf("Jobs = %v, want the running job", jobs)
	}
	if !job.Running() {
		t.Error("job reported as finished while sleeping")
	}

	if err := l.Kill(job.ID); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	<-job.Done()
	l.Shutdown(time.Second)
	if l.Count() != 0 {
		t.Errorf("Count = %d after kill, want 0", l.Count())
	}
}

func TestKillUnknownJob(t *testing.T) {
	l := launch.NewLauncher(&syncWriter{}, nil)
	if err := l.Kill("no-such-id"); err == nil {
		t.Fatal("Kill accepted an unknown ID")
	}
}

func TestShutdownTerminatesJobsAndRefusesNew(t *testing.T) {
	l := launch.NewLauncher(&syncWriter{}, nil)
	path := script(t, "sleep 30\n")

	if _, err := l.Launch(context.Background(), path); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	done := make(chan struct{})
	go func() {
		l.Shutdown(2 * time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	if _, err := l.Launch(context.Background(), path); err != launch.ErrShutdown {
		t.Errorf("Launch after shutdown = %v, want ErrShutdown", err)
	}
}
