//go:build linux

package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const commandTimeout = 2 * time.Second

// runCommand executes an external command and returns trimmed stdout
type runCommand func(ctx context.Context, name string, args ...string) (string, error)

func execCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LinuxAPI resolves focus on X11 through xdotool and /proc
type LinuxAPI struct {
	run      runCommand
	procRoot string
}

// NewLinuxAPI creates a new Linux API instance
func NewLinuxAPI() *LinuxAPI {
	return &LinuxAPI{run: execCommand, procRoot: "/proc"}
}

// NewFocusSource returns the focus resolver for this platform
func NewFocusSource() FocusSource {
	return NewLinuxAPI()
}

// CurrentFocus returns the executable name of the process owning the
// active X window. No active window, or one that no process claims through
// _NET_WM_PID (desktop, some docks), is reported as no focus.
func (l *LinuxAPI) CurrentFocus() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	window, err := l.run(ctx, "xdotool", "getactivewindow")
	if err != nil {
		if exitedNonZero(ctx, err) {
			return "", nil
		}
		return "", focusError("active_window", err)
	}
	if window == "" || window == "0" {
		return "", nil
	}

	out, err := l.run(ctx, "xdotool", "getwindowpid", window)
	if err != nil {
		if exitedNonZero(ctx, err) {
			return "", nil
		}
		return "", focusError("window_pid", err)
	}
	pid, err := strconv.Atoi(out)
	if err != nil || pid <= 0 {
		return "", focusError("window_pid", fmt.Errorf("unexpected pid %q", out))
	}

	exePath, err := l.processPath(pid)
	if err != nil {
		return "", focusError("process_path", err)
	}
	return DisplayName(exePath, func() (string, error) {
		return l.run(ctx, "xdotool", "getwindowname", window)
	})
}

// exitedNonZero reports whether the command ran and failed, as opposed to
// not starting or timing out
func exitedNonZero(ctx context.Context, err error) bool {
	var exitErr *exec.ExitError
	return ctx.Err() == nil && errors.As(err, &exitErr) && !errors.Is(err, context.DeadlineExceeded)
}

// processPath prefers the exe link and falls back to comm, which is
// readable for processes of other users too
func (l *LinuxAPI) processPath(pid int) (string, error) {
	dir := filepath.Join(l.procRoot, strconv.Itoa(pid))
	if target, err := os.Readlink(filepath.Join(dir, "exe")); err == nil && target != "" {
		return strings.TrimSuffix(target, " (deleted)"), nil
	}
	comm, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(comm)), nil
}
