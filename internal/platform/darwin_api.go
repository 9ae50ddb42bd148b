//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const frontmostScript = `tell application "System Events" to get name of first application process whose frontmost is true`

// DarwinAPI resolves focus through System Events
type DarwinAPI struct{}

// NewDarwinAPI creates a new macOS API instance
func NewDarwinAPI() *DarwinAPI {
	return &DarwinAPI{}
}

// NewFocusSource returns the focus resolver for this platform
func NewFocusSource() FocusSource {
	return NewDarwinAPI()
}

// CurrentFocus returns the name of the frontmost application process
func (d *DarwinAPI) CurrentFocus() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "osascript", "-e", frontmostScript).Output()
	if err != nil {
		return "", focusError("osascript", fmt.Errorf("frontmost application: %w", err))
	}
	return strings.TrimSpace(string(out)), nil
}
