//go:build windows

package platform

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
)

// maxTitleLen matches the 1024-character title buffer of the window API
const maxTitleLen = 0x400

// WindowsAPI resolves focus through the foreground window's process image
type WindowsAPI struct{}

// NewWindowsAPI creates a new Windows API instance
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{}
}

// NewFocusSource returns the focus resolver for this platform
func NewFocusSource() FocusSource {
	return NewWindowsAPI()
}

// CurrentFocus returns the executable file name of the foreground window,
// or its title for frame-hosted apps. No foreground window yields "".
func (w *WindowsAPI) CurrentFocus() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", nil
	}

	exePath, err := processImagePath(hwnd)
	if err != nil {
		return "", err
	}
	return DisplayName(exePath, func() (string, error) { return windowTitle(hwnd) })
}

func processImagePath(hwnd uintptr) (string, error) {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", focusError("process_id", errors.New("could not get process id"))
	}

	// Limited access is enough for the image name and works for elevated processes
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", focusError("open_process", err)
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "", focusError("image_name", err)
	}
	return windows.UTF16ToString(buf[:size]), nil
}

func windowTitle(hwnd uintptr) (string, error) {
	buf := make([]uint16, maxTitleLen)
	n, _, callErr := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		if errno, ok := callErr.(syscall.Errno); ok && errno != 0 {
			return "", errno
		}
		return "", errors.New("window has no title")
	}
	return windows.UTF16ToString(buf[:n]), nil
}
