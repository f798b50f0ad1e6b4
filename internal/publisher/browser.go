package publisher

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser launches rawURL in the user's default browser. Platform
// openers offer no window-size control, so the share composer opens in a
// normal tab rather than the fixed-size popup a web client would use.
func OpenBrowser(rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}
