package workspace

import (
	"log/slog"
	"os/exec"
	"runtime"
)

// OpenFolder asks the platform file manager to show the given directory.
// Best effort only: a desktop-less environment is not an error worth
// failing a finished run over.
func OpenFolder(log *slog.Logger, path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		log.Warn("could not open event folder", slog.String("path", path), slog.Any("err", err))
	}
}
