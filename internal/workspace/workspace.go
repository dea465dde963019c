// Package workspace scaffolds the per-event folder inside the shared
// space: Events/<Location>_<MonthYear> with an Output subfolder and a
// copy of the QGIS template, plus the saved settings that carry the space
// path between runs.
package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marmstr93ng/PostcodeParse/internal/config"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/fsutil"
)

const (
	outputFolderName = "Output"
	templateFileName = "Template.qgz"
)

// ErrEventExists reports that the event folder has already been created;
// re-running into an existing event would clobber a previous extraction.
var ErrEventExists = fmt.Errorf("event folder already exists")

// Event holds the resolved paths of a scaffolded event.
type Event struct {
	Dir       string
	OutputDir string
	// PAFPath and ONSDir point into the shared space's data folder.
	PAFPath string
	ONSDir  string
}

type Workspace struct {
	SpacePath string
	Data      config.DataConfig
	Log       *slog.Logger
}

func New(spacePath string, data config.DataConfig, log *slog.Logger) (*Workspace, error) {
	info, err := os.Stat(spacePath)
	if err != nil {
		return nil, fmt.Errorf("workspace: space path %q: %w", spacePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace: space path %q is not a directory", spacePath)
	}

	return &Workspace{SpacePath: spacePath, Data: data, Log: log}, nil
}

// PrepareEvent creates the event folder tree and copies the QGIS template
// into it, renaming Template.qgz after the event location. Individual
// template files that cannot be read are skipped with a warning; a missing
// template folder or project file is fatal.
func (w *Workspace) PrepareEvent(location string, date string) (*Event, error) {
	eventDir := filepath.Join(w.SpacePath, w.Data.EventsFolder, location+"_"+date)

	if _, err := os.Stat(eventDir); err == nil {
		return nil, fmt.Errorf("workspace: %q: %w", eventDir, ErrEventExists)
	}

	outputDir := filepath.Join(eventDir, outputFolderName)
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	templateDir := filepath.Join(w.SpacePath, w.Data.TemplateFolder)
	if err := fsutil.CopyDirContents(w.Log, templateDir, eventDir); err != nil {
		return nil, fmt.Errorf("workspace: copy template: %w", err)
	}

	src := filepath.Join(eventDir, templateFileName)
	dst := filepath.Join(eventDir, location+".qgz")
	if err := os.Rename(src, dst); err != nil {
		return nil, fmt.Errorf("workspace: rename project file: %w", err)
	}

	dataDir := filepath.Join(w.SpacePath, w.Data.FolderName)
	return &Event{
		Dir:       eventDir,
		OutputDir: outputDir,
		PAFPath:   filepath.Join(dataDir, w.Data.PAFFileName),
		ONSDir:    filepath.Join(dataDir, w.Data.ONSFolderName),
	}, nil
}
