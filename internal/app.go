// Package internal provides the App struct that wires all components of the
// AI Context Engine together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/ai-context-engine/internal/cli"
	"github.com/valter-silva-au/ai-context-engine/internal/engine"
	"github.com/valter-silva-au/ai-context-engine/internal/gitops"
	"github.com/valter-silva-au/ai-context-engine/internal/hooks"
	"github.com/valter-silva-au/ai-context-engine/internal/observability"
	"github.com/valter-silva-au/ai-context-engine/internal/storage"
	"github.com/valter-silva-au/ai-context-engine/pkg/models"
)

// App holds all service dependencies for the AI Context Engine.
type App struct {
	BasePath string
	Config   *models.EngineConfig

	// Storage layer
	Store   storage.Store
	Records *storage.RecordStore

	// Version control
	Repo *gitops.Repository

	// Core engine
	Engine *engine.Engine

	// Capture
	Tracker  *hooks.ChangeTracker
	Capturer *hooks.Capturer

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
}

// NewApp creates and wires all components. basePath is the workspace root
// containing .acerc and the .ace data directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	cfgMgr := engine.NewConfigurationManager(basePath)
	cfg, err := cfgMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfgMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	storePath := cfg.StorePath
	if !filepath.IsAbs(storePath) {
		storePath = filepath.Join(basePath, storePath)
	}
	app.Store, err = storage.NewSQLiteStore(storePath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	app.Records = storage.NewRecordStore(app.Store)

	// --- Version control ---
	repoPath := cfg.RepoPath
	if repoPath == "" {
		repoPath = basePath
	}
	// Non-fatal: without a repository, transition evidence carries run
	// references but no resolved chunks.
	app.Repo, _ = gitops.Open(repoPath)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".ace_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	// --- Engine ---
	var vcs engine.VersionControl
	if app.Repo != nil {
		vcs = app.Repo
	}
	var events engine.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
	}
	app.Engine, err = engine.New(*cfg, app.Records, vcs, events)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	// --- Capture ---
	app.Tracker = hooks.NewChangeTracker(basePath)
	var baseline hooks.BaselineReader
	if app.Repo != nil {
		baseline = app.Repo
	}
	app.Capturer = hooks.NewCapturer(basePath, app.Tracker, baseline)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Engine = app.Engine
	cli.Records = app.Records
	cli.Repo = app.Repo
	cli.Tracker = app.Tracker
	cli.Capturer = app.Capturer
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close releases resources held by the App: the store and the event log.
func (a *App) Close() error {
	var firstErr error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			firstErr = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResolveBasePath determines the workspace root. It checks the ACE_HOME env
// var, then walks up from the current directory looking for .acerc.
func ResolveBasePath() string {
	if home := os.Getenv("ACE_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	// Walk up to find a directory containing .acerc.
	for {
		if _, err := os.Stat(filepath.Join(dir, ".acerc")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Fall back to cwd.
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to engine.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Append(eventType, data)
}
