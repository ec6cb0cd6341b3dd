package cli

import (
	"github.com/valter-silva-au/ai-context-engine/internal/engine"
	"github.com/valter-silva-au/ai-context-engine/internal/gitops"
	"github.com/valter-silva-au/ai-context-engine/internal/hooks"
	"github.com/valter-silva-au/ai-context-engine/internal/observability"
	"github.com/valter-silva-au/ai-context-engine/internal/storage"
)

// Service instances, set during app initialization in app.go.
var (
	// BasePath is the workspace root containing .acerc and .ace/.
	BasePath string

	Engine      *engine.Engine
	Records     *storage.RecordStore
	Repo        *gitops.Repository
	Tracker     *hooks.ChangeTracker
	Capturer    *hooks.Capturer
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)
