// Package bootstrap builds the services shared by the server and terminal
// binaries from a loaded configuration.
package bootstrap

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/config"
	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/index/algolia"
	"github.com/lazysearch/lazysearch/internal/index/mock"
	"github.com/lazysearch/lazysearch/internal/logger"
)

// RecentLogEntries is the size of the in-memory log buffer served by the API.
const RecentLogEntries = 1000

// NewLogger creates the application logger. A nil console sends console
// output to stdout.
func NewLogger(cfg *config.Config, console io.Writer) *logger.Logger {
	return logger.New(logger.Config{
		Level:         cfg.Logging.Level,
		Format:        cfg.Logging.Format,
		Path:          cfg.Logging.Path,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxBackups:    cfg.Logging.MaxBackups,
		MaxAgeDays:    cfg.Logging.MaxAgeDays,
		Compress:      cfg.Logging.Compress,
		RecentEntries: RecentLogEntries,
		Output:        console,
	})
}

// LogFile returns the path of the rotated log file, or "" when file logging
// is disabled.
func LogFile(cfg *config.Config) string {
	if cfg.Logging.Path == "" {
		return ""
	}
	return filepath.Join(cfg.Logging.Path, logger.FileName)
}

// Factory selects the searcher backend. Developer mode without configured
// applications serves the built-in mock catalog.
func Factory(cfg *config.Config, log zerolog.Logger) index.Factory {
	if cfg.DeveloperMode && len(cfg.Algolia.Applications) == 0 {
		log.Info().Strs("indexes", config.DevIndexes).Msg("Developer mode, serving mock indexes")
		return mock.Factory(cfg.Search.MockLatency)
	}
	return algolia.Factory(cfg.Algolia.Timeout, log)
}

// NewProvider creates the index provider and defines every configured
// application.
func NewProvider(cfg *config.Config, log zerolog.Logger) (*index.Provider, error) {
	provider := index.NewProvider(Factory(cfg, log), cfg.CacheSettings(), log)
	for _, app := range cfg.Applications() {
		if err := provider.Define(app); err != nil {
			return nil, fmt.Errorf("failed to define application %q: %w", app.AppID, err)
		}
	}
	return provider, nil
}
