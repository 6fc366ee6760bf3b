package bootstrap

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazysearch/lazysearch/internal/config"
	"github.com/lazysearch/lazysearch/internal/index"
	"github.com/lazysearch/lazysearch/internal/index/algolia"
	"github.com/lazysearch/lazysearch/internal/index/mock"
)

func TestNewProvider_DeveloperMode(t *testing.T) {
	cfg := config.Default()
	cfg.DeveloperMode = true

	provider, err := NewProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"movies", "series"}, provider.Names())

	require.NoError(t, provider.Ping(context.Background(), "movies"))

	idx, ok := provider.Index("series")
	require.True(t, ok)
	results, err := idx.Search(context.Background(), index.Request{Query: "loki"})
	require.NoError(t, err)
	assert.Equal(t, 1, results.NbHits)
}

func TestFactory_SelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.DeveloperMode = true
	s, err := Factory(cfg, zerolog.Nop())(index.DefineApp("dev", "", "movies"), "movies")
	require.NoError(t, err)
	assert.IsType(t, &mock.Client{}, s)

	cfg.Algolia.Applications = []config.ApplicationConfig{{AppID: "APP", APIKey: "key", Indexes: []string{"movies"}}}
	s, err = Factory(cfg, zerolog.Nop())(index.DefineApp("APP", "key", "movies"), "movies")
	require.NoError(t, err)
	assert.IsType(t, &algolia.Client{}, s)
}

func TestNewProvider_DuplicateIndex(t *testing.T) {
	cfg := config.Default()
	cfg.Algolia.Applications = []config.ApplicationConfig{
		{AppID: "A", APIKey: "k", Indexes: []string{"movies"}},
		{AppID: "B", APIKey: "k", Indexes: []string{"movies"}},
	}

	_, err := NewProvider(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Format = "json"
	var buf bytes.Buffer

	log := NewLogger(cfg, &buf)
	defer log.Close()
	log.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"message":"hello"`)
	require.NotNil(t, log.Recent())
	assert.Equal(t, 1, log.Recent().Len())
	assert.Empty(t, LogFile(cfg))

	cfg.Logging.Path = "/var/log/lazysearch"
	assert.Equal(t, "/var/log/lazysearch/lazysearch.log", LogFile(cfg))
}
