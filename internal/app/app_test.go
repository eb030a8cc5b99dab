package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	t.Setenv("SCHEDORDER_DATABASE_DSN", ":memory:")
	cfg, err := common.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestBuild_WithStore(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t), nil, Options{Store: true})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Store)
	require.NoError(t, a.Health(ctx))

	res := a.Service.ProcessUpload(ctx, extraction.Upload{
		Filename: "order.txt",
		Data:     []byte("Case No. 24-CV-1001\nDiscovery deadline: January 5, 2099\n"),
	})
	require.True(t, res.Outcome.Success, res.Outcome.ErrorMessage())
	assert.NotNil(t, res.OrderID)
}

func TestBuild_WithoutStore(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t), nil, Options{})
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Store)
	assert.NoError(t, a.Health(context.Background()))
}

func TestBuild_CustomKeywords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- category: TRIAL\n  keywords: [calendar call]\n"), 0o600))

	cfg := testConfig(t)
	cfg.Extraction.KeywordsFile = path
	a, err := Build(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, constants.Trial, a.Keywords.Category("Calendar Call on the docket"))

	cfg.Extraction.KeywordsFile = filepath.Join(dir, "missing.yaml")
	_, err = Build(context.Background(), cfg, nil, Options{})
	require.Error(t, err)
}
