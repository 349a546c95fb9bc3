package bootstrap

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/bstlca/config"
	"github.com/wyfcoding/bstlca/logging"
	"github.com/wyfcoding/bstlca/xerrors"
)

func TestInitializeDefaults(t *testing.T) {
	b := New("bstlca-test", "v0.1.0")
	b.LogOutput = io.Discard
	require.NoError(t, b.Initialize(""))

	require.NotNil(t, b.Config)
	assert.Equal(t, "v0.1.0", b.Config.Version)
	assert.True(t, b.Config.Validation.RequireBST)
	require.NotNil(t, b.Logger)
	require.NotNil(t, b.Metrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.BuildInfo.WithLabelValues("bstlca-test", "v0.1.0")))

	b.SetupTracing()()
	b.SetupMetrics()()

	eng, err := b.Engine()
	require.NoError(t, err)
	defer eng.Close()

	tr, err := eng.LoadString(context.Background(), "6,2,8,0,4,7,9,null,null,3,5")
	require.NoError(t, err)
	r, err := eng.Evaluate(context.Background(), tr, 0, 4)
	require.NoError(t, err)
	assert.True(t, r.Agreed)
	assert.Equal(t, 1.0, testutil.ToFloat64(b.Metrics.TreesBuiltTotal.WithLabelValues("ok")))
}

func TestInitializeMissingConfig(t *testing.T) {
	var buf bytes.Buffer
	b := New("bstlca-test", "v0.1.0")
	b.LogOutput = &buf

	err := b.Initialize("/nonexistent/config.toml")
	require.Error(t, err)
	xe, ok := xerrors.FromError(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.ErrInvalidArg, xe.Type)
	assert.Equal(t, "/nonexistent/config.toml", xe.Context["path"])
	assert.Empty(t, buf.String())
	assert.Nil(t, b.Config)
}

func TestOnReloadLogsMaskedConfig(t *testing.T) {
	var buf bytes.Buffer
	b := New("bstlca-test", "v0.1.0")
	b.Logger = logging.NewFromConfig(logging.Config{Service: "bstlca-test", Level: "info", Output: &buf})

	cfg := config.Default()
	cfg.LCA.MemoBackend = "bigcache"
	b.onReload(cfg)

	assert.Contains(t, buf.String(), "effective config reloaded")
	assert.Contains(t, buf.String(), "bigcache")
}
