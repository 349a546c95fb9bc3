package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/bstlca/xerrors"
	"google.golang.org/grpc/codes"
)

const sample = "6,2,8,0,4,7,9,null,null,3,5"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newCLI(&out, io.Discard).execute(context.Background(), args)
	return out.String(), err
}

func TestQueryAllStrategies(t *testing.T) {
	out, err := run(t, "query", "--tree", sample, "-p", "2", "-q", "8")
	require.NoError(t, err)
	assert.Equal(t, "memoized: 6\nconstructive: 6\nbruteforce: 6\n", out)
}

func TestQuerySingleStrategy(t *testing.T) {
	out, err := run(t, "query", "--tree", sample, "-p", "3", "-q", "5", "--strategy", "constructive")
	require.NoError(t, err)
	assert.Equal(t, "constructive: 4\n", out)

	_, err = run(t, "query", "--tree", sample, "-p", "3", "-q", "5", "--strategy", "guess")
	assert.True(t, errors.Is(err, xerrors.ErrUnknownStrategy))
}

func TestQueryAbsent(t *testing.T) {
	out, err := run(t, "query", "--tree", sample, "-p", "0", "-q", "100", "--strategy", "bruteforce")
	require.NoError(t, err)
	assert.Equal(t, "bruteforce: none\n", out)
}

func TestPath(t *testing.T) {
	out, err := run(t, "path", "--tree", "[6,2,8,0,4,7,9,null,null,3,5]", "--value", "5")
	require.NoError(t, err)
	assert.Equal(t, "6 -> 2 -> 4 -> 5\n", out)

	out, err = run(t, "path", "--tree", sample, "--value", "1")
	require.NoError(t, err)
	assert.Equal(t, "none\n", out)
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "--tree", sample)
	require.NoError(t, err)
	assert.Equal(t, "valid: 9 nodes, height 4, in-order [0 2 3 4 5 6 7 8 9]\n", out)

	_, err = run(t, "validate", "--tree", "5,6,4")
	assert.True(t, errors.Is(err, xerrors.ErrNotBST))

	_, err = run(t, "validate")
	assert.True(t, errors.Is(err, xerrors.ErrEmptySequence))
}

func TestConfigCommand(t *testing.T) {
	out, err := run(t, "config")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	lcaCfg := cfg["LCA"].(map[string]any)
	assert.Equal(t, "map", lcaCfg["MemoBackend"])
}

func TestShutdownRunsOnFailure(t *testing.T) {
	c := newCLI(io.Discard, io.Discard)
	var closed int
	c.shutdown = append(c.shutdown, func() { closed++ })

	err := c.execute(context.Background(), []string{"validate", "--tree", "5,6,4"})
	require.Error(t, err)
	assert.Equal(t, 1, closed)
	assert.Nil(t, c.shutdown)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, int(codes.InvalidArgument), exitCode(xerrors.NotBST(6, 1)))
	assert.Equal(t, int(codes.Internal), exitCode(fmt.Errorf("query: %w", xerrors.StrategyDisagreement(6, 4, nil))))
	assert.Equal(t, int(codes.Canceled), exitCode(xerrors.FromContext(context.Canceled)))
	assert.Equal(t, int(codes.Unknown), exitCode(errors.New("plain")))

	_, err := run(t, "query", "--tree", sample, "-p", "1", "-q", "2", "--strategy", "guess")
	assert.Equal(t, int(codes.InvalidArgument), exitCode(err))
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, xerrors.NotBST(6, 1))
	assert.Contains(t, buf.String(), "status InvalidArgument, http 400")
	assert.Contains(t, buf.String(), "detail: node 6 at index 1 violates ordering")

	buf.Reset()
	report(&buf, errors.New("plain"))
	assert.Equal(t, "Error: plain\n", buf.String())
}
