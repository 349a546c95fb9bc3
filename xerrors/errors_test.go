package xerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := NotBST(3, 4)
	assert.True(t, errors.Is(err, ErrNotBST))
	assert.False(t, errors.Is(err, ErrEmptySequence))

	wrapped := fmt.Errorf("load: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotBST))

	e, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 3, e.Context["value"])
	assert.Equal(t, 4, e.Context["index"])
	assert.NotEmpty(t, e.Stack)
}

func TestWrapKeepsTypeAndDoesNotMutate(t *testing.T) {
	orig := InvalidToken(2, "x", nil)
	w := Wrap(orig, ErrInternal, "parse failed")
	require.NotNil(t, w)

	assert.Equal(t, ErrInvalidArg, w.Type)
	assert.Equal(t, ErrInvalidToken.Code, w.Code)
	assert.Equal(t, "parse failed", w.Message)
	assert.Equal(t, "invalid token", orig.Message)
	assert.True(t, errors.Is(w, ErrInvalidToken))

	assert.Nil(t, Wrap(nil, ErrInternal, "noop"))
}

func TestProtocolMapping(t *testing.T) {
	cases := []struct {
		err   *Error
		http  int
		grpcC codes.Code
	}{
		{NotBST(3, 4), http.StatusBadRequest, codes.InvalidArgument},
		{UnknownStrategy("guess"), http.StatusBadRequest, codes.InvalidArgument},
		{StrategyDisagreement(2, 8, nil), http.StatusInternalServerError, codes.Internal},
		{FromContext(context.Canceled), 499, codes.Canceled},
		{FromContext(context.DeadlineExceeded), http.StatusGatewayTimeout, codes.DeadlineExceeded},
		{New(ErrNotFound, 404, "missing", "", nil), http.StatusNotFound, codes.NotFound},
	}
	for _, c := range cases {
		assert.Equal(t, c.http, c.err.HTTPStatus())
		assert.Equal(t, c.grpcC, c.err.GRPCCode())
		assert.Equal(t, c.grpcC, c.err.ToGRPCStatus().Code())
	}
}

func TestFromContext(t *testing.T) {
	assert.Nil(t, FromContext(nil))

	err := FromContext(context.Canceled)
	assert.Equal(t, ErrCanceled, err.Type)
	assert.True(t, errors.Is(err, context.Canceled))

	err = FromContext(fmt.Errorf("wait: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrDeadlineExceeded, err.Type)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
