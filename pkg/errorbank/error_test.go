package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestStatusAndGRPCMapping(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("x"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("x"), http.StatusUnauthorized, codes.Unauthenticated},
		{Forbidden("x"), http.StatusForbidden, codes.PermissionDenied},
		{Conflict("x"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("x"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("x"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("x"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range tests {
		t.Run(string(tc.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode())
			assert.Equal(t, tc.code, tc.err.GRPCCode())
		})
	}
}

func TestNilAppError(t *testing.T) {
	var appErr *AppError

	assert.Equal(t, KindInternal, appErr.Kind())
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	assert.Equal(t, "", appErr.Reason())
	assert.Nil(t, appErr.Unwrap())
}

func TestCauseIsReachable(t *testing.T) {
	sentinel := errors.New("boom")
	appErr := BadRequest("bad thing", WithCause(sentinel), WithReason("invalid_state"))

	assert.ErrorIs(t, appErr, sentinel)
	assert.Equal(t, "bad thing: boom", appErr.Error())
	assert.Equal(t, "invalid_state", appErr.Reason())
	assert.Equal(t, "bad thing", appErr.Message())
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	wrapped := fmt.Errorf("outer: %w", Forbidden("nope"))
	got := From(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, KindForbidden, got.Kind())

	plain := errors.New("db down")
	got = From(plain)
	assert.Equal(t, KindInternal, got.Kind())
	assert.ErrorIs(t, got, plain)
}

func TestDetailsMerge(t *testing.T) {
	appErr := NotFound("", WithDetail("id", 7), WithDetails(map[string]any{"kind": "order"}))

	assert.Equal(t, "not_found", appErr.Message())
	assert.Equal(t, map[string]any{"id": 7, "kind": "order"}, appErr.Details())
}

func TestKindAndReasonOf(t *testing.T) {
	wrapped := fmt.Errorf("convert: %w", BadRequest("no stock", WithReason("insufficient_stock")))

	assert.Equal(t, KindBadRequest, KindOf(wrapped))
	assert.Equal(t, "insufficient_stock", ReasonOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, "", ReasonOf(nil))
}

func TestUnknownKindIsInternal(t *testing.T) {
	appErr := New(Kind("teapot"), "short and stout")

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode())
	assert.Equal(t, codes.Internal, appErr.GRPCCode())
}
