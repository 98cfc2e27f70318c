package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nrbrt02/fast-shopping/pkg/errorbank"
)

func TestToStatus(t *testing.T) {
	assert.NoError(t, ToStatus(nil))

	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"forbidden", errorbank.Forbidden("not yours"), codes.PermissionDenied, "not yours"},
		{"wrapped not found", fmt.Errorf("lookup: %w", errorbank.NotFound("draft order not found")), codes.NotFound, "draft order not found"},
		{"plain", errors.New("boom"), codes.Internal, "internal error"},
		{"status passthrough", status.Error(codes.Unavailable, "later"), codes.Unavailable, "later"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(tc.err))
			require.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.msg, st.Message())
		})
	}
}
