package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
)

func TestGraphs(t *testing.T) {
	tests := map[string]fx.Option{
		"http":    HTTP,
		"worker":  Worker,
		"migrate": Migrate,
		"seed":    Seed,
		"orders":  Core,
	}
	for name, opts := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, fx.ValidateApp(opts, fx.NopLogger))
		})
	}
}
