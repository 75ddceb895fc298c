package tracing

import (
	"context"
	"testing"

	"legisqa/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_DisabledWithoutCredentials(t *testing.T) {
	tests := map[string]config.Config{
		"none":           {},
		"token-only":     {CozeloopAPIToken: "tok"},
		"workspace-only": {CozeloopWorkspaceID: "ws"},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			handlers, closeFn, err := Handlers(cfg)
			require.NoError(t, err)
			assert.Empty(t, handlers)
			require.NotNil(t, closeFn)
			closeFn(context.Background())
		})
	}
}
