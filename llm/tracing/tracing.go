// Package tracing registers optional eino callback handlers.
package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"legisqa/config"

	clc "github.com/cloudwego/eino-ext/callbacks/cozeloop"
	"github.com/cloudwego/eino/callbacks"
	"github.com/coze-dev/cozeloop-go"
)

// Handlers builds the callback handlers enabled by cfg. The returned close
// function flushes pending traces and is always safe to call.
func Handlers(cfg config.Config) ([]callbacks.Handler, func(context.Context), error) {
	noop := func(context.Context) {}
	if cfg.CozeloopAPIToken == "" || cfg.CozeloopWorkspaceID == "" {
		return nil, noop, nil
	}

	client, err := cozeloop.NewClient(
		cozeloop.WithAPIToken(cfg.CozeloopAPIToken),
		cozeloop.WithWorkspaceID(cfg.CozeloopWorkspaceID),
	)
	if err != nil {
		return nil, noop, fmt.Errorf("create cozeloop client: %w", err)
	}
	closeFn := func(ctx context.Context) { client.Close(ctx) }
	return []callbacks.Handler{clc.NewLoopHandler(client)}, closeFn, nil
}

// Setup registers the handlers enabled by cfg globally. Call it once, before
// any graph is compiled.
func Setup(cfg config.Config, log *slog.Logger) (func(context.Context), error) {
	handlers, closeFn, err := Handlers(cfg)
	if err != nil {
		return closeFn, err
	}
	if len(handlers) == 0 {
		log.Debug("tracing disabled")
		return closeFn, nil
	}
	callbacks.AppendGlobalHandlers(handlers...)
	log.Info("cozeloop tracing enabled", "workspace", cfg.CozeloopWorkspaceID)
	return closeFn, nil
}
