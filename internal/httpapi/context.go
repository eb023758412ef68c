package httpapi

import (
	"context"
)

// serverBaseCtx is a process-level context that can be canceled on shutdown.
// Defaults to Background if not set.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// predictContext derives the context handed to Predict: it ends with the
// request, with server shutdown, or after predictTimeout.
func predictContext(req context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(req)
	stop := context.AfterFunc(serverBaseCtx, cancel)
	if predictTimeout <= 0 {
		return ctx, func() { stop(); cancel() }
	}
	tctx, tcancel := context.WithTimeout(ctx, predictTimeout)
	return tctx, func() { tcancel(); stop(); cancel() }
}
