package router

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"mcwatch/internal/transport"
	logx "mcwatch/pkg/logx"
)

type HandlerFunc func(ctx context.Context, inv *transport.Invocation) (string, error)

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *transport.Invocation) (string, error) {
			if d <= 0 {
				return next(ctx, inv)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, inv)
		}
	}
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *transport.Invocation) (reply string, err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in command handler",
						logx.Any("panic", r),
						logx.Stack(string(debug.Stack())))
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, inv)
		}
	}
}

func MWRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *transport.Invocation) (string, error) {
			start := time.Now()
			reply, err := next(ctx, inv)
			log.Debug("command handled",
				logx.String("command", inv.Command),
				logx.String("guild", inv.GuildID),
				logx.String("user", inv.UserID),
				logx.Duration("took", time.Since(start)),
				logx.Err(err))
			return reply, err
		}
	}
}
