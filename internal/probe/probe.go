package probe

import (
	"context"
	"fmt"
	"time"

	"mcwatch/internal/store"
	logx "mcwatch/pkg/logx"
)

const DefaultTimeout = 5 * time.Second

// Pinger probes servers with a bounded wall-clock budget per attempt.
// It is stateless and safe for concurrent use.
type Pinger struct {
	timeout time.Duration
	log     logx.Logger
}

func New(timeout time.Duration, log logx.Logger) *Pinger {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Pinger{timeout: timeout, log: log}
}

// Ping queries one server and returns its status, selecting the wire protocol
// by the entry's edition.
//
// The budget is enforced twice: the inner query derives its network deadlines
// from the context, and the outer select below resolves to ErrTimeout even if
// the inner call never returns (e.g. a DNS or dial path that ignores the
// deadline). The result channel is buffered so a late inner result is dropped
// without leaking the goroutine.
func (p *Pinger) Ping(ctx context.Context, srv store.Server) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		st  Status
		err error
	}
	ch := make(chan result, 1)
	start := time.Now()

	go func() {
		var st Status
		var err error
		if srv.Edition == store.EditionBedrock {
			st, err = pingBedrock(ctx, srv.Host, srv.Port)
		} else {
			st, err = pingJava(ctx, srv.Host, srv.Port)
		}
		ch <- result{st: st, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			if ctx.Err() != nil {
				return Status{}, fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
			}
			return Status{}, r.err
		}
		r.st.Latency = time.Since(start)
		return r.st, nil
	case <-ctx.Done():
		return Status{}, fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
	}
}
