package auth

import (
	"context"
	"log"
	"time"
)

// Revalidator periodically revokes refresh tokens whose owning profile is
// missing or no longer approved, so an approval change takes effect within
// one interval even for idle sessions. It is a cancellable task owned by
// the process lifecycle: Start it once, Stop it on shutdown. A failing
// sweep is logged and retried on the next tick.
type Revalidator struct {
	Tokens   TokenStore
	Interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the sweep loop. It is a no-op if already started.
func (r *Revalidator) Start(parent context.Context) {
	if r.done != nil {
		return
	}
	if r.Interval <= 0 {
		r.Interval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (r *Revalidator) Stop() {
	if r.done == nil {
		return
	}
	r.cancel()
	<-r.done
	r.done = nil
}

func (r *Revalidator) sweep(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	n, err := r.Tokens.RevokeUnapproved(sctx)
	if err != nil {
		log.Printf("revalidator: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("revalidator: revoked %d token(s) for unapproved or deleted users", n)
	}
}
