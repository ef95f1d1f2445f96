package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is implemented by anything with a cheap connectivity probe, such as
// the recordings catalog.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	}
}

// HeartbeatCheck fails when last reports a time older than maxAge. A zero
// time means the loop has not ticked yet and is treated as healthy for the
// first maxAge after the check is created.
func HeartbeatCheck(last func() time.Time, maxAge time.Duration) CheckFunc {
	created := time.Now()
	return func(ctx context.Context) error {
		beat := last()
		if beat.IsZero() {
			beat = created
		}
		if age := time.Since(beat); age > maxAge {
			return fmt.Errorf("last heartbeat %s ago exceeds %s", age.Round(time.Second), maxAge)
		}
		return nil
	}
}
