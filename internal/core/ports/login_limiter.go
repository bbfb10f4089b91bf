package ports

import "context"

// LoginLimiter counts failed logins per email and blocks further attempts once
// the configured threshold is reached within the window.
type LoginLimiter interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
