package credentials

import "context"

// Storage persists the single bearer token value across process restarts.
// Implementations must treat an absent token as (found=false, nil error)
// rather than an error; errors are reserved for backend failures.
type Storage interface {
	Read(ctx context.Context) (token string, found bool, err error)
	Write(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}
