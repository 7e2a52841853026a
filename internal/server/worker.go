package server

import "context"

// Worker is a background loop owned by the server.
type Worker interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
}
