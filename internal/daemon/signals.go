package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals end a foreground run.
var shutdownSignals = []os.Signal{
	syscall.SIGINT,  // Ctrl+C
	syscall.SIGTERM, // Termination request
	syscall.SIGHUP,  // Terminal hangup
}

// ShutdownContext returns a context cancelled by the first shutdown signal
// or when parent is done. Call stop to release the signal handlers.
func ShutdownContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
