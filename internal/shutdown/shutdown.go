// Package shutdown provides a context that is cancelled on process interrupt.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context that is cancelled when the process receives SIGINT or
// SIGTERM. The returned function releases the signal handler and cancels the
// context.
func New() (context.Context, func()) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
