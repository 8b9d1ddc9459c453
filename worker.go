package varyproxy

import (
	"github.com/rs/zerolog"
	"github.com/varyproxy/varyproxy/internal/logring"
	"github.com/varyproxy/varyproxy/internal/workspace"
)

// Worker is the execution environment for one Session's request: log
// ring, workspace, and a reference to the active policy program. Unlike
// Varnish's pooled OS threads, a Worker here is goroutine-local — Go's
// scheduler already multiplexes many lightweight goroutines onto a
// bounded set of OS threads, so pooling Workers explicitly would just
// re-implement what goroutines give for free. One Worker is created per
// in-flight Session and discarded at Done.
type Worker struct {
	Log       zerolog.Logger
	Ring      *logring.Ring
	WS        *workspace.Workspace
	Policy    PolicyVM
	ClientReq uint64
}

func newWorker(log zerolog.Logger, policy PolicyVM) *Worker {
	return &Worker{
		Log:    log,
		Ring:   logring.New(64),
		WS:     workspace.New(4096),
		Policy: policy,
	}
}
