// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lifecycle

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Forwarder relays termination signals received by the supervisor to the
// supervised process, waits for it to exit, and then exits the supervisor
// itself. Install it after a successful spawn so an interrupted invocation
// never strands a running child.
type Forwarder struct {
	table    ProcessTable
	logger   *slog.Logger
	timeout  time.Duration
	interval time.Duration

	// exitFunc terminates the supervisor after relaying. Replaced in tests.
	exitFunc func(int)
}

// NewForwarder creates a signal forwarder. timeout bounds the wait for the
// child to exit after the relayed SIGTERM; interval is the liveness poll
// interval.
func NewForwarder(table ProcessTable, logger *slog.Logger, timeout, interval time.Duration) *Forwarder {
	return &Forwarder{
		table:    table,
		logger:   logger,
		timeout:  timeout,
		interval: interval,
		exitFunc: os.Exit,
	}
}

// Install registers SIGINT/SIGTERM handling that relays SIGTERM to pid.
// It returns a stop function that uninstalls the handler; call it once the
// invocation has finished its own shutdown sequencing.
func (f *Forwarder) Install(pid int) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			f.relay(pid, sig)
		case <-done:
		}
	}()

	var once bool
	return func() {
		if once {
			return
		}
		once = true
		signal.Stop(sigCh)
		close(done)
	}
}

// relay forwards a termination signal to the child and waits for its exit
// before the supervisor exits.
func (f *Forwarder) relay(pid int, sig os.Signal) {
	f.logger.Info("forwarding termination signal to server",
		slog.String("signal", sig.String()), slog.Int("pid", pid))

	if err := f.table.Signal(pid, syscall.SIGTERM); err != nil {
		f.logger.Warn("failed to forward signal", slog.Any("error", err))
		f.exitFunc(1)
		return
	}

	if err := WaitForExit(f.table, pid, f.timeout, f.interval); err != nil {
		f.logger.Warn("server did not exit after forwarded signal",
			slog.Int("pid", pid), slog.Any("error", err))
		f.exitFunc(1)
		return
	}

	f.exitFunc(0)
}
