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

// Package supervisor drives the start/stop/restart state machine for the
// supervised server: singleton enforcement through the PID registry, port
// reuse and allocation, spawning, signal forwarding, and the bounded
// polling waits that reconcile process exit and port release.
package supervisor

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/tombee/warden/internal/config"
	"github.com/tombee/warden/internal/lifecycle"
	"github.com/tombee/warden/internal/log"
	"github.com/tombee/warden/internal/netport"
	wardenerrors "github.com/tombee/warden/pkg/errors"
)

// Controller owns the timing and sequencing of all reads and writes to the
// PID and port registries. One Controller serves one CLI invocation; it is
// not safe for concurrent use.
type Controller struct {
	cfg      *config.Config
	pidFile  *lifecycle.PIDFile
	portFile *netport.PortFile
	table    lifecycle.ProcessTable
	prober   netport.Prober
	alloc    *netport.Allocator
	spawner  lifecycle.Spawner
	events   *lifecycle.EventLog
	logger   *slog.Logger
	out      io.Writer

	invocationID string
}

// New creates a controller wired to the real OS: TCP probing, signal-0
// liveness, detached spawning. Tests swap the collaborators via the WithX
// methods.
func New(cfg *config.Config, logger *slog.Logger) *Controller {
	invocationID := uuid.NewString()
	rng := netport.Range{Start: cfg.Ports.Start, End: cfg.Ports.End}
	prober := netport.TCPProber{}

	return &Controller{
		cfg:          cfg,
		pidFile:      lifecycle.NewPIDFile(cfg.Supervisor.PIDFile),
		portFile:     netport.NewPortFile(cfg.Supervisor.PortFile, rng),
		table:        lifecycle.OSProcessTable{},
		prober:       prober,
		alloc:        netport.NewAllocator(rng, prober),
		spawner:      lifecycle.NewDetachedSpawner(),
		events:       lifecycle.NewEventLog(cfg.Supervisor.EventLog, invocationID),
		logger:       log.WithComponent(log.WithInvocation(logger, invocationID), "supervisor"),
		out:          os.Stdout,
		invocationID: invocationID,
	}
}

// WithSpawner replaces the spawner (foreground mode, tests).
func (c *Controller) WithSpawner(s lifecycle.Spawner) *Controller {
	c.spawner = s
	return c
}

// WithProcessTable replaces the process table (tests).
func (c *Controller) WithProcessTable(t lifecycle.ProcessTable) *Controller {
	c.table = t
	return c
}

// WithProber replaces the port prober and rebuilds the allocator (tests).
func (c *Controller) WithProber(p netport.Prober) *Controller {
	c.prober = p
	c.alloc = netport.NewAllocator(c.alloc.Range(), p)
	return c
}

// WithOutput redirects operator status lines (tests).
func (c *Controller) WithOutput(w io.Writer) *Controller {
	c.out = w
	return c
}

// State derives the current state from the PID registry. The returned pid
// is nonzero only in the Running state.
func (c *Controller) State() (State, int) {
	pid, err := c.pidFile.Read()
	if err != nil {
		// Absent or unparsable record both mean no supervised process.
		return Stopped, 0
	}
	if !c.table.Alive(pid) {
		return Stopped, 0
	}
	return Running, pid
}

// StartResult reports what a start action did.
type StartResult struct {
	// AlreadyRunning is true when start was an idempotent no-op.
	AlreadyRunning bool

	PID  int
	Port int
}

// StartOptions tunes a start action.
type StartOptions struct {
	// Foreground keeps the server attached and blocks until it exits.
	Foreground bool
}

// Start launches the supervised server unless it is already running.
// Fatal failures are *errors.SpawnError and *errors.RangeExhaustedError;
// everything else is reported and absorbed.
func (c *Controller) Start(opts StartOptions) (*StartResult, error) {
	if err := c.events.LogStart(); err != nil {
		c.logger.Warn("failed to write event log", log.Error(err))
	}

	pid, err := c.pidFile.Read()
	if err == nil {
		if c.table.Alive(pid) {
			if err := c.events.LogAlreadyRunning(pid); err != nil {
				c.logger.Warn("failed to write event log", log.Error(err))
			}
			c.logger.Info("server already running", slog.Int(log.PIDKey, pid))
			return &StartResult{AlreadyRunning: true, PID: pid}, nil
		}
		c.clearStale(pid, "process not running")
	} else if c.pidFile.Exists() {
		// Unparsable record: treat as absent, but clean the file up.
		c.clearStale(0, "unreadable PID record")
	}

	if c.cfg.Server.Command == "" {
		return nil, &wardenerrors.ConfigError{
			Key:    "server.command",
			Reason: "no server command configured",
		}
	}

	port, err := c.choosePort()
	if err != nil {
		if logErr := c.events.LogStartFailure(err); logErr != nil {
			c.logger.Warn("failed to write event log", log.Error(logErr))
		}
		return nil, err
	}

	// The port record is the server's discovery mechanism alongside PORT,
	// so it must be on disk before the child looks for it.
	if err := c.portFile.Write(port); err != nil {
		return nil, fmt.Errorf("failed to persist port: %w", err)
	}

	c.logger.Debug("spawning server",
		slog.String("state", Starting.String()), slog.Int(log.PortKey, port))

	child, err := c.spawner.Spawn(lifecycle.SpawnSpec{
		Command: c.cfg.Server.Command,
		Args:    c.cfg.Server.Args,
		Env: []string{
			fmt.Sprintf("PORT=%d", port),
			fmt.Sprintf("WARDEN_PORT_FILE=%s", c.portFile.Path()),
		},
		LogFile: c.cfg.Server.LogFile,
	})
	if err != nil {
		spawnErr := &wardenerrors.SpawnError{Command: c.cfg.Server.Command, Cause: err}
		if logErr := c.events.LogStartFailure(spawnErr); logErr != nil {
			c.logger.Warn("failed to write event log", log.Error(logErr))
		}
		return nil, spawnErr
	}

	fmt.Fprintf(c.out, "Starting server (PID %d) on port %d...\n", child.PID, port)

	if err := c.pidFile.Write(child.PID); err != nil {
		// The server is up; a failed record write downgrades to a warning
		// exactly because the registry reflects intent, not certainty.
		c.logger.Warn("server started but PID record not written", log.Error(err))
		fmt.Fprintf(c.out, "Warning: failed to write PID file: %v\n", err)
	}

	if err := c.events.LogStartSuccess(child.PID, port); err != nil {
		c.logger.Warn("failed to write event log", log.Error(err))
	}
	c.logger.Info("server started", slog.String(log.ActionKey, "start"),
		slog.Int(log.PIDKey, child.PID), slog.Int(log.PortKey, port))

	if opts.Foreground {
		// Relay interrupts to the child so Ctrl-C lands on the server, not
		// just on the attached supervisor.
		forwarder := lifecycle.NewForwarder(c.table, c.logger,
			c.cfg.Supervisor.ExitTimeout, c.cfg.Supervisor.PollInterval)
		stopForwarding := forwarder.Install(child.PID)
		defer stopForwarding()

		waitErr := child.Wait()
		// The record outlived the process; clean it up on the way out.
		if err := c.pidFile.Remove(); err != nil {
			c.logger.Warn("failed to remove PID file", log.Error(err))
		}
		if waitErr != nil {
			c.logger.Info("server exited", log.Error(waitErr))
		}
	}

	return &StartResult{PID: child.PID, Port: port}, nil
}

// choosePort applies the reuse policy: a valid persisted port is tried
// first via the release wait; only when it cannot be freed does the
// controller fall back to a fresh allocation scan.
func (c *Controller) choosePort() (int, error) {
	if port, ok := c.portFile.Read(); ok {
		err := netport.WaitForRelease(c.prober, port,
			c.cfg.Supervisor.ReleaseTimeout, c.cfg.Supervisor.PollInterval)
		if err == nil {
			c.logger.Debug("reusing persisted port", slog.Int(log.PortKey, port))
			return port, nil
		}
		c.logger.Warn("persisted port still bound, allocating a new one",
			slog.Int(log.PortKey, port), log.Error(err))
	}

	return c.alloc.Allocate()
}

// StopResult reports what a stop action did.
type StopResult struct {
	// AlreadyStopped is true when stop was an idempotent no-op.
	AlreadyStopped bool

	PID int

	// ExitTimedOut is true when the process-exit wait expired.
	ExitTimedOut bool

	// ReleaseTimedOut is true when the port-release wait expired.
	ReleaseTimedOut bool
}

// Stop delivers SIGTERM to the supervised server and waits, within bounds,
// for its exit and for its port to become bindable again. Expired waits are
// warnings, never failures: the supervisor favors availability over a
// guarantee that the old process is dead. The PID record is cleared
// unconditionally.
func (c *Controller) Stop() (*StopResult, error) {
	pid, err := c.pidFile.Read()
	if err != nil || !c.table.Alive(pid) {
		if c.pidFile.Exists() {
			c.clearStale(pid, "process not running")
		}
		c.logger.Info("server not running")
		return &StopResult{AlreadyStopped: true}, nil
	}

	if err := c.events.LogStop(pid); err != nil {
		c.logger.Warn("failed to write event log", log.Error(err))
	}

	started := time.Now()
	fmt.Fprintf(c.out, "Stopping server (PID %d)...\n", pid)

	if err := c.table.Signal(pid, syscall.SIGTERM); err != nil {
		// The process may have exited between the liveness probe and the
		// signal; the exit wait below settles it either way.
		c.logger.Warn("failed to signal server", slog.Int(log.PIDKey, pid), log.Error(err))
	}

	result := &StopResult{PID: pid}

	c.logger.Debug("waiting for server exit",
		slog.String("state", Stopping.String()), slog.Int(log.PIDKey, pid))

	err = lifecycle.WaitForExit(c.table, pid,
		c.cfg.Supervisor.ExitTimeout, c.cfg.Supervisor.PollInterval)
	if wardenerrors.IsTimeout(err) {
		result.ExitTimedOut = true
		c.logger.Warn("server did not exit in time", slog.Int(log.PIDKey, pid), log.Error(err))
		if logErr := c.events.LogStopTimeout(pid, err); logErr != nil {
			c.logger.Warn("failed to write event log", log.Error(logErr))
		}
	}

	// OS-level port release can lag process exit, so the port gets its own
	// bounded wait before a follow-up start tries to rebind it.
	if port, ok := c.portFile.Read(); ok {
		err := netport.WaitForRelease(c.prober, port,
			c.cfg.Supervisor.ReleaseTimeout, c.cfg.Supervisor.PollInterval)
		if wardenerrors.IsTimeout(err) {
			result.ReleaseTimedOut = true
			c.logger.Warn("port still bound after stop", slog.Int(log.PortKey, port), log.Error(err))
		}
	}

	if err := c.pidFile.Remove(); err != nil {
		c.logger.Warn("failed to remove PID file", log.Error(err))
	}

	if err := c.events.LogStopSuccess(pid, time.Since(started)); err != nil {
		c.logger.Warn("failed to write event log", log.Error(err))
	}
	c.logger.Info("server stopped", slog.String(log.ActionKey, "stop"),
		slog.Int(log.PIDKey, pid),
		slog.Int64(log.DurationKey, time.Since(started).Milliseconds()))

	return result, nil
}

// Restart is stop, a short settling delay, then start. The two phases are
// fully sequenced within this invocation but not atomic with respect to
// concurrent invocations.
func (c *Controller) Restart(opts StartOptions) (*StartResult, error) {
	if _, err := c.Stop(); err != nil {
		return nil, err
	}

	time.Sleep(c.cfg.Supervisor.SettleDelay)

	return c.Start(opts)
}

// Status is a read-only snapshot for the status command.
type Status struct {
	State     State
	PID       int
	Port      int
	PortBound bool
	Command   string
}

// Status reports the derived state without touching any record.
func (c *Controller) Status() Status {
	st := Status{}
	st.State, st.PID = c.State()

	if port, ok := c.portFile.Read(); ok {
		st.Port = port
		st.PortBound = !c.prober.Available(port)
	}

	if st.State == Running {
		if cmd, err := lifecycle.ProcessCommand(st.PID); err == nil {
			st.Command = cmd
		}
	}

	return st
}

// clearStale removes a PID record that no longer matches a live process.
func (c *Controller) clearStale(pid int, reason string) {
	if err := c.events.LogStalePID(pid, reason); err != nil {
		c.logger.Warn("failed to write event log", log.Error(err))
	}
	c.logger.Info("removing stale PID record", slog.Int(log.PIDKey, pid), slog.String("reason", reason))
	fmt.Fprintf(c.out, "Removing stale PID file (%s)\n", reason)
	if err := c.pidFile.Remove(); err != nil {
		c.logger.Warn("failed to remove stale PID file", log.Error(err))
	}
}
