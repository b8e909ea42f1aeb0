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

// Package server implements the warden lifecycle commands: start, stop,
// restart, and status. Each command is a thin shell around the supervisor
// controller; all state lives in the PID and port registries on disk.
package server

import (
	"log/slog"
	"os"

	"github.com/tombee/warden/internal/commands/shared"
	"github.com/tombee/warden/internal/config"
	"github.com/tombee/warden/internal/log"
	"github.com/tombee/warden/internal/supervisor"
)

// newController loads configuration and builds a controller for one action.
func newController() (*supervisor.Controller, *config.Config, error) {
	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return nil, nil, shared.NewConfigExitError("failed to load config", err)
	}

	ctrl := supervisor.New(cfg, buildLogger(cfg))
	return ctrl, cfg, nil
}

// buildLogger assembles the action logger. Environment variables win over
// the config file; --verbose and --quiet win over both.
func buildLogger(cfg *config.Config) *slog.Logger {
	logCfg := log.FromEnv()

	if cfg.Log.Level != "" && os.Getenv("WARDEN_DEBUG") == "" &&
		os.Getenv("WARDEN_LOG_LEVEL") == "" && os.Getenv("LOG_LEVEL") == "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" && os.Getenv("LOG_FORMAT") == "" {
		logCfg.Format = log.Format(cfg.Log.Format)
	}

	if shared.GetVerbose() {
		logCfg.Level = "debug"
	}
	if shared.GetQuiet() {
		logCfg.Level = "error"
	}

	return log.New(logCfg)
}
