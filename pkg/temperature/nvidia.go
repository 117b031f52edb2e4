// Vapor
// Copyright (c) 2026 The Vapor Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Vapor.
//
// Vapor is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Vapor is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Vapor.  If not, see <http://www.gnu.org/licenses/>.

package temperature

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/VaporProject/vapor/pkg/helpers/command"
)

// nvidia-smi normally answers in well under a second, but it can hang
// while the driver is mid-update or the GPU is in a reset cycle.
const nvidiaSMITimeout = 5 * time.Second

// nvidiaSMIProvider shells out to nvidia-smi for the GPU core temperature.
// It is tried before the WMI monitors because it ships with the driver and
// needs no extra software running.
type nvidiaSMIProvider struct {
	executor   command.Executor
	path       string
	extraPaths []string
}

// NewNvidiaSMIProvider returns a GPU temperature provider backed by
// nvidia-smi. extraPaths are install locations probed when the binary is
// not on PATH.
func NewNvidiaSMIProvider(executor command.Executor, extraPaths ...string) Provider {
	return &nvidiaSMIProvider{executor: executor, extraPaths: extraPaths}
}

func (p *nvidiaSMIProvider) Name() string {
	return "nvidia-smi"
}

func (p *nvidiaSMIProvider) locate() (string, error) {
	if p.path != "" {
		return p.path, nil
	}
	if path, err := exec.LookPath("nvidia-smi"); err == nil {
		p.path = path
		return path, nil
	}
	for _, candidate := range p.extraPaths {
		if _, err := os.Stat(candidate); err == nil {
			p.path = candidate
			return candidate, nil
		}
	}
	return "", fmt.Errorf("nvidia-smi not found: %w", ErrUnavailable)
}

func (p *nvidiaSMIProvider) Temperature(ctx context.Context) (float64, error) {
	path, err := p.locate()
	if err != nil {
		return 0, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, nvidiaSMITimeout)
	defer cancel()

	out, err := p.executor.OutputWithOptions(
		queryCtx,
		command.StartOptions{HideWindow: true},
		path,
		"--query-gpu=temperature.gpu",
		"--format=csv,noheader,nounits",
	)
	if err != nil {
		if queryCtx.Err() != nil && ctx.Err() == nil {
			// Our own deadline fired: transient, retry next sample.
			return 0, fmt.Errorf("nvidia-smi timed out: %w", err)
		}
		return 0, fmt.Errorf("nvidia-smi query failed (%v): %w", err, ErrUnavailable)
	}

	return parseSMITemperatures(out)
}

// parseSMITemperatures reads the plain csv,noheader,nounits output, one
// line per GPU, and returns the hottest one.
func parseSMITemperatures(out []byte) (float64, error) {
	var hottest float64
	found := false
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("unexpected nvidia-smi output %q: %w", line, ErrUnavailable)
		}
		if !found || value > hottest {
			hottest = value
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("empty nvidia-smi output: %w", ErrUnavailable)
	}
	return hottest, nil
}
