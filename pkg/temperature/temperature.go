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

// Package temperature reads CPU and GPU temperatures from whichever sensor
// source the machine actually has and tracks per-session statistics. No
// single source works everywhere: LibreHardwareMonitor and
// OpenHardwareMonitor only publish sensors while their app runs, nvidia-smi
// only exists on NVIDIA systems and the ACPI thermal zone is firmware
// dependent. Sources are therefore arranged in fallback chains.
package temperature

import (
	"context"
	"errors"
	"fmt"

	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrUnavailable marks a source that cannot serve readings on this machine
// at all, as opposed to a transient failure. A chain stops consulting a
// provider once it reports this.
var ErrUnavailable = errors.New("temperature source unavailable")

// ErrNoReading is returned when every provider in a chain has been tried
// without producing a value.
var ErrNoReading = errors.New("no temperature reading available")

// Provider reads one sensor family from one source.
type Provider interface {
	// Name identifies the source in logs.
	Name() string
	// Temperature returns the current reading in degrees Celsius. Errors
	// wrapping ErrUnavailable mean the source will never work on this
	// machine; any other error is treated as transient.
	Temperature(ctx context.Context) (float64, error)
}

// Chain consults providers in priority order, permanently skipping any
// that declared themselves unavailable.
type Chain struct {
	providers   []Provider
	unavailable []bool
	mu          syncutil.Mutex
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{
		providers:   providers,
		unavailable: make([]bool, len(providers)),
	}
}

// Read returns the first value any remaining provider produces. Transient
// failures fall through to the next provider without disqualifying the
// source.
func (c *Chain) Read(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, provider := range c.providers {
		if c.unavailable[i] {
			continue
		}

		value, err := provider.Temperature(ctx)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			return 0, fmt.Errorf("temperature read canceled: %w", ctx.Err())
		}
		if errors.Is(err, ErrUnavailable) {
			log.Debug().Err(err).Msgf(
				"temperature source %s unavailable, skipping from now on",
				provider.Name(),
			)
			c.unavailable[i] = true
			continue
		}
		log.Debug().Err(err).Msgf("temperature read from %s failed", provider.Name())
	}

	return 0, ErrNoReading
}

// Reading is one snapshot across both sensor families. A family with no
// working source is reported through the Has flags, not as a zero value.
type Reading struct {
	CPU    float64
	GPU    float64
	HasCPU bool
	HasGPU bool
}

// Sampler reads the CPU and GPU chains concurrently. The chains are
// independent, and nvidia-smi can take seconds on a busy system, so one
// slow family must not delay the other.
type Sampler struct {
	cpu *Chain
	gpu *Chain
}

func NewSampler(cpu, gpu *Chain) *Sampler {
	return &Sampler{cpu: cpu, gpu: gpu}
}

// Sample reads both sensor families. A family whose chain is exhausted is
// reported absent rather than failing the sample; the returned error is
// reserved for context cancellation.
func (s *Sampler) Sample(ctx context.Context) (Reading, error) {
	var reading Reading

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		value, err := s.cpu.Read(groupCtx)
		if err != nil {
			if errors.Is(err, ErrNoReading) {
				return nil
			}
			return fmt.Errorf("cpu sample failed: %w", err)
		}
		reading.CPU = value
		reading.HasCPU = true
		return nil
	})
	group.Go(func() error {
		value, err := s.gpu.Read(groupCtx)
		if err != nil {
			if errors.Is(err, ErrNoReading) {
				return nil
			}
			return fmt.Errorf("gpu sample failed: %w", err)
		}
		reading.GPU = value
		reading.HasGPU = true
		return nil
	})

	if err := group.Wait(); err != nil {
		return Reading{}, err
	}
	return reading, nil
}
