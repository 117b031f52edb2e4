//go:build windows

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
	"os"
	"path/filepath"

	"github.com/VaporProject/vapor/pkg/helpers/command"
)

// DefaultCPUChain returns the CPU sensor sources in priority order. The
// hardware monitor apps give real per-core readings when running; the ACPI
// thermal zone is the needs-nothing-installed fallback.
func DefaultCPUChain() *Chain {
	return NewChain(
		newMonitorProvider("librehardwaremonitor-cpu", lhmNamespace, "cpu"),
		newMonitorProvider("openhardwaremonitor-cpu", ohmNamespace, "cpu"),
		msAcpiProvider{},
	)
}

// DefaultGPUChain returns the GPU sensor sources in priority order.
func DefaultGPUChain(executor command.Executor) *Chain {
	return NewChain(
		NewNvidiaSMIProvider(executor, nvidiaSMICandidates()...),
		newMonitorProvider("librehardwaremonitor-gpu", lhmNamespace, "gpu"),
		newMonitorProvider("openhardwaremonitor-gpu", ohmNamespace, "gpu"),
	)
}

// DefaultSampler wires both default chains.
func DefaultSampler(executor command.Executor) *Sampler {
	return NewSampler(DefaultCPUChain(), DefaultGPUChain(executor))
}

// nvidiaSMICandidates lists the driver's install locations, checked when
// nvidia-smi is not on PATH.
func nvidiaSMICandidates() []string {
	var candidates []string
	if systemRoot := os.Getenv("SystemRoot"); systemRoot != "" {
		candidates = append(candidates,
			filepath.Join(systemRoot, "System32", "nvidia-smi.exe"))
	}
	if programFiles := os.Getenv("ProgramFiles"); programFiles != "" {
		candidates = append(candidates,
			filepath.Join(programFiles, "NVIDIA Corporation", "NVSMI", "nvidia-smi.exe"))
	}
	return candidates
}
