//go:build !windows

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
	"github.com/VaporProject/vapor/pkg/helpers/command"
)

// DefaultCPUChain has no sensor sources off Windows; sampling reports
// unavailable and sessions simply record no CPU readings.
func DefaultCPUChain() *Chain {
	return NewChain()
}

// DefaultGPUChain falls back to nvidia-smi alone, which works anywhere
// the NVIDIA driver is installed.
func DefaultGPUChain(executor command.Executor) *Chain {
	return NewChain(NewNvidiaSMIProvider(executor))
}

// DefaultSampler wires both default chains.
func DefaultSampler(executor command.Executor) *Sampler {
	return NewSampler(DefaultCPUChain(), DefaultGPUChain(executor))
}
