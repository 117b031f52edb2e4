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

package windows

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"syscall"

	"github.com/VaporProject/vapor/pkg/platforms"
)

// powercfg list output looks like:
//
//	Power Scheme GUID: 381b4222-f694-41f0-9685-ff5bb260df2e  (Balanced) *
var powerSchemeRe = regexp.MustCompile(`(?i)GUID:\s*([0-9a-f]{8}(?:-[0-9a-f]{4}){3}-[0-9a-f]{12})\s+\((.+?)\)(\s*\*)?`)

func powercfg(args ...string) (string, error) {
	cmd := exec.Command("powercfg", args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("powercfg %s failed: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

func parsePowerSchemes(out string) []platforms.PowerPlan {
	var plans []platforms.PowerPlan
	for _, match := range powerSchemeRe.FindAllStringSubmatch(out, -1) {
		plans = append(plans, platforms.PowerPlan{
			GUID:   strings.ToLower(match[1]),
			Name:   match[2],
			Active: strings.Contains(match[3], "*"),
		})
	}
	return plans
}

func (p *Platform) PowerPlans() ([]platforms.PowerPlan, error) {
	out, err := powercfg("/list")
	if err != nil {
		return nil, err
	}
	plans := parsePowerSchemes(out)
	if len(plans) == 0 {
		return nil, errors.New("no power schemes in powercfg output")
	}
	return plans, nil
}

func (p *Platform) ActivePowerPlan() (platforms.PowerPlan, error) {
	out, err := powercfg("/getactivescheme")
	if err != nil {
		return platforms.PowerPlan{}, err
	}
	plans := parsePowerSchemes(out)
	if len(plans) == 0 {
		return platforms.PowerPlan{}, errors.New("no active power scheme in powercfg output")
	}
	plan := plans[0]
	plan.Active = true
	return plan, nil
}

func (p *Platform) SetActivePowerPlan(guid string) error {
	guid = strings.TrimSpace(strings.ToLower(guid))
	if !powerSchemeRe.MatchString("GUID: " + guid + "  (x)") {
		return fmt.Errorf("invalid power scheme guid: %q", guid)
	}
	if _, err := powercfg("/setactive", guid); err != nil {
		return err
	}
	return nil
}
