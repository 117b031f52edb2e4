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

package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/VaporProject/vapor/pkg/journal"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/hbollon/go-edlib"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// terminateGrace is how long a closed app gets to exit cleanly before
	// it is killed.
	terminateGrace = 5 * time.Second

	// Audio sessions appear as the game spins up its subprocesses, so the
	// game volume apply rescans until the matched set stops changing.
	audioScanInterval = 250 * time.Millisecond
	audioScanTimeout  = 60 * time.Second
	audioStableScans  = 4

	// gameNameMatchThreshold is the minimum Jaro-Winkler similarity for
	// matching an audio session display name against the game name.
	gameNameMatchThreshold = 0.8
)

// protectedProcesses are never closed regardless of what the settings file
// lists. Closing any of these takes the desktop or Vapor itself down.
var protectedProcesses = map[string]bool{
	"steam.exe":    true,
	"explorer.exe": true,
	"svchost.exe":  true,
	"csrss.exe":    true,
	"winlogon.exe": true,
	"dwm.exe":      true,
	"system":       true,
	"registry":     true,
	"smss.exe":     true,
	"services.exe": true,
	"lsass.exe":    true,
	"wininit.exe":  true,
	"vapor.exe":    true,
}

// steamHelperProcesses are excluded from sibling-PID expansion when
// matching the game's audio sessions: they belong to the Steam client, not
// the game.
var steamHelperProcesses = map[string]bool{
	"steam.exe":              true,
	"steamwebhelper.exe":     true,
	"steamservice.exe":       true,
	"steamerrorreporter.exe": true,
}

// coordinator owns the reversible system mutations applied around a
// session. Every mutation is journaled before it runs and reverted through
// the journal, so undo happens exactly once even across a crash.
type coordinator struct {
	pl      platforms.Platform
	cfg     *config.Instance
	jour    *journal.Journal
	clock   clockwork.Clock
	limiter *rate.Limiter
	mu      syncutil.Mutex
}

func newCoordinator(
	pl platforms.Platform,
	cfg *config.Instance,
	jour *journal.Journal,
	clock clockwork.Clock,
) *coordinator {
	return &coordinator{
		pl:    pl,
		cfg:   cfg,
		jour:  jour,
		clock: clock,
		// Debounce for the close-apps hotkey: holding the chord down must
		// not hammer the process table.
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Apply runs the session-start mutations in order: close notification apps,
// close resource apps, system volume, power plan, Game Mode. The game
// volume mutation runs separately once the game's processes are known. A
// failed mutator logs and does not block the ones after it. Returns how
// many apps were closed.
func (c *coordinator) Apply(ctx context.Context, sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	closed := 0
	if c.cfg.CloseNotificationApps() {
		closed += c.closeApps(ctx, sessionID, c.cfg.NotificationProcesses())
	}
	if c.cfg.CloseResourceApps() {
		closed += c.closeApps(ctx, sessionID, c.cfg.ResourceProcesses())
	}

	c.applySystemVolume(sessionID)
	c.applyPowerPlan(sessionID)
	c.applyGameMode(sessionID)

	return closed
}

// CloseAppsNow runs only the app-close mutations mid-session, journaled
// under the live session so relaunch still happens at session end. It is
// bound to the global hotkey and rate limited.
func (c *coordinator) CloseAppsNow(ctx context.Context, sessionID string) int {
	if !c.limiter.Allow() {
		log.Debug().Msg("close apps hotkey debounced")
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	closed := c.closeApps(ctx, sessionID, c.cfg.NotificationProcesses())
	closed += c.closeApps(ctx, sessionID, c.cfg.ResourceProcesses())
	log.Info().Int("closed", closed).Msg("closed apps on hotkey")
	return closed
}

// closeApps terminates every running process whose base name is in names,
// journaling each close so the app can be relaunched afterwards.
func (c *coordinator) closeApps(ctx context.Context, sessionID string, names []string) int {
	if len(names) == 0 {
		return 0
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	procs, err := c.pl.Processes()
	if err != nil {
		log.Error().Err(err).Msg("failed to list processes for app close")
		return 0
	}

	closed := 0
	seen := make(map[int32]bool)
	for _, p := range procs {
		name := strings.ToLower(p.Name)
		if !wanted[name] || protectedProcesses[name] || seen[p.PID] {
			continue
		}
		seen[p.PID] = true

		entry, err := c.jour.Add(sessionID, journal.KindProcessClose, journal.ProcessClosePayload{
			Exe:  p.Exe,
			Name: p.Name,
			Args: relaunchArgs(p.Cmdline),
		})
		if err != nil {
			log.Error().Err(err).Str("name", p.Name).
				Msg("failed to journal app close, skipping it")
			continue
		}

		if err := c.pl.TerminateProcess(ctx, p.PID, terminateGrace); err != nil {
			log.Warn().Err(err).Str("name", p.Name).Msg("failed to close app")
			// The OS change never happened, take the entry back out of
			// the undo set.
			if _, revErr := c.jour.MarkReverted(entry.ID); revErr != nil {
				log.Error().Err(revErr).Msg("failed to revert journal entry")
			}
			continue
		}

		log.Info().Str("name", p.Name).Int32("pid", p.PID).Msg("closed app for session")
		closed++
	}
	return closed
}

// relaunchArgs strips the executable itself from a recorded command line.
func relaunchArgs(cmdline []string) []string {
	if len(cmdline) <= 1 {
		return nil
	}
	return cmdline[1:]
}

func (c *coordinator) applySystemVolume(sessionID string) {
	if !c.cfg.ManageSystemVolume() {
		return
	}

	prev, err := c.pl.MasterVolume()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read master volume, skipping volume change")
		return
	}

	entry, err := c.jour.Add(sessionID, journal.KindSystemVolume, journal.SystemVolumePayload{
		PreviousPercent: prev,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to journal volume change, skipping it")
		return
	}

	level := c.cfg.SystemVolumeLevel()
	if err := c.pl.SetMasterVolume(level); err != nil {
		log.Warn().Err(err).Msg("failed to set master volume")
		if _, revErr := c.jour.MarkReverted(entry.ID); revErr != nil {
			log.Error().Err(revErr).Msg("failed to revert journal entry")
		}
		return
	}
	log.Info().Int("from", prev).Int("to", level).Msg("lowered system volume")
}

func (c *coordinator) applyPowerPlan(sessionID string) {
	want := c.cfg.PowerPlanDuringSession()
	if want == "" {
		return
	}

	guid, err := c.resolvePowerPlan(want)
	if err != nil {
		log.Warn().Err(err).Str("plan", want).Msg("failed to resolve power plan")
		return
	}

	prev, err := c.pl.ActivePowerPlan()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read active power plan, skipping plan change")
		return
	}
	if strings.EqualFold(prev.GUID, guid) {
		return
	}

	entry, err := c.jour.Add(sessionID, journal.KindPowerPlan, journal.PowerPlanPayload{
		PreviousGUID: prev.GUID,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to journal power plan change, skipping it")
		return
	}

	if err := c.pl.SetActivePowerPlan(guid); err != nil {
		log.Warn().Err(err).Str("plan", want).Msg("failed to set power plan")
		if _, revErr := c.jour.MarkReverted(entry.ID); revErr != nil {
			log.Error().Err(revErr).Msg("failed to revert journal entry")
		}
		return
	}
	log.Info().Str("plan", want).Msg("switched power plan for session")
}

// resolvePowerPlan turns a plan name or raw GUID from the settings file
// into a scheme GUID.
func (c *coordinator) resolvePowerPlan(nameOrGUID string) (string, error) {
	switch strings.ToLower(nameOrGUID) {
	case strings.ToLower(config.PowerPlanBalanced):
		return platforms.PowerPlanGUIDBalanced, nil
	case strings.ToLower(config.PowerPlanHighPerformance):
		return platforms.PowerPlanGUIDHighPerformance, nil
	case strings.ToLower(config.PowerPlanPowerSaver):
		return platforms.PowerPlanGUIDPowerSaver, nil
	}

	plans, err := c.pl.PowerPlans()
	if err != nil {
		return "", err
	}
	for _, p := range plans {
		if strings.EqualFold(p.Name, nameOrGUID) || strings.EqualFold(p.GUID, nameOrGUID) {
			return p.GUID, nil
		}
	}
	return "", errUnknownPowerPlan
}

func (c *coordinator) applyGameMode(sessionID string) {
	if !c.cfg.GameModeEnabled() {
		return
	}

	prev, err := c.pl.GameModeEnabled()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read Game Mode state, skipping it")
		return
	}
	if prev {
		return
	}

	entry, err := c.jour.Add(sessionID, journal.KindGameMode, journal.GameModePayload{
		PreviousEnabled: prev,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to journal Game Mode change, skipping it")
		return
	}

	if err := c.pl.SetGameModeEnabled(true); err != nil {
		log.Warn().Err(err).Msg("failed to enable Game Mode")
		if _, revErr := c.jour.MarkReverted(entry.ID); revErr != nil {
			log.Error().Err(revErr).Msg("failed to revert journal entry")
		}
		return
	}
	log.Info().Msg("enabled Game Mode for session")
}

// ApplyGameVolume raises the game's own audio sessions to the configured
// level. It rescans until the matched session set has been stable for a few
// scans, because games create audio sessions well after launch. Blocks for
// up to a minute, callers run it on its own goroutine.
func (c *coordinator) ApplyGameVolume(
	ctx context.Context,
	sessionID string,
	gameName string,
	gamePIDs []int32,
) {
	if !c.cfg.ManageGameVolume() || len(gamePIDs) == 0 {
		return
	}

	deadline := c.clock.Now().Add(audioScanTimeout)
	var prev map[int32]bool
	stable := 0

	for {
		matched := c.matchGameAudioSessions(gameName, gamePIDs)

		if samePIDSet(prev, matched) {
			stable++
		} else {
			stable = 1
			prev = matched
		}

		if (stable >= audioStableScans && len(matched) > 0) ||
			!c.clock.Now().Before(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(audioScanInterval):
		}
	}

	if len(prev) == 0 {
		log.Debug().Str("game", gameName).Msg("no game audio sessions found")
		return
	}

	pids := make([]int32, 0, len(prev))
	for pid := range prev {
		pids = append(pids, pid)
	}

	level := c.cfg.GameVolumeLevel()
	if _, err := c.jour.Add(sessionID, journal.KindGameVolume, journal.GameVolumePayload{
		PIDs:           pids,
		AppliedPercent: level,
	}); err != nil {
		log.Error().Err(err).Msg("failed to journal game volume change, skipping it")
		return
	}

	for _, pid := range pids {
		if err := c.pl.SetAudioSessionVolume(pid, level); err != nil {
			log.Warn().Err(err).Int32("pid", pid).Msg("failed to set game audio session volume")
		}
	}
	log.Info().Int("sessions", len(pids)).Int("level", level).
		Msg("set game audio session volume")
}

// matchGameAudioSessions finds the audio sessions belonging to the game:
// direct PID matches, siblings sharing an executable name with a game
// process, and as a fallback sessions whose display name is close to the
// game name. Steam's own helper processes never match.
func (c *coordinator) matchGameAudioSessions(gameName string, gamePIDs []int32) map[int32]bool {
	sessions, err := c.pl.AudioSessions()
	if err != nil {
		log.Debug().Err(err).Msg("failed to enumerate audio sessions")
		return nil
	}

	pidSet := make(map[int32]bool, len(gamePIDs))
	for _, pid := range gamePIDs {
		pidSet[pid] = true
	}

	gameNames := c.gameProcessNames(pidSet)

	matched := make(map[int32]bool)
	for _, s := range sessions {
		name := strings.ToLower(s.ProcessName)
		if steamHelperProcesses[name] {
			continue
		}

		switch {
		case pidSet[s.PID]:
			matched[s.PID] = true
		case gameNames[name]:
			matched[s.PID] = true
		case nameMatchesGame(s.ProcessName, gameName):
			matched[s.PID] = true
		}
	}
	return matched
}

// gameProcessNames collects the executable names of the game's processes
// for sibling expansion.
func (c *coordinator) gameProcessNames(gamePIDs map[int32]bool) map[string]bool {
	names := make(map[string]bool)
	procs, err := c.pl.Processes()
	if err != nil {
		return names
	}
	for _, p := range procs {
		if gamePIDs[p.PID] {
			name := strings.ToLower(p.Name)
			if !steamHelperProcesses[name] {
				names[name] = true
			}
		}
	}
	return names
}

// nameMatchesGame fuzzy-compares a process name against the game title.
// Display names like "ELDEN RING" vs "eldenring.exe" need more than an
// exact match.
func nameMatchesGame(processName, gameName string) bool {
	if gameName == "" {
		return false
	}
	name := strings.TrimSuffix(strings.ToLower(processName), filepath.Ext(processName))
	name = strings.ReplaceAll(name, " ", "")
	game := strings.ReplaceAll(strings.ToLower(gameName), " ", "")

	sim, err := edlib.StringsSimilarity(name, game, edlib.JaroWinkler)
	if err != nil {
		return false
	}
	return sim >= gameNameMatchThreshold
}

func samePIDSet(a, b map[int32]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for pid := range a {
		if !b[pid] {
			return false
		}
	}
	return true
}

// Revert undoes every applied mutation of a session in reverse order and
// returns how many closed apps were relaunched. Each undo flips its
// journal entry first, so a concurrent or repeated revert of the same
// session is a no-op.
func (c *coordinator) Revert(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.jour.AppliedForSession(sessionID)
	if err != nil {
		log.Error().Err(err).Msg("failed to read journal for session revert")
		return 0
	}

	relaunched := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if c.revertEntry(entries[i], true) && entries[i].Kind == journal.KindProcessClose {
			relaunched++
		}
	}
	return relaunched
}

// RollbackStale reverts every entry left applied by a previous run, oldest
// first, then prunes the journal. Closed apps are only relaunched when the
// machine has not rebooted since, a reboot already cleared them.
func (c *coordinator) RollbackStale() {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.jour.Applied()
	if err != nil {
		log.Error().Err(err).Msg("failed to read journal for startup rollback")
		return
	}
	if len(entries) > 0 {
		log.Warn().Int("entries", len(entries)).
			Msg("found unreverted mutations from a previous run, rolling back")
	}

	for _, e := range entries {
		relaunch := e.Kind != journal.KindProcessClose ||
			journal.SameBoot(e.BootTime, c.jour.BootTime())
		c.revertEntry(e, relaunch)
	}

	if pruned, err := c.jour.PruneReverted(); err != nil {
		log.Warn().Err(err).Msg("failed to prune journal")
	} else if pruned > 0 {
		log.Debug().Int("pruned", pruned).Msg("pruned reverted journal entries")
	}
}

// revertEntry flips the journal entry and undoes its mutation. The flip
// comes first: losing a relaunch to a crash is recoverable by the user,
// doubling a mutation undo is not. Returns true when the undo ran.
func (c *coordinator) revertEntry(e journal.Entry, effect bool) bool {
	flipped, err := c.jour.MarkReverted(e.ID)
	if err != nil {
		log.Error().Err(err).Str("id", e.ID).Msg("failed to mark journal entry reverted")
		return false
	}
	if !flipped {
		// Another undo path got here first.
		return false
	}
	if !effect {
		return false
	}

	switch e.Kind {
	case journal.KindProcessClose:
		return c.undoProcessClose(e)
	case journal.KindSystemVolume:
		var p journal.SystemVolumePayload
		if err := e.DecodePayload(&p); err != nil {
			log.Error().Err(err).Msg("failed to decode system volume payload")
			return false
		}
		if err := c.pl.SetMasterVolume(p.PreviousPercent); err != nil {
			log.Warn().Err(err).Msg("failed to restore master volume")
			return false
		}
		log.Info().Int("level", p.PreviousPercent).Msg("restored system volume")
	case journal.KindGameVolume:
		// The game's audio sessions died with the game. The entry only
		// exists so rollback accounts for every mutation.
	case journal.KindPowerPlan:
		return c.undoPowerPlan(e)
	case journal.KindGameMode:
		var p journal.GameModePayload
		if err := e.DecodePayload(&p); err != nil {
			log.Error().Err(err).Msg("failed to decode Game Mode payload")
			return false
		}
		if err := c.pl.SetGameModeEnabled(p.PreviousEnabled); err != nil {
			log.Warn().Err(err).Msg("failed to restore Game Mode")
			return false
		}
		log.Info().Bool("enabled", p.PreviousEnabled).Msg("restored Game Mode")
	default:
		log.Warn().Str("kind", string(e.Kind)).Msg("unknown journal entry kind")
		return false
	}
	return true
}

func (c *coordinator) undoProcessClose(e journal.Entry) bool {
	if !c.cfg.RelaunchAfterSession() {
		return false
	}

	var p journal.ProcessClosePayload
	if err := e.DecodePayload(&p); err != nil {
		log.Error().Err(err).Msg("failed to decode process close payload")
		return false
	}
	if p.Exe == "" {
		log.Debug().Str("name", p.Name).Msg("no exe path recorded, not relaunching")
		return false
	}

	if c.isProcessNameRunning(p.Name) {
		log.Debug().Str("name", p.Name).Msg("app already running, not relaunching")
		return false
	}

	if err := c.pl.LaunchDetached(p.Exe, p.Args...); err != nil {
		log.Warn().Err(err).Str("name", p.Name).Msg("failed to relaunch app")
		return false
	}
	log.Info().Str("name", p.Name).Msg("relaunched app after session")
	return true
}

func (c *coordinator) isProcessNameRunning(name string) bool {
	procs, err := c.pl.Processes()
	if err != nil {
		return false
	}
	want := strings.ToLower(name)
	for _, p := range procs {
		if strings.ToLower(p.Name) == want {
			return true
		}
	}
	return false
}

func (c *coordinator) undoPowerPlan(e journal.Entry) bool {
	var p journal.PowerPlanPayload
	if err := e.DecodePayload(&p); err != nil {
		log.Error().Err(err).Msg("failed to decode power plan payload")
		return false
	}

	// An explicit after-session plan wins over whatever was active before.
	guid := p.PreviousGUID
	if after := c.cfg.PowerPlanAfterSession(); after != "" {
		if resolved, err := c.resolvePowerPlan(after); err == nil {
			guid = resolved
		} else {
			log.Warn().Err(err).Str("plan", after).
				Msg("failed to resolve after-session power plan, restoring previous")
		}
	}

	if err := c.pl.SetActivePowerPlan(guid); err != nil {
		log.Warn().Err(err).Msg("failed to restore power plan")
		return false
	}
	log.Info().Str("guid", guid).Msg("restored power plan")
	return true
}
