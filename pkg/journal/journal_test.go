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

package journal

import (
	"testing"
	"time"

	"github.com/VaporProject/vapor/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	pl := mocks.NewMockPlatform(t.TempDir())
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))
	j, err := Open(pl, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalAddAndApplied(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	first, err := j.Add("session-1", KindSystemVolume, SystemVolumePayload{PreviousPercent: 60})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, StateApplied, first.State)
	assert.Equal(t, j.BootTime(), first.BootTime)

	_, err = j.Add("session-1", KindPowerPlan,
		PowerPlanPayload{PreviousGUID: "381b4222-f694-41f0-9685-ff5bb260df2e"})
	require.NoError(t, err)
	_, err = j.Add("session-1", KindGameMode, GameModePayload{PreviousEnabled: true})
	require.NoError(t, err)

	entries, err := j.Applied()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Apply order is preserved.
	assert.Equal(t, KindSystemVolume, entries[0].Kind)
	assert.Equal(t, KindPowerPlan, entries[1].Kind)
	assert.Equal(t, KindGameMode, entries[2].Kind)

	var vol SystemVolumePayload
	require.NoError(t, entries[0].DecodePayload(&vol))
	assert.Equal(t, 60, vol.PreviousPercent)
}

func TestJournalMarkReverted(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	entry, err := j.Add("session-1", KindProcessClose,
		ProcessClosePayload{Exe: `C:\apps\discord.exe`, Name: "discord.exe"})
	require.NoError(t, err)

	flipped, err := j.MarkReverted(entry.ID)
	require.NoError(t, err)
	assert.True(t, flipped)

	// The second revert must see the flipped state.
	flipped, err = j.MarkReverted(entry.ID)
	require.NoError(t, err)
	assert.False(t, flipped)

	entries, err := j.Applied()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournalMarkRevertedUnknownID(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	_, err := j.MarkReverted("no-such-entry")
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestJournalAppliedForSession(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	_, err := j.Add("session-a", KindSystemVolume, SystemVolumePayload{PreviousPercent: 40})
	require.NoError(t, err)
	b1, err := j.Add("session-b", KindGameMode, GameModePayload{PreviousEnabled: false})
	require.NoError(t, err)
	_, err = j.Add("session-a", KindGameMode, GameModePayload{PreviousEnabled: true})
	require.NoError(t, err)

	entries, err := j.AppliedForSession("session-a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, KindSystemVolume, entries[0].Kind)
	assert.Equal(t, KindGameMode, entries[1].Kind)

	entries, err = j.AppliedForSession("session-b")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b1.ID, entries[0].ID)
}

func TestJournalPruneReverted(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)

	e1, err := j.Add("session-1", KindSystemVolume, SystemVolumePayload{PreviousPercent: 50})
	require.NoError(t, err)
	e2, err := j.Add("session-1", KindGameMode, GameModePayload{PreviousEnabled: true})
	require.NoError(t, err)
	_, err = j.Add("session-1", KindPowerPlan, PowerPlanPayload{PreviousGUID: "x"})
	require.NoError(t, err)

	_, err = j.MarkReverted(e1.ID)
	require.NoError(t, err)
	_, err = j.MarkReverted(e2.ID)
	require.NoError(t, err)

	pruned, err := j.PruneReverted()
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	entries, err := j.Applied()
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	pruned, err = j.PruneReverted()
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)
}

func TestJournalPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	pl := mocks.NewMockPlatform(t.TempDir())
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))

	j, err := Open(pl, clock)
	require.NoError(t, err)
	entry, err := j.Add("session-1", KindSystemVolume, SystemVolumePayload{PreviousPercent: 70})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// A crashed run leaves applied entries behind for the next start.
	j, err = Open(pl, clock)
	require.NoError(t, err)
	defer func() { _ = j.Close() }()

	entries, err := j.Applied()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, KindSystemVolume, entries[0].Kind)

	var vol SystemVolumePayload
	require.NoError(t, entries[0].DecodePayload(&vol))
	assert.Equal(t, 70, vol.PreviousPercent)
}

func TestSameBoot(t *testing.T) {
	t.Parallel()

	boot := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	assert.True(t, SameBoot(boot, boot))
	assert.True(t, SameBoot(boot, boot.Add(90*time.Second)))
	assert.True(t, SameBoot(boot.Add(90*time.Second), boot))
	assert.False(t, SameBoot(boot, boot.Add(3*time.Minute)))
	assert.False(t, SameBoot(boot, boot.Add(-3*time.Minute)))
}
