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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestPropertyRevertExactlyOnce verifies that any interleaving of revert
// attempts flips each entry exactly once, no matter how often it is
// retried.
func TestPropertyRevertExactlyOnce(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	iteration := 0

	rapid.Check(t, func(t *rapid.T) {
		iteration++
		session := fmt.Sprintf("session-%d", iteration)

		entryCount := rapid.IntRange(1, 6).Draw(t, "entryCount")
		ids := make([]string, entryCount)
		for i := range entryCount {
			entry, err := j.Add(session, KindSystemVolume,
				SystemVolumePayload{PreviousPercent: i})
			require.NoError(t, err)
			ids[i] = entry.ID
		}

		attemptCount := rapid.IntRange(entryCount, entryCount*3).Draw(t, "attemptCount")
		attempts := make(map[string]int, entryCount)
		flips := make(map[string]int, entryCount)
		for range attemptCount {
			id := ids[rapid.IntRange(0, entryCount-1).Draw(t, "target")]
			attempts[id]++

			flipped, err := j.MarkReverted(id)
			require.NoError(t, err)
			if flipped {
				flips[id]++
			}
		}

		remaining, err := j.AppliedForSession(session)
		require.NoError(t, err)

		stillApplied := make(map[string]bool, len(remaining))
		for _, e := range remaining {
			stillApplied[e.ID] = true
		}

		for _, id := range ids {
			if attempts[id] > 0 {
				if flips[id] != 1 {
					t.Fatalf("entry reverted %d times across %d attempts, want exactly 1",
						flips[id], attempts[id])
				}
				if stillApplied[id] {
					t.Fatalf("reverted entry still reported as applied")
				}
			} else {
				if flips[id] != 0 {
					t.Fatalf("entry flipped without any revert attempt")
				}
				if !stillApplied[id] {
					t.Fatalf("untouched entry no longer applied")
				}
			}
		}
	})
}

// TestConcurrentRevertExactlyOnce races many undo paths at one entry. Only
// one may observe the applied state.
func TestConcurrentRevertExactlyOnce(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	entry, err := j.Add("session-1", KindGameMode, GameModePayload{PreviousEnabled: true})
	require.NoError(t, err)

	type result struct {
		err     error
		flipped bool
	}

	const racers = 16
	results := make(chan result, racers)
	var wg sync.WaitGroup
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flipped, revertErr := j.MarkReverted(entry.ID)
			results <- result{err: revertErr, flipped: flipped}
		}()
	}
	wg.Wait()
	close(results)

	flips := 0
	for res := range results {
		require.NoError(t, res.err)
		if res.flipped {
			flips++
		}
	}
	require.Equal(t, 1, flips)
}
