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

// Package journal persists every system mutation before it is applied so
// that each one can be undone exactly once, including after a crash or a
// reboot. Entries are appended to a bbolt file in apply order and flipped
// to reverted in a single transaction per undo.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	bolt "go.etcd.io/bbolt"
)

const bucketMutations = "mutations"

// ErrEntryNotFound is returned when a revert targets an ID the journal
// has never seen.
var ErrEntryNotFound = errors.New("journal entry not found")

// Kind identifies which mutator produced an entry.
type Kind string

const (
	KindProcessClose Kind = "process_close"
	KindSystemVolume Kind = "system_volume"
	KindGameVolume   Kind = "game_volume"
	KindPowerPlan    Kind = "power_plan"
	KindGameMode     Kind = "game_mode"
)

// State tracks whether an entry's mutation is still in effect.
type State string

const (
	StateApplied  State = "applied"
	StateReverted State = "reverted"
)

// Entry is one journaled mutation. Payload holds the kind-specific data
// needed to undo it.
type Entry struct {
	AppliedAt time.Time       `json:"appliedAt"`
	BootTime  time.Time       `json:"bootTime"`
	Payload   json.RawMessage `json:"payload"`
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Kind      Kind            `json:"kind"`
	State     State           `json:"state"`
}

// DecodePayload unmarshals the entry's payload into v.
func (e *Entry) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Kind, err)
	}
	return nil
}

// ProcessClosePayload records a process closed for the session so it can
// be relaunched afterwards.
type ProcessClosePayload struct {
	Exe  string   `json:"exe"`
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

// SystemVolumePayload records the master volume percent before the
// session override.
type SystemVolumePayload struct {
	PreviousPercent int `json:"previousPercent"`
}

// GameVolumePayload records the volume applied to the game's audio
// sessions. The sessions die with the game so there is nothing to restore,
// the entry exists so rollback accounts for every mutation.
type GameVolumePayload struct {
	PIDs           []int32 `json:"pids,omitempty"`
	AppliedPercent int     `json:"appliedPercent"`
}

// PowerPlanPayload records the active power plan GUID before the session
// override.
type PowerPlanPayload struct {
	PreviousGUID string `json:"previousGuid"`
}

// GameModePayload records the Game Mode toggle before the session override.
type GameModePayload struct {
	PreviousEnabled bool `json:"previousEnabled"`
}

// bootTimeTolerance absorbs drift between boot time readings: the value is
// derived from the uptime counter on every run, so two readings of the
// same boot land a few seconds apart.
const bootTimeTolerance = 2 * time.Minute

// SameBoot reports whether two boot time readings describe the same boot.
func SameBoot(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= bootTimeTolerance
}

// Journal is an append-only mutation log over a bbolt file.
type Journal struct {
	bdb      *bolt.DB
	clock    clockwork.Clock
	bootTime time.Time
}

func dbFile(pl platforms.Platform) string {
	return filepath.Join(helpers.DataDir(pl), config.JournalFile)
}

// Open opens or creates the journal under the platform's data directory.
func Open(pl platforms.Platform, clock clockwork.Clock) (*Journal, error) {
	bootTime, err := pl.BootTime()
	if err != nil {
		return nil, fmt.Errorf("failed to read boot time: %w", err)
	}

	path := dbFile(pl)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	err = db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists([]byte(bucketMutations))
		if err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", bucketMutations, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{bdb: db, clock: clock, bootTime: bootTime}, nil
}

func (j *Journal) Close() error {
	if err := j.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close journal database: %w", err)
	}
	return nil
}

// BootTime returns the boot time stamped onto new entries.
func (j *Journal) BootTime() time.Time {
	return j.bootTime
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// Add appends an applied entry. It must be called before the mutation
// itself runs: a crash between the write and the OS change leaves a stale
// entry, which startup rollback handles, while the reverse order would
// leave an untracked mutation.
func (j *Journal) Add(sessionID string, kind Kind, payload any) (Entry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	entry := Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Payload:   raw,
		AppliedAt: j.clock.Now(),
		BootTime:  j.bootTime,
		State:     StateApplied,
	}

	err = j.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketMutations))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucketMutations)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate journal sequence: %w", err)
		}

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("failed to marshal journal entry: %w", err)
		}

		if err := b.Put(seqKey(seq), data); err != nil {
			return fmt.Errorf("failed to put journal entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to append journal entry: %w", err)
	}

	return entry, nil
}

// MarkReverted flips an entry from applied to reverted. It reports false
// when the entry was already reverted: the state is re-checked inside the
// transaction, so out of any number of racing undo paths exactly one
// observes applied.
func (j *Journal) MarkReverted(id string) (bool, error) {
	var flipped bool

	err := j.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketMutations))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucketMutations)
		}

		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal journal entry: %w", err)
			}
			if e.ID != id {
				continue
			}
			if e.State == StateReverted {
				return nil
			}

			e.State = StateReverted
			data, err := json.Marshal(&e)
			if err != nil {
				return fmt.Errorf("failed to marshal journal entry: %w", err)
			}
			if err := b.Put(k, data); err != nil {
				return fmt.Errorf("failed to update journal entry: %w", err)
			}
			flipped = true
			return nil
		}

		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	})
	if err != nil {
		return false, fmt.Errorf("failed to revert journal entry: %w", err)
	}

	return flipped, nil
}

// Applied returns every entry still in effect, oldest first.
func (j *Journal) Applied() ([]Entry, error) {
	return j.applied(func(Entry) bool { return true })
}

// AppliedForSession returns the session's entries still in effect, oldest
// first. Undo walks the result backwards.
func (j *Journal) AppliedForSession(sessionID string) ([]Entry, error) {
	return j.applied(func(e Entry) bool { return e.SessionID == sessionID })
}

func (j *Journal) applied(match func(Entry) bool) ([]Entry, error) {
	entries := make([]Entry, 0)

	err := j.bdb.View(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketMutations))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucketMutations)
		}

		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal journal entry: %w", err)
			}
			if e.State != StateApplied || !match(e) {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	return entries, nil
}

// PruneReverted deletes reverted entries and returns how many were
// removed. Run after startup rollback to keep the file small.
func (j *Journal) PruneReverted() (int, error) {
	pruned := 0

	err := j.bdb.Update(func(txn *bolt.Tx) error {
		b := txn.Bucket([]byte(bucketMutations))
		if b == nil {
			return fmt.Errorf("bucket %q does not exist", bucketMutations)
		}

		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal journal entry: %w", err)
			}
			if e.State != StateReverted {
				continue
			}
			if err := c.Delete(); err != nil {
				return fmt.Errorf("failed to delete journal entry: %w", err)
			}
			pruned++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune journal: %w", err)
	}

	return pruned, nil
}
