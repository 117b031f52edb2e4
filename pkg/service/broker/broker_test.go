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

package broker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/stretchr/testify/assert"
)

func TestNewBroker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification)
	b := NewBroker(ctx, source)

	assert.NotNil(t, b)
	assert.NotNil(t, b.subscribers)
	assert.Equal(t, 0, b.nextID)
}

func TestBroker_Subscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification)
	b := NewBroker(ctx, source)

	ch, id := b.Subscribe(10)

	assert.NotNil(t, ch)
	assert.Equal(t, 0, id)
	assert.Len(t, b.subscribers, 1)

	ch2, id2 := b.Subscribe(20)

	assert.NotNil(t, ch2)
	assert.Equal(t, 1, id2)
	assert.Len(t, b.subscribers, 2)
}

func TestBroker_Unsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification)
	b := NewBroker(ctx, source)

	ch, id := b.Subscribe(10)

	b.Unsubscribe(id)

	assert.Empty(t, b.subscribers)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")

	// Unsubscribing again should be safe (no-op)
	b.Unsubscribe(id)
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification, 10)
	b := NewBroker(ctx, source)
	b.Start()

	sub1, _ := b.Subscribe(10)
	sub2, _ := b.Subscribe(10)
	sub3, _ := b.Subscribe(10)

	notif := events.Notification{
		Method: events.NotificationSessionStarted,
		Params: json.RawMessage(`{"appId":620,"name":"Portal 2"}`),
	}

	source <- notif

	received1 := <-sub1
	received2 := <-sub2
	received3 := <-sub3

	assert.Equal(t, notif.Method, received1.Method)
	assert.Equal(t, notif.Method, received2.Method)
	assert.Equal(t, notif.Method, received3.Method)
	assert.JSONEq(t, string(notif.Params), string(received1.Params))
}

func TestBroker_SlowConsumerDoesNotBlockFastConsumer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification, 100)
	b := NewBroker(ctx, source)
	b.Start()

	fastConsumer, _ := b.Subscribe(10)

	// Slow consumer with tiny buffer (will fill up quickly)
	_, _ = b.Subscribe(2)

	sentCount := 20
	for range sentCount {
		source <- events.Notification{Method: events.NotificationTemperatureAlert}
	}

	time.Sleep(50 * time.Millisecond)

	fastReceived := 0
	fastTimeout := time.After(100 * time.Millisecond)
	for {
		select {
		case <-fastConsumer:
			fastReceived++
		case <-fastTimeout:
			goto checkResults
		}
	}

checkResults:
	// Fast consumer keeps receiving even while the slow one drops. The test
	// completing at all also proves no deadlock occurred.
	assert.Greater(t, fastReceived, 5, "fast consumer should have received several notifications")
}

func TestBroker_ContextCancellationStopsBroker(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan events.Notification, 10)
	b := NewBroker(ctx, source)
	b.Start()

	sub, _ := b.Subscribe(10)

	cancel()

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscriber channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber channel to close")
	}
}

func TestBroker_SourceChannelClosureStopsBroker(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification, 10)
	b := NewBroker(ctx, source)
	b.Start()

	sub, _ := b.Subscribe(10)

	close(source)

	select {
	case _, ok := <-sub:
		assert.False(t, ok, "subscriber channel should be closed after source closes")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber channel to close")
	}
}

func TestBroker_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification, 100)
	b := NewBroker(ctx, source)
	b.Start()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, id := b.Subscribe(5)
				source <- events.Notification{Method: events.NotificationMonitorPaused}
				b.Unsubscribe(id)
			}
		}()
	}

	wg.Wait()
}

func TestBroker_SubscriberReceivesInOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	source := make(chan events.Notification, 10)
	b := NewBroker(ctx, source)
	b.Start()

	sub, _ := b.Subscribe(10)

	methods := []string{
		events.NotificationSessionStarted,
		events.NotificationTemperatureAlert,
		events.NotificationSessionStopped,
		events.NotificationSessionSummary,
	}

	for _, method := range methods {
		source <- events.Notification{Method: method}
	}

	for _, want := range methods {
		select {
		case got := <-sub:
			assert.Equal(t, want, got.Method)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	}
}
