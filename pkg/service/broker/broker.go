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

// Package broker provides a simple in-process event broker for broadcasting
// service notifications to multiple consumers without blocking.
package broker

import (
	"context"

	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/rs/zerolog/log"
)

// Broker manages event subscriptions and broadcasts notifications to all
// subscribers. It uses non-blocking sends so a slow consumer (a stalled MQTT
// broker, a busy tray menu) cannot hold up session handling.
type Broker struct {
	ctx         context.Context
	source      <-chan events.Notification
	subscribers map[int]chan events.Notification
	mu          syncutil.RWMutex
	nextID      int
}

// NewBroker creates a broker that reads from the source channel and
// broadcasts to all subscribers.
func NewBroker(ctx context.Context, source <-chan events.Notification) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]chan events.Notification),
		nextID:      0,
	}
}

// Start begins the broker's broadcast loop in a goroutine. It reads from the
// source channel and fans out to subscribers with non-blocking sends. When
// the source channel closes or the context is cancelled, it closes all
// subscriber channels and exits.
func (b *Broker) Start() {
	go func() {
		for {
			select {
			case notif, ok := <-b.source:
				if !ok {
					log.Debug().Msg("broker: source channel closed")
					b.closeAllSubscribers()
					return
				}
				b.broadcast(notif)
			case <-b.ctx.Done():
				log.Debug().Msg("broker: context cancelled, shutting down")
				b.closeAllSubscribers()
				return
			}
		}
	}()
}

// broadcast sends a notification to all subscribers. If a subscriber's
// channel is full the notification is dropped for that subscriber and a
// warning is logged.
func (b *Broker) broadcast(notif events.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- notif:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("method", notif.Method).
				Msg("subscriber channel full, dropping notification")
		}
	}
}

// Subscribe creates a new subscription and returns a channel that will
// receive notifications. The bufferSize determines how many notifications
// can queue before drops start.
//
// Returns the notification channel and a subscription ID for unsubscribing.
func (b *Broker) Subscribe(bufferSize int) (notifChan <-chan events.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan events.Notification, bufferSize)
	b.subscribers[id] = ch

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Msg("new subscriber registered")

	notifChan = ch
	return
}

// Unsubscribe removes a subscription and closes its channel. It's safe to
// call multiple times with the same ID.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("subscriber unsubscribed")
	}
}

// Stop shuts down the broker by closing all subscriber channels. Called
// during service shutdown.
func (b *Broker) Stop() {
	b.closeAllSubscribers()
}

func (b *Broker) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]chan events.Notification)
}
