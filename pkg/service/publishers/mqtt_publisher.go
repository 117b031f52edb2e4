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

// Package publishers forwards service notifications to external sinks.
package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/VaporProject/vapor/pkg/service/events"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// MQTTPublisher publishes service notifications to an MQTT broker, for
// home automation setups that dim the lights when a game starts.
type MQTTPublisher struct {
	client mqtt.Client
	broker string
	topic  string
	filter []string
}

// NewMQTTPublisher creates a publisher for the given broker and topic. If
// filter is empty every notification is published, otherwise only the
// listed methods are.
func NewMQTTPublisher(broker, topic string, filter []string) *MQTTPublisher {
	return &MQTTPublisher{
		broker: broker,
		topic:  topic,
		filter: filter,
	}
}

// Start connects to the MQTT broker.
func (p *MQTTPublisher) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", p.broker))
	opts.SetClientID("vapor-publisher-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = mqtt.NewClient(opts)

	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Msgf("mqtt publisher: connected to %s (topic: %s)", p.broker, p.topic)
	return nil
}

// Stop disconnects from the MQTT broker.
func (p *MQTTPublisher) Stop() {
	if p.client != nil && p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(250)
	}
}

// Publish forwards one notification, wrapped in an envelope carrying the
// method name. Filtered methods are dropped silently.
func (p *MQTTPublisher) Publish(notif events.Notification) error {
	if !p.matchesFilter(notif.Method) {
		return nil
	}

	payload, err := json.Marshal(struct {
		Method string          `json:"method"`
		Params json.RawMessage `json:"params,omitempty"`
	}{Method: notif.Method, Params: notif.Params})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing %s notification", notif.Method)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}

	log.Debug().Msgf("mqtt publisher: published %s notification", notif.Method)
	return nil
}

// matchesFilter reports whether a method passes the configured filter. An
// empty filter passes everything.
func (p *MQTTPublisher) matchesFilter(method string) bool {
	if len(p.filter) == 0 {
		return true
	}
	for _, f := range p.filter {
		if f == method {
			return true
		}
	}
	return false
}
