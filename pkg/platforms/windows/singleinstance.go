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
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	winio "github.com/Microsoft/go-winio"
	"github.com/VaporProject/vapor/pkg/config"
	"github.com/rs/zerolog/log"
)

const (
	controlPipeName = `\\.\pipe\` + config.AppName + `-control`

	// Commands accepted on the control pipe.
	ControlPing   = "ping"
	ControlReload = "reload"

	controlDialTimeout = 2 * time.Second
)

// ControlServer owns the named pipe other Vapor processes use to find a
// running instance and send it commands. Holding the pipe open is also what
// enforces single instance: a second process fails to listen and pings us
// instead.
type ControlServer struct {
	ctx       context.Context
	cancel    context.CancelFunc
	listener  net.Listener
	onCommand func(cmd string)
}

// NewControlServer creates a control pipe server. onCommand runs on its own
// goroutine for every command received except ping.
func NewControlServer(onCommand func(cmd string)) *ControlServer {
	ctx, cancel := context.WithCancel(context.Background())
	return &ControlServer{
		ctx:       ctx,
		cancel:    cancel,
		onCommand: onCommand,
	}
}

// Start begins listening on the control pipe. It fails if another instance
// already holds it.
func (s *ControlServer) Start() error {
	listener, err := winio.ListenPipe(controlPipeName, nil)
	if err != nil {
		return fmt.Errorf("failed to create control pipe: %w", err)
	}
	s.listener = listener
	log.Debug().Msgf("control pipe listening on %s", controlPipeName)

	go s.acceptConnections()
	return nil
}

// Stop shuts down the pipe server.
func (s *ControlServer) Stop() {
	s.cancel()
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing control pipe listener")
		}
	}
}

func (s *ControlServer) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				log.Warn().Err(err).Msg("control pipe accept failed")
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

func (s *ControlServer) handleConnection(conn net.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}
	cmd := strings.TrimSpace(scanner.Text())

	switch cmd {
	case ControlPing:
		_, _ = conn.Write([]byte("pong\n"))
	case "":
	default:
		log.Info().Str("command", cmd).Msg("control pipe command")
		if s.onCommand != nil {
			go s.onCommand(cmd)
		}
		_, _ = conn.Write([]byte("ok\n"))
	}
}

// InstanceRunning reports whether another Vapor process holds the control
// pipe.
func InstanceRunning() bool {
	return SendControl(ControlPing) == nil
}

// SendControl delivers a single command to the running instance.
func SendControl(cmd string) error {
	timeout := controlDialTimeout
	conn, err := winio.DialPipe(controlPipeName, &timeout)
	if err != nil {
		return fmt.Errorf("failed to reach running instance: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("failed to send %q: %w", cmd, err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(controlDialTimeout))
	reply := bufio.NewScanner(conn)
	if !reply.Scan() {
		return fmt.Errorf("no reply to %q", cmd)
	}
	return nil
}
