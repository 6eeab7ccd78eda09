// Copyright 2021 The cascade Authors
// This file is part of the cascade library.
//
// The cascade library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The cascade library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the cascade library. If not, see <http://www.gnu.org/licenses/>.

// Package session wires together a Graph, a Scheduler, a Dispatcher and
// (optionally) a proxy Server into the single runtime a cmd/cascade
// process drives, the same role node.Node plays for go-probeum's
// protocol manager/backends/RPC endpoints.
package session

import (
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cascade-sim/cascade/config"
	"github.com/cascade-sim/cascade/dispatch"
	"github.com/cascade-sim/cascade/engine"
	"github.com/cascade-sim/cascade/log"
	"github.com/cascade-sim/cascade/proxy"
	"github.com/cascade-sim/cascade/sim"
	"github.com/cascade-sim/cascade/telemetry"
)

// Session owns one Graph's worth of runtime state: the scheduler that
// steps it, the dispatcher that installs/swaps its engines, and (if
// configured) the proxy server fronting it for remote clients.
type Session struct {
	Config config.Config

	Graph      *sim.Graph
	Scheduler  *sim.Scheduler
	Dispatcher *dispatch.Dispatcher

	metrics  *telemetry.Metrics
	reporter *telemetry.Reporter
	stop     chan struct{}

	proxyServer *proxy.Server
}

// New constructs a Session over a fresh Graph, wiring a Dispatcher with
// build as its always-available software builder. cfg.CompileWorkers (or
// dispatch.DefaultWorkers if unset) sizes the compile worker pool.
func New(cfg config.Config, build dispatch.Builder) *Session {
	graph := sim.NewGraph()
	sched := sim.New(graph)
	disp := dispatch.New(sched, build, cfg.CompileWorkers)

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	reporter := telemetry.NewReporter(metrics, time.Duration(cfg.Profile)*time.Second, nil)

	return &Session{
		Config:     cfg,
		Graph:      graph,
		Scheduler:  sched,
		Dispatcher: disp,
		metrics:    metrics,
		reporter:   reporter,
		stop:       make(chan struct{}),
	}
}

// RegisterBackend exposes Dispatcher.RegisterBackend so a cmd/cascade
// main doesn't need to reach into Session.Dispatcher directly for the
// common case.
func (s *Session) RegisterBackend(b dispatch.Backend) { s.Dispatcher.RegisterBackend(b) }

// Install exposes Dispatcher.Install.
func (s *Session) Install(decl engine.ModuleDecl, iface engine.Interface) error {
	return s.Dispatcher.Install(decl, iface)
}

// ServeProxy starts a proxy.Server fronting this Session's scheduler on
// the given async/sync listener addresses, per spec.md §6's two-socket
// proxy surface. Returns once both listeners are bound; serving continues
// in background goroutines, and Stop does not end it.
func (s *Session) ServeProxy(asyncAddr, syncAddr string) error {
	asyncL, err := net.Listen("tcp", asyncAddr)
	if err != nil {
		return fmt.Errorf("session: async listen: %w", err)
	}
	syncL, err := net.Listen("tcp", syncAddr)
	if err != nil {
		_ = asyncL.Close()
		return fmt.Errorf("session: sync listen: %w", err)
	}

	s.proxyServer = proxy.NewServer(s.Scheduler)
	go func() {
		if err := s.proxyServer.ServeAsync(asyncL); err != nil {
			log.Warn("session: async listener stopped: %v", err)
		}
	}()
	go func() {
		if err := s.proxyServer.ServeSync(syncL); err != nil {
			log.Warn("session: sync listener stopped: %v", err)
		}
	}()
	return nil
}

// Run steps the scheduler until done reports true or cancel fires,
// starting the telemetry reporter alongside it if --profile is non-zero.
func (s *Session) Run(done func() bool, cancel <-chan struct{}) {
	go s.reporter.Run(s.stop)
	s.Scheduler.Run(done, cancel)
}

// Stop halts the telemetry reporter and cancels any in-flight compiles.
// It does not close the listeners that ServeProxy opened.
func (s *Session) Stop() {
	close(s.stop)
	s.Dispatcher.StopCompileAll()
}
