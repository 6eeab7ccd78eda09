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

package proxy

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/cascade-sim/cascade/common"
)

// defaultConnCacheSize bounds the connection table's LRU, per spec.md §5's
// "Connection table: protected by a single mutex; held only for
// lookup/insert" — the mutex is this type's, the bound keeps a server with
// many short-lived proxy clients from growing it unbounded.
const defaultConnCacheSize = 256

// ConnTable maps a location string ("host:port") to the live Session
// dialed for it, so a caller that looks a location up before dialing can
// reuse one connection; Connect itself does not consult it. Eviction drops the least-recently-used entry, closing its
// Session.
type ConnTable struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewConnTable constructs an empty table.
func NewConnTable() *ConnTable {
	c, _ := lru.NewWithEvict(defaultConnCacheSize, func(_, value interface{}) {
		if s, ok := value.(*Session); ok {
			_ = s.Close()
		}
	})
	return &ConnTable{cache: c}
}

// Get returns the Session registered for location, if any.
func (t *ConnTable) Get(location string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.cache.Get(location)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Put registers sess under location, evicting the least-recently-used
// entry if the table is at capacity.
func (t *ConnTable) Put(location string, sess *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Add(location, sess)
}

// Remove closes and evicts the entry for location, if present.
func (t *ConnTable) Remove(location string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Remove(location)
}

// PidOf is a small helper table from assigned pid back to location, used
// by the server side of the handshake to recognize which client a sync
// OPEN_CONN_2 belongs to.
type PidOf struct {
	mu  sync.Mutex
	byp map[common.Pid]string
}

// NewPidOf constructs an empty pid→location table.
func NewPidOf() *PidOf { return &PidOf{byp: make(map[common.Pid]string)} }

func (p *PidOf) Set(pid common.Pid, location string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byp[pid] = location
}

func (p *PidOf) Get(pid common.Pid) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	loc, ok := p.byp[pid]
	return loc, ok
}

func (p *PidOf) Delete(pid common.Pid) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byp, pid)
}
