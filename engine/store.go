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

package engine

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/syndtr/goleveldb/leveldb"
)

// Store is the backing persistence for Interface.Save(path)/Restart(path)
// (spec.md §4.3's Interface callbacks): a leveldb keyed by path, value the
// binary Snapshot form MarshalBinary/UnmarshalSnapshot already produce.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens (creating if absent) a leveldb at dir.
func OpenStore(dir string) (*Store, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: open store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save persists snap's binary form under path.
func (s *Store) Save(path string, snap *Snapshot) error {
	return s.db.Put([]byte(path), snap.MarshalBinary(), nil)
}

// Restart loads the Snapshot last saved under path.
func (s *Store) Restart(path string) (*Snapshot, error) {
	data, err := s.db.Get([]byte(path), nil)
	if err != nil {
		return nil, fmt.Errorf("engine: restart %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}

// RestartFromFile loads a snapshot written directly to the filesystem
// (rather than through Save/the leveldb) by memory-mapping it instead of a
// bulk read, for large multi-signal snapshots saved out-of-band (e.g. by
// an FPGA backend's own save path).
func RestartFromFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("engine: restart from file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return NewSnapshot(), nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("engine: mmap %s: %w", path, err)
	}
	defer m.Unmap()

	data := make([]byte, len(m))
	copy(data, m)
	return UnmarshalSnapshot(data)
}
