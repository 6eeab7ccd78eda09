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
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/cascade-sim/cascade/bits"
	"github.com/cascade-sim/cascade/common"
)

func TestStoreSaveAndRestart(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer store.Close()

	snap := NewSnapshot()
	snap.Set(common.VarID(7), []bits.Bits{bits.New(8, 42)})

	require.NoError(t, store.Save("mod.a", snap))

	got, err := store.Restart("mod.a")
	require.NoError(t, err, "dump: %s", spew.Sdump(snap))

	v, ok := got.Scalar(common.VarID(7))
	require.True(t, ok)
	require.True(t, bits.Equal(v, bits.New(8, 42)), "restarted snapshot mismatch: %s", spew.Sdump(got))
}

func TestRestartMissingKeyErrors(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Restart("nope")
	require.Error(t, err)
}

func TestRestartFromFileMemoryMapsSnapshot(t *testing.T) {
	snap := NewSnapshot()
	snap.Set(common.VarID(1), []bits.Bits{bits.New(4, 9)})

	path := filepath.Join(t.TempDir(), "snap.bin")
	require.NoError(t, os.WriteFile(path, snap.MarshalBinary(), 0o644))

	got, err := RestartFromFile(path)
	require.NoError(t, err)
	v, ok := got.Scalar(common.VarID(1))
	require.True(t, ok)
	require.True(t, bits.Equal(v, bits.New(4, 9)))
}

func TestRestartFromFileEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err := RestartFromFile(path)
	require.NoError(t, err)
	require.Empty(t, got.Ids())
}
