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

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/kylelemons/godebug/pretty"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/cascade-sim/cascade/common"
	"github.com/cascade-sim/cascade/engine"
)

var debugCommand = cli.Command{
	Name:  "debug",
	Usage: "operator diagnostics (engine table, state diffs)",
	Subcommands: []cli.Command{
		{
			Name:   "engines",
			Usage:  "render the scheduler's engine table",
			Action: debugEngines,
		},
		{
			Name:      "diff",
			Usage:     "pretty-diff two saved State snapshots",
			ArgsUsage: "<a.snapshot> <b.snapshot>",
			Action:    debugDiff,
		},
	},
}

// debugEngines builds a fresh Session from the loaded configuration and
// renders a fixed-width table of its engine table, the same operator-facing shape tablewriter gives
// go-probeum's own CLI tables.
func debugEngines(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	sess := newDefaultSession(cfg)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Engine ID", "Target", "Steps"})
	for _, id := range sess.Scheduler.EngineIDs() {
		table.Append([]string{strconv.FormatUint(uint64(id), 10), cfg.March, strconv.FormatUint(sess.Scheduler.Steps(), 10)})
	}
	table.Render()
	return nil
}

// debugDiff loads two binary Snapshot files and pretty-prints their
// structural difference, distinct from go-cmp's test-only usage of the
// same concern.
func debugDiff(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return fmt.Errorf("debug diff: expected <a.snapshot> <b.snapshot>")
	}
	a, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	b, err := loadSnapshot(args[1])
	if err != nil {
		return err
	}
	diff := pretty.Compare(snapshotView(a), snapshotView(b))
	if diff == "" {
		fmt.Println("snapshots are identical")
		return nil
	}
	fmt.Println(diff)
	return nil
}

func loadSnapshot(path string) (*engine.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("debug diff: %w", err)
	}
	snap, err := engine.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("debug diff: %w", err)
	}
	return snap, nil
}

// snapshotView flattens a Snapshot into a plain map pretty.Compare can
// walk, keyed by variable id.
func snapshotView(snap *engine.Snapshot) map[common.VarID][]string {
	out := make(map[common.VarID][]string)
	for _, id := range snap.Ids() {
		vals, _ := snap.Get(id)
		texts := make([]string, len(vals))
		for i, v := range vals {
			texts[i] = v.String()
		}
		out[id] = texts
	}
	return out
}
