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

// Command cascade is the runtime entrypoint named in spec.md §6's CLI
// surface, built the way cmd/gprobe lays out its own urfave/cli.v1 app:
// package-level flag vars, an App with a default Action plus subcommands.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/cascade-sim/cascade/config"
	"github.com/cascade-sim/cascade/log"
)

var (
	marchFlag = cli.StringFlag{
		Name:  "march",
		Usage: "default backend annotation for newly installed modules",
		Value: "sw",
	}
	quartusHostFlag = cli.StringFlag{
		Name:  "quartus_host",
		Usage: "Quartus FPGA backend host",
	}
	quartusPortFlag = cli.IntFlag{
		Name:  "quartus_port",
		Usage: "Quartus FPGA backend port",
		Value: 2000,
	}
	profileFlag = cli.IntFlag{
		Name:  "profile",
		Usage: "periodic telemetry interval in seconds, 0 disables",
	}
	openLoopTargetFlag = cli.IntFlag{
		Name:  "open_loop_target",
		Usage: "open-loop wall-clock bound in seconds",
		Value: 2,
	}
	disableInliningFlag = cli.BoolFlag{
		Name:  "disable_inlining",
		Usage: "disable backend module inlining",
	}
	disableReplFlag = cli.BoolFlag{
		Name:  "disable_repl",
		Usage: "disable the interactive REPL",
	}
	enableLogFlag = cli.BoolFlag{
		Name:  "enable_log",
		Usage: "enable verbose logging",
	}
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	asyncAddrFlag = cli.StringFlag{
		Name:  "proxy_async_addr",
		Usage: "listen address for the proxy async socket",
		Value: "127.0.0.1:11105",
	}
	syncAddrFlag = cli.StringFlag{
		Name:  "proxy_sync_addr",
		Usage: "listen address for the proxy sync socket",
		Value: "127.0.0.1:11106",
	}

	appFlags = []cli.Flag{
		marchFlag,
		quartusHostFlag,
		quartusPortFlag,
		profileFlag,
		openLoopTargetFlag,
		disableInliningFlag,
		disableReplFlag,
		enableLogFlag,
		configFileFlag,
		asyncAddrFlag,
		syncAddrFlag,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "cascade"
	app.Usage = "JIT hardware description language runtime"
	app.Flags = appFlags
	app.Action = run
	app.Commands = []cli.Command{debugCommand}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// loadConfig builds a config.Config from --config (if given) with flag
// values layered on top, the same defaults-then-file-then-flags order the
// teacher's own makeConfigNode follows.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString(configFileFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if ctx.GlobalIsSet(marchFlag.Name) {
		cfg.March = ctx.GlobalString(marchFlag.Name)
	}
	if ctx.GlobalIsSet(quartusHostFlag.Name) {
		cfg.QuartusHost = ctx.GlobalString(quartusHostFlag.Name)
	}
	if ctx.GlobalIsSet(quartusPortFlag.Name) {
		cfg.QuartusPort = ctx.GlobalInt(quartusPortFlag.Name)
	}
	if ctx.GlobalIsSet(profileFlag.Name) {
		cfg.Profile = ctx.GlobalInt(profileFlag.Name)
	}
	if ctx.GlobalIsSet(openLoopTargetFlag.Name) {
		cfg.OpenLoopTarget = ctx.GlobalInt(openLoopTargetFlag.Name)
	}
	if ctx.GlobalIsSet(disableInliningFlag.Name) {
		cfg.DisableInlining = ctx.GlobalBool(disableInliningFlag.Name)
	}
	if ctx.GlobalIsSet(disableReplFlag.Name) {
		cfg.DisableRepl = ctx.GlobalBool(disableReplFlag.Name)
	}
	if ctx.GlobalIsSet(enableLogFlag.Name) {
		cfg.EnableLog = ctx.GlobalBool(enableLogFlag.Name)
	}
	return cfg, nil
}

// run is the app's default Action: build a Session, serve the proxy
// listeners, and step the scheduler until a signal is observed.
func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.EnableLog {
		log.Root.SetLevel(log.LvlDebug)
	}

	sess := newDefaultSession(cfg)
	if err := sess.ServeProxy(ctx.GlobalString(asyncAddrFlag.Name), ctx.GlobalString(syncAddrFlag.Name)); err != nil {
		return err
	}

	sig := installSignalHandler()
	cancel := make(chan struct{})
	signaled := make(chan struct{})
	go func() {
		<-sig
		log.Info("cascade: signal received, shutting down")
		close(signaled)
		close(cancel)
	}()

	sess.Run(func() bool { return false }, cancel)
	sess.Stop()

	select {
	case <-signaled:
		os.Exit(1)
	default:
	}
	return nil
}
