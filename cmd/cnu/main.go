// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/companion-network/cnu/api"
	"github.com/companion-network/cnu/builtin"
	"github.com/companion-network/cnu/eventdb"
	"github.com/companion-network/cnu/genesis"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/metrics"
	"github.com/companion-network/cnu/runtime"
	"github.com/companion-network/cnu/state"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "CNU",
		Usage:     "Node of the Companion Network token ecosystem",
		Copyright: "2025 Companion Network",
		Flags: []cli.Flag{
			dataDirFlag,
			genesisFlag,
			ownerFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			verbosityFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		srv, url, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		metricsURL = url
		defer func() { log.Info("stopping metrics server..."); srv.Shutdown(context.Background()) }()
	}

	mainDB, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	var eventDB *eventdb.EventDB
	if path := eventDBPath(ctx); path != "" {
		eventDB, err = eventdb.New(path)
	} else {
		eventDB, err = eventdb.NewMem()
	}
	if err != nil {
		return err
	}
	defer func() { log.Info("closing event database..."); eventDB.Close() }()

	rt := runtime.New(state.New(mainDB))
	eco := builtin.New(rt.State())
	rt.SubscribeEvents(func(time uint64, events []runtime.Event) {
		if err := eventDB.Write(time, events); err != nil {
			log.Error("failed to write events", "err", err)
		}
	})

	initialized, err := eco.Token.Owner()
	if err != nil {
		return err
	}
	if initialized.IsZero() {
		cfg, err := selectGenesis(ctx)
		if err != nil {
			return err
		}
		if err := genesis.Build(rt, eco, cfg); err != nil {
			return err
		}
		log.Info("genesis built")
	}

	handler := api.New(rt, eco, eventDB, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	apiSrv, apiURL, err := startServer(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	printStartupMessage(apiURL, metricsURL, ctx.String(dataDirFlag.Name))

	<-handleExitSignal().Done()
	return nil
}
