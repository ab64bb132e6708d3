// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/companion-network/cnu/cnu"
	"github.com/companion-network/cnu/genesis"
	"github.com/companion-network/cnu/log"
	"github.com/companion-network/cnu/lvldb"
	"github.com/companion-network/cnu/metrics"
)

func initLogger(ctx *cli.Context) {
	log.SetLevel(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))
}

func openMainDB(ctx *cli.Context) (*lvldb.LevelDB, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return lvldb.NewMem()
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}
	return lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
}

func eventDBPath(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, "events.db")
}

func selectGenesis(ctx *cli.Context) (*genesis.Config, error) {
	if path := ctx.String(genesisFlag.Name); path != "" {
		return genesis.LoadConfig(path)
	}
	ownerStr := ctx.String(ownerFlag.Name)
	if ownerStr == "" {
		return nil, errors.New("either --genesis or --owner is required")
	}
	owner, err := cnu.ParseAddress(ownerStr)
	if err != nil {
		return nil, errors.Wrap(err, "owner")
	}
	return genesis.DefaultConfig(*owner), nil
}

func startServer(addr string, handler http.Handler) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen on %v", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		srv.Serve(listener)
	}()
	return srv, "http://" + listener.Addr().String() + "/", nil
}

func startMetricsServer(addr string) (*http.Server, string, error) {
	return startServer(addr, metrics.HTTPHandler())
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(apiURL, metricsURL string, dataDir string) {
	if dataDir == "" {
		dataDir = "(in-memory)"
	}
	if metricsURL == "" {
		metricsURL = "(disabled)"
	}
	format := "Starting %v\n    Data dir   %v\n    API        %v\n    Metrics    %v\n"
	if isatty.IsTerminal(os.Stdout.Fd()) {
		format = "Starting \033[1m%v\033[0m\n    Data dir   \033[36m%v\033[0m\n    API        \033[36m%v\033[0m\n    Metrics    \033[36m%v\033[0m\n"
	}
	fmt.Printf(format, "Companion Network", dataDir, apiURL, metricsURL)
}
