// Copyright 2025 The OpenFIB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfib/fibsync/fib"
	"github.com/openfib/fibsync/fib/config"
	"github.com/openfib/fibsync/pkg/log"
)

func main() {
	var configPath string

	cmd := &cobra.Command{
		Use:           "fibsync",
		Short:         "Synchronizes computed route tables into a forwarding agent",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "fibsync.toml",
		"path to the configuration file")

	cmd.AddCommand(&cobra.Command{
		Use:   "sample-config",
		Short: "Print a documented sample configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(config.Sample())
		},
	})

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := log.Setup(cfg.Logging); err != nil {
		return err
	}
	defer log.HandlePanic()

	svc := &fib.Service{
		Config:  cfg,
		Metrics: fib.NewMetrics(),
	}

	errs := make(chan error, 1)
	go func() {
		defer log.HandlePanic()
		if err := svc.Run(context.Background()); err != nil {
			errs <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-sigs:
		log.Info("Received signal, shutting down", "signal", sig)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return svc.Close(closeCtx)
}
