// Copyright 2021 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/config"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/server"
	"github.com/matrixorigin/cubesql/util/stop"
)

func newServeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cubesql http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(file)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&file, "config", "", "toml config file, defaults are used if empty")
	return cmd
}

func loadConfig(file string) (*config.Config, error) {
	var cfg *config.Config
	if file == "" {
		cfg = config.NewConfig()
	} else {
		c, err := config.LoadFile(file)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if err := checkConfigVersion(cfg.Version); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(cfg *config.Config) error {
	logger := log.GetDefaultZapLoggerWithLevel(log.ParseLevel(cfg.LogLevel))
	defer func() {
		_ = logger.Sync()
	}()
	log.UseLogger(logger)
	gin.SetMode(gin.ReleaseMode)

	n, err := newNode(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.close(); err != nil {
			logger.Error("fail to close storage", zap.Error(err))
		}
	}()

	dataPath := ""
	if cfg.Storage.Engine == config.StoragePebble {
		dataPath = cfg.Storage.DataPath
	}
	s := server.NewServer(cfg.Server, n.dispatcher,
		server.WithLogger(logger),
		server.WithWorkerStats(n.pool),
		server.WithDataPath(dataPath))
	if err := s.Start(); err != nil {
		return err
	}

	stopper := stop.NewStopper(stop.WithLogger(logger))
	if err := metric.StartPush(cfg.Metric, stopper, logger); err != nil {
		_ = s.Stop()
		return err
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-sc
	logger.Info("exit", zap.String("signal", sig.String()))

	if _, err := stopper.Stop(); err != nil {
		logger.Error("fail to stop metric push", zap.Error(err))
	}
	return s.Stop()
}
