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
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matrixorigin/cubesql/grafana"
)

func newDashboardCmd() *cobra.Command {
	var addr, apiKey, dataSource string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Create or update the cubesql grafana dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := grafana.NewDashboardCreator(addr, apiKey, dataSource).Create(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dashboard created")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "grafana", "http://127.0.0.1:3000", "grafana address")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "grafana api key")
	cmd.Flags().StringVar(&dataSource, "datasource", "Prometheus", "prometheus data source name")
	return cmd
}
