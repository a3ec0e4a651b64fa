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

package grafana

import (
	"context"
	"net/http"

	"github.com/K-Phoen/grabana"
	"github.com/K-Phoen/grabana/axis"
	"github.com/K-Phoen/grabana/graph"
	"github.com/K-Phoen/grabana/row"
	"github.com/K-Phoen/grabana/singlestat"
	"github.com/K-Phoen/grabana/table"
	"github.com/K-Phoen/grabana/target/prometheus"
	"github.com/K-Phoen/grabana/variable/interval"
)

var (
	folderName = "Cubesql"
)

// DashboardCreator cubesql grafana dashboard creator
type DashboardCreator struct {
	cli        *grabana.Client
	dataSource string
}

// NewDashboardCreator returns a dashboard creator
func NewDashboardCreator(grafana, apiKey, dataSource string) *DashboardCreator {
	return &DashboardCreator{
		cli:        grabana.NewClient(http.DefaultClient, grafana, apiKey),
		dataSource: dataSource,
	}
}

// Create create dashboard
func (c *DashboardCreator) Create(ctx context.Context) error {
	folder, err := c.createFolder(ctx)
	if err != nil {
		return err
	}

	_, err = c.cli.UpsertDashboard(ctx, folder, c.dashboard())
	return err
}

func (c *DashboardCreator) createFolder(ctx context.Context) (*grabana.Folder, error) {
	folder, err := c.cli.GetFolderByTitle(ctx, folderName)
	if err != nil && err != grabana.ErrFolderNotFound {
		return nil, err
	}

	if folder == nil {
		folder, err = c.cli.CreateFolder(ctx, folderName)
		if err != nil {
			return nil, err
		}
	}

	return folder, nil
}

func (c *DashboardCreator) dashboard() grabana.DashboardBuilder {
	return grabana.NewDashboardBuilder("Cubesql Status",
		grabana.AutoRefresh("5s"),
		grabana.Tags([]string{"generated"}),
		grabana.VariableAsInterval(
			"interval",
			interval.Values([]string{"30s", "1m", "5m", "10m", "30m", "1h", "6h", "12h"}),
		),
		c.overviewRow(),
		c.dispatchRow(),
		c.executorRow(),
		c.programRow())
}

func (c *DashboardCreator) overviewRow() grabana.DashboardBuilderOption {
	return grabana.Row(
		"Overview status",
		row.WithSingleStat(
			"Available workers",
			singlestat.Height("200px"),
			singlestat.Span(4),
			singlestat.WithPrometheusTarget("sum(cubesql_executor_available_workers)"),
		),
		row.WithSingleStat(
			"Running workers",
			singlestat.Height("200px"),
			singlestat.Span(4),
			singlestat.WithPrometheusTarget("sum(cubesql_executor_running_workers)"),
		),
		row.WithSingleStat(
			"Statements per second",
			singlestat.Height("200px"),
			singlestat.Span(4),
			singlestat.WithPrometheusTarget("sum(rate(cubesql_dispatch_statements_total[1m]))"),
			singlestat.Unit("ops"),
		),
	)
}

func (c *DashboardCreator) dispatchRow() grabana.DashboardBuilderOption {
	return grabana.Row(
		"Dispatch status",
		c.withGraph("Statements", 4,
			"sum(rate(cubesql_dispatch_statements_total[$interval])) by (classification)",
			"{{ classification }}"),
		c.withGraph("Responses", 4,
			"sum(rate(cubesql_dispatch_responses_total[$interval])) by (status)",
			"{{ status }}"),
		c.withTable("Failures per classification", 4,
			`sum(cubesql_dispatch_responses_total{status!="ok"}) by (classification, status)`,
			"{{ classification }}({{ status }})"),
		c.withGraph("50% statement duration", 4,
			`histogram_quantile(0.50, sum(rate(cubesql_dispatch_duration_seconds_bucket[$interval])) by (le, classification))`,
			"{{ classification }}", axis.Unit("s"), axis.Min(0)),
		c.withGraph("99% statement duration", 4,
			`histogram_quantile(0.99, sum(rate(cubesql_dispatch_duration_seconds_bucket[$interval])) by (le, classification))`,
			"{{ classification }}", axis.Unit("s"), axis.Min(0)),
		c.withGraph("99.99% statement duration", 4,
			`histogram_quantile(0.9999, sum(rate(cubesql_dispatch_duration_seconds_bucket[$interval])) by (le, classification))`,
			"{{ classification }}", axis.Unit("s"), axis.Min(0)),
	)
}

func (c *DashboardCreator) executorRow() grabana.DashboardBuilderOption {
	return grabana.Row(
		"Executor status",
		c.withGraph("Workers", 3,
			"sum(cubesql_executor_running_workers) by (instance)",
			"{{ instance }}"),
		c.withGraph("Submitted groups", 3,
			"sum(rate(cubesql_executor_groups_total[$interval])) by (mode)",
			"{{ mode }}"),
		c.withGraph("Rejected and fallback tasks", 3,
			"sum(rate(cubesql_executor_rejections_total[$interval])) by (instance)",
			"rejected {{ instance }}"),
		c.withGraph("99% partition size", 3,
			`histogram_quantile(0.99, sum(rate(cubesql_executor_partition_units_bucket[$interval])) by (le))`,
			"units", axis.Min(0)),
	)
}

func (c *DashboardCreator) programRow() grabana.DashboardBuilderOption {
	return grabana.Row(
		"Go program status",
		c.withGraph("Goroutines", 3,
			"sum(go_goroutines) by (instance)",
			"{{ instance }}"),
		c.withGraph("Heap in use", 3,
			"sum(go_memstats_heap_inuse_bytes) by (instance)",
			"{{ instance }}", axis.Unit("bytes"), axis.Min(0)),
		c.withGraph("GC duration", 3,
			"sum(rate(go_gc_duration_seconds_sum[$interval])) by (instance)",
			"{{ instance }}", axis.Unit("s"), axis.Min(0)),
		c.withGraph("Open fds", 3,
			"sum(process_open_fds) by (instance)",
			"{{ instance }}"),
	)
}

func (c *DashboardCreator) withGraph(title string, span float32, pql string, legend string, opts ...axis.Option) row.Option {
	return row.WithGraph(
		title,
		graph.Span(span),
		graph.Height("400px"),
		graph.DataSource(c.dataSource),
		graph.WithPrometheusTarget(
			pql,
			prometheus.Legend(legend),
		),
		graph.LeftYAxis(opts...),
	)
}

func (c *DashboardCreator) withTable(title string, span float32, pql string, legend string) row.Option {
	return row.WithTable(
		title,
		table.Span(span),
		table.Height("400px"),
		table.DataSource(c.dataSource),
		table.WithPrometheusTarget(
			pql,
			prometheus.Legend(legend)),
		table.AsTimeSeriesAggregations([]table.Aggregation{
			{Label: "Current", Type: table.Current},
			{Label: "Max", Type: table.Max},
			{Label: "Min", Type: table.Min},
		}),
	)
}
