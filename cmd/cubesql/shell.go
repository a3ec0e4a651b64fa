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
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/cubesql/components/log"
	"github.com/matrixorigin/cubesql/response"
	"github.com/matrixorigin/cubesql/server"
	"github.com/matrixorigin/cubesql/sqlerror"
)

const (
	prompt         = "cubesql> "
	continuePrompt = "      -> "
)

// lineReader is implemented by *liner.State
type lineReader interface {
	Prompt(p string) (string, error)
	AppendHistory(item string)
}

func newShellCmd() *cobra.Command {
	var file string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run statements in an interactive shell against an embedded engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(file)
			if err != nil {
				return err
			}
			logger := log.GetDefaultZapLoggerWithLevel(zap.WarnLevel)
			n, err := newNode(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := n.close(); err != nil {
					logger.Error("fail to close storage", zap.Error(err))
				}
			}()

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)
			return runShell(line, cmd.OutOrStdout(), n.dispatcher, timeout)
		},
	}
	cmd.Flags().StringVar(&file, "config", "", "toml config file, defaults are used if empty")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "statement timeout")
	return cmd
}

// runShell reads statements terminated by ';' until EOF, Ctrl-C or exit
func runShell(r lineReader, out io.Writer, s server.Submitter, timeout time.Duration) error {
	var buf strings.Builder
	for {
		p := prompt
		if buf.Len() > 0 {
			p = continuePrompt
		}
		text, err := r.Prompt(p)
		if err == io.EOF || err == liner.ErrPromptAborted {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read statement")
		}

		text = strings.TrimSpace(text)
		if buf.Len() == 0 {
			switch strings.ToLower(text) {
			case "":
				continue
			case "exit", "quit", "\\q":
				return nil
			}
		}

		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(text)
		if !strings.HasSuffix(text, ";") {
			continue
		}

		stmt := strings.TrimSpace(strings.TrimRight(buf.String(), ";"))
		buf.Reset()
		if stmt == "" {
			continue
		}
		r.AppendHistory(stmt + ";")
		execute(out, s, stmt, timeout)
	}
}

func execute(out io.Writer, s server.Submitter, stmt string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := s.Submit(ctx, stmt, nil, time.Now()).Get(ctx)
	if err != nil {
		e := sqlerror.Translate(err)
		msg := e.Reason
		if cause := e.Unwrap(); cause != nil {
			msg = cause.Error()
		}
		fmt.Fprintf(out, "ERROR %s (%s): %s\n", e.Kind, e.Reason, msg)
		return
	}
	printResponse(out, resp)
}

func printResponse(out io.Writer, resp *response.SQLResponse) {
	if len(resp.Cols) > 0 {
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(resp.Cols, "\t"))
		for _, row := range resp.Rows {
			values := make([]string, 0, len(row))
			for _, v := range row {
				if v == nil {
					values = append(values, "NULL")
					continue
				}
				values = append(values, fmt.Sprint(v))
			}
			fmt.Fprintln(w, strings.Join(values, "\t"))
		}
		_ = w.Flush()
	}

	unit := "rows"
	if resp.RowCount == 1 {
		unit = "row"
	}
	suffix := ""
	if resp.DocumentMissing {
		suffix = ", document missing"
	}
	fmt.Fprintf(out, "%d %s (%.3f sec)%s\n", resp.RowCount, unit, resp.Duration.Seconds(), suffix)
}
