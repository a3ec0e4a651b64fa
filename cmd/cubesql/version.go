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
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/coreos/go-semver/semver"
	"github.com/spf13/cobra"
)

// overwritten by -ldflags "-X main.version=..."
var version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cubesql version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := binaryVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cubesql %s\n", v)
			return nil
		},
	}
}

func binaryVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid build version %q", version)
	}
	return v, nil
}

// checkConfigVersion rejects config files written for another major version
func checkConfigVersion(cfgVersion string) error {
	if cfgVersion == "" {
		return nil
	}

	binary, err := binaryVersion()
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(cfgVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid config version %q", cfgVersion)
	}
	if v.Major != binary.Major || binary.LessThan(*v) {
		return errors.Newf("config version %s is not compatible with cubesql %s", v, binary)
	}
	return nil
}
