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

package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/matrixorigin/cubesql/metric"
	"github.com/matrixorigin/cubesql/util"
	"github.com/matrixorigin/cubesql/util/typeutil"
)

const (
	// StorageMemory keeps all data in an in-memory btree
	StorageMemory = "memory"
	// StoragePebble keeps all data in a pebble instance under dir-data
	StoragePebble = "pebble"
)

var (
	mb = 1024 * 1024

	defaultWorkersPerCPU           = 4
	defaultStorageEngine           = StorageMemory
	defaultCacheSize               = typeutil.ByteSize(64 * mb)
	defaultSchema                  = "doc"
	defaultShards           uint32 = 4
	defaultImportBatchSize         = 256
	defaultServerAddr              = "127.0.0.1:4200"
	defaultBurst                   = 100
	defaultReadHeaderTimeout       = time.Second * 10
	defaultShutdownTimeout         = time.Second * 30
)

// Config cubesql config
type Config struct {
	Version  string        `toml:"version"`
	LogLevel string        `toml:"log-level"`
	Pool     PoolConfig    `toml:"pool"`
	Storage  StorageConfig `toml:"storage"`
	Engine   EngineConfig  `toml:"engine"`
	Server   ServerConfig  `toml:"server"`
	// Metric pushgateway config
	Metric metric.Cfg `toml:"metric"`
}

// PoolConfig worker pool config
type PoolConfig struct {
	// MaxWorkers the capacity of the shared worker pool
	MaxWorkers int `toml:"max-workers"`
	// ExpiryDuration idle workers are cleaned after this duration
	ExpiryDuration typeutil.Duration `toml:"expiry-duration"`
}

// StorageConfig storage config
type StorageConfig struct {
	Engine    string            `toml:"engine"`
	DataPath  string            `toml:"dir-data"`
	CacheSize typeutil.ByteSize `toml:"cache-size"`
}

// EngineConfig local engine config
type EngineConfig struct {
	DefaultSchema string `toml:"default-schema"`
	Shards        uint32 `toml:"shards"`
	// ImportRowsPerSecond 0 means unlimited
	ImportRowsPerSecond int64 `toml:"import-rows-per-second"`
	ImportBatchSize     int   `toml:"import-batch-size"`
}

// ServerConfig http server config
type ServerConfig struct {
	Addr string `toml:"addr"`
	// RequestsPerSecond per client rate limit, 0 means unlimited
	RequestsPerSecond float64           `toml:"requests-per-second"`
	Burst             int               `toml:"burst"`
	ReadHeaderTimeout typeutil.Duration `toml:"read-header-timeout"`
	ShutdownTimeout   typeutil.Duration `toml:"shutdown-timeout"`
}

// NewConfig returns a config with all defaults filled
func NewConfig() *Config {
	c := &Config{}
	c.Adjust()
	return c
}

// LoadFile loads the toml config file, fills the defaults and validates it
func LoadFile(file string) (*Config, error) {
	c := &Config{}
	md, err := toml.DecodeFile(file, c)
	if err != nil {
		return nil, errors.Wrapf(err, "load config file %s", file)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, errors.Newf("unknown config items: %s", strings.Join(keys, ","))
	}

	c.Adjust()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Adjust adjust
func (c *Config) Adjust() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	(&c.Pool).adjust()
	(&c.Storage).adjust()
	(&c.Engine).adjust()
	(&c.Server).adjust()
}

// Validate returns an error if the config contains invalid combinations
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case StorageMemory:
	case StoragePebble:
		if c.Storage.DataPath == "" {
			return errors.New("storage.dir-data is required by the pebble engine")
		}
	default:
		return errors.Newf("unknown storage engine %q", c.Storage.Engine)
	}

	if c.Pool.MaxWorkers < 0 {
		return errors.Newf("invalid pool.max-workers %d", c.Pool.MaxWorkers)
	}
	if c.Engine.ImportRowsPerSecond < 0 {
		return errors.Newf("invalid engine.import-rows-per-second %d", c.Engine.ImportRowsPerSecond)
	}
	if c.Server.RequestsPerSecond < 0 {
		return errors.Newf("invalid server.requests-per-second %v", c.Server.RequestsPerSecond)
	}
	return nil
}

func (c *PoolConfig) adjust() {
	if c.MaxWorkers == 0 {
		c.MaxWorkers = util.CPUCount() * defaultWorkersPerCPU
	}
	if c.ExpiryDuration.Duration == 0 {
		c.ExpiryDuration.Duration = time.Second
	}
}

func (c *StorageConfig) adjust() {
	if c.Engine == "" {
		c.Engine = defaultStorageEngine
	}
	c.Engine = strings.ToLower(c.Engine)
	if c.CacheSize == 0 {
		c.CacheSize = defaultCacheSize
	}
}

func (c *EngineConfig) adjust() {
	if c.DefaultSchema == "" {
		c.DefaultSchema = defaultSchema
	}
	if c.Shards == 0 {
		c.Shards = defaultShards
	}
	if c.ImportBatchSize == 0 {
		c.ImportBatchSize = defaultImportBatchSize
	}
}

func (c *ServerConfig) adjust() {
	if c.Addr == "" {
		c.Addr = defaultServerAddr
	}
	if c.Burst == 0 {
		c.Burst = defaultBurst
	}
	if c.ReadHeaderTimeout.Duration == 0 {
		c.ReadHeaderTimeout.Duration = defaultReadHeaderTimeout
	}
	if c.ShutdownTimeout.Duration == 0 {
		c.ShutdownTimeout.Duration = defaultShutdownTimeout
	}
}
