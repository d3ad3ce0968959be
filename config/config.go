// Package config loads the actor runtime's ambient configuration, adapted
// from the teacher's config.ServerConfig: the same yaml.v3-backed,
// singleton-loader shape, trimmed of game-specific sections (friend lists,
// login/gateway ports) and extended with the sections the runtime's
// external collaborators need (scheduler sizing, registry, reply cache,
// transport, audit sink).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RedisConfig configures replycache's Redis-backed store. Same shape as the
// teacher's config.RedisConfig.
type RedisConfig struct {
	Addr          string   `yaml:"addr"`
	Password      string   `yaml:"password,omitempty"`
	DB            int      `yaml:"db,omitempty"`
	MasterName    string   `yaml:"master_name,omitempty"`
	SentinelAddrs []string `yaml:"sentinel_addrs,omitempty"`
}

// MongoConfig configures audit's Mongo-backed sink. Same shape as the
// teacher's config.MongoConfig, minus the pool-sizing fields the audit
// sink's light write-only traffic doesn't need to tune separately.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// ConsulConfig configures registry's Consul-backed directory.
type ConsulConfig struct {
	Addr string `yaml:"addr"`
}

// NSQConfig configures transport/nsqbus's exit-notification fanout.
type NSQConfig struct {
	NSQDAddr                string   `yaml:"nsqd_addr,omitempty"`
	NSQDAddresses           []string `yaml:"nsqd_addresses,omitempty"`
	NSQLookupdHTTPAddresses []string `yaml:"nsqlookupd_http_addresses,omitempty"`
	Topic                   string   `yaml:"topic,omitempty"`
	Channel                 string   `yaml:"channel,omitempty"`
}

// SchedulerConfig sizes the actor/pond worker pool.
type SchedulerConfig struct {
	Workers int `yaml:"workers,omitempty"`
}

// NodeConfig identifies this process within a cluster of nodes sharing a
// registry, for idgen.SetDefaultNode and for tagging registered actors.
type NodeConfig struct {
	ID      int64  `yaml:"id"`
	Name    string `yaml:"name"`
	RPCAddr string `yaml:"rpc_addr,omitempty"`
}

// RuntimeConfig is the actor runtime's complete ambient configuration,
// loaded once per process the same way the teacher's ServerConfig is.
type RuntimeConfig struct {
	Node      NodeConfig      `yaml:"node"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Redis     RedisConfig     `yaml:"redis"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Consul    ConsulConfig    `yaml:"consul"`
	NSQ       NSQConfig       `yaml:"nsq"`
}

var instance *RuntimeConfig

// Get returns the process-wide RuntimeConfig, loading it from
// config/runtime.yaml on first use and panicking if it can't be read —
// matching the teacher's GetServerConfig, which treats a missing/invalid
// config file as a startup-time fault rather than something to recover
// from mid-run.
func Get() *RuntimeConfig {
	if instance == nil {
		cfg, err := Load("config/runtime.yaml")
		if err != nil {
			panic(fmt.Sprintf("config: failed to load runtime config: %v", err))
		}
		instance = cfg
	}
	return instance
}

// Load reads and parses a RuntimeConfig from path.
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg RuntimeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}
