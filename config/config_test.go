package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
node:
  id: 3
  name: node-a
  rpc_addr: "127.0.0.1:9000"
scheduler:
  workers: 8
redis:
  addr: "127.0.0.1:6379"
mongo:
  uri: "mongodb://127.0.0.1:27017"
  database: "actormesh"
  collection: "exits"
consul:
  addr: "127.0.0.1:8500"
nsq:
  nsqd_addr: "127.0.0.1:4150"
  topic: "actormesh.exit"
`

func TestLoadParsesAllSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 3, cfg.Node.ID)
	assert.Equal(t, "node-a", cfg.Node.Name)
	assert.Equal(t, 8, cfg.Scheduler.Workers)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, "actormesh", cfg.Mongo.Database)
	assert.Equal(t, "127.0.0.1:8500", cfg.Consul.Addr)
	assert.Equal(t, "actormesh.exit", cfg.NSQ.Topic)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
