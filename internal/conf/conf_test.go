package conf

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testYAML = `
server:
  websocket:
    addr: 127.0.0.1:9000
    rate_limit: 5
room:
  damage: 25
  respawn_delay: 3s
data:
  redis:
    addr: 10.0.0.2:6379
log:
  level: info
`

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	c, bc, err := Load(writeConf(t, testYAML))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "127.0.0.1:9000", bc.Server.Websocket.Addr)
	assert.Equal(t, float64(5), bc.Server.Websocket.RateLimit)
	assert.Equal(t, int32(25), bc.Room.Damage)
	assert.Equal(t, 3*time.Second, bc.Room.RespawnDelay.Std())
	assert.Equal(t, "10.0.0.2:6379", bc.Data.Redis.Addr)
	assert.Equal(t, "info", bc.Log.Level)

	// 默认值
	assert.Equal(t, "/websocket", bc.Server.Websocket.Path)
	assert.Equal(t, 15*time.Second, bc.Server.Websocket.Heartbeat.PingInterval.Std())
	assert.Equal(t, int32(100), bc.Room.MaxHp)
	assert.Equal(t, 8, bc.Room.AsyncShards)
	assert.Equal(t, "herostory_victor", bc.Data.Rabbitmq.Queue)
	assert.Equal(t, Name, bc.Log.AppName)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, _, err = Load(writeConf(t, "room:\n  respawn_delay: soon\n"))
	require.Error(t, err)

	_, _, err = Load(writeConf(t, "room:\n  damage: -1\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	bc := Default()
	bc.Server.Websocket.Heartbeat.PingInterval = bc.Server.Websocket.Heartbeat.ReadDeadline
	bc.Room.AsyncShards = 0
	bc.Data.Rabbitmq.Queue = ""
	err := bc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping_interval")
	assert.Contains(t, err.Error(), "async_shards")
	assert.Contains(t, err.Error(), "queue")
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Dump(&buf))
	assert.Contains(t, buf.String(), "respawn_delay: 0s")

	var got Bootstrap
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, Default().Room, got.Room)
	assert.Equal(t, Default().Server.Websocket.Heartbeat, got.Server.Websocket.Heartbeat)
}

func TestDuration_JSON(t *testing.T) {
	var v struct {
		D Duration `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"150ms"}`), &v))
	assert.Equal(t, 150*time.Millisecond, v.D.Std())
	require.NoError(t, json.Unmarshal([]byte(`{"d":2}`), &v))
	assert.Equal(t, 2*time.Second, v.D.Std())
	require.Error(t, json.Unmarshal([]byte(`{"d":true}`), &v))

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2s"}`, string(b))
}

type fakeValue struct {
	config.Value
	data string
}

func (v fakeValue) Scan(obj any) error { return json.Unmarshal([]byte(v.data), obj) }

func TestObserver(t *testing.T) {
	room := Default().Room
	var applied []*Room
	fn := observer("room", room, func(r *Room) { applied = append(applied, r) })

	fn("room", fakeValue{data: `{"damage":30}`})
	require.Len(t, applied, 1)
	assert.Equal(t, int32(30), applied[0].Damage)
	assert.Equal(t, room.MaxHp, applied[0].MaxHp)
	// 原配置不变
	assert.Equal(t, int32(10), room.Damage)

	// 无变化
	fn("room", fakeValue{data: `{"damage":30}`})
	// 校验失败
	fn("room", fakeValue{data: `{"damage":0}`})
	// 解析失败
	fn("room", fakeValue{data: `{"damage":"x"}`})
	assert.Len(t, applied, 1)
}
