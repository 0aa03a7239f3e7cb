package anacrolix

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelara/curlent/internal/engine"
)

// newLoopbackEngine builds a real client that never leaves 127.0.0.1.
func newLoopbackEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	cc := clientConfig(cfg)
	cc.ListenPort = 0
	cc.ListenHost = func(string) string { return "127.0.0.1" }
	cc.DisableIPv6 = true
	cc.DisableUTP = true
	cc.NoDHT = true
	cc.DisableTrackers = true
	cc.NoDefaultPortForwarding = true

	e, err := newEngine(cfg, cc)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func testPayload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// writeDescriptor stores payload as dir/name and returns the path of a
// .torrent file describing it.
func writeDescriptor(t *testing.T, dir, name string, payload []byte) string {
	t.Helper()
	src := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(src, payload, 0644))

	info := metainfo.Info{PieceLength: 16 << 10}
	require.NoError(t, info.BuildFromFilePath(src))
	infoBytes, err := bencode.Marshal(info)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name+".torrent")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	mi := metainfo.MetaInfo{InfoBytes: infoBytes}
	require.NoError(t, mi.Write(f))
	return path
}

func TestStatusLocalSeed(t *testing.T) {
	dataDir := t.TempDir()
	payload := testPayload(100 << 10)
	descriptor := writeDescriptor(t, dataDir, "payload.bin", payload)
	e := newLoopbackEngine(t, Config{DataDir: dataDir, Seed: true})

	h, err := e.Resolve(context.Background(), descriptor, dataDir)
	require.NoError(t, err)

	var st engine.TransferStatus
	require.Eventually(t, func() bool {
		st = e.Status(h)
		return st.IsSeeding
	}, 15*time.Second, 20*time.Millisecond)

	assert.True(t, st.HasMetadata)
	assert.Equal(t, "payload.bin", st.Name)
	assert.Equal(t, 1, st.FileCount)
	assert.Equal(t, int64(len(payload)), st.TotalSize)
	assert.Equal(t, st.TotalSize, st.Downloaded)
	assert.Equal(t, 1.0, st.Progress)
	assert.Zero(t, st.Uploaded)
}

func TestStatusWithoutLocalData(t *testing.T) {
	descriptor := writeDescriptor(t, t.TempDir(), "payload.bin", testPayload(64<<10))
	dataDir := t.TempDir()
	e := newLoopbackEngine(t, Config{DataDir: dataDir})

	h, err := e.Resolve(context.Background(), descriptor, dataDir)
	require.NoError(t, err)

	st := e.Status(h)
	assert.True(t, st.HasMetadata)
	assert.False(t, st.IsSeeding)
	assert.Equal(t, int64(64<<10), st.TotalSize)
	assert.Zero(t, st.Downloaded)
	assert.Less(t, st.Progress, 1.0)
}

func TestSerializeStateRestoresSession(t *testing.T) {
	descriptor := writeDescriptor(t, t.TempDir(), "payload.bin", testPayload(32<<10))
	mi, err := metainfo.LoadFromFile(descriptor)
	require.NoError(t, err)
	infoHash := mi.HashInfoBytes().HexString()

	cfg := Config{
		DataDir: t.TempDir(),
		Restored: engine.State{
			Version:  engine.StateVersion,
			InfoHash: infoHash,
			DHTNodes: []string{"67.215.246.10:6881"},
			Peers:    []string{"127.0.0.1:1"},
		},
	}
	e := newLoopbackEngine(t, cfg)

	h, err := e.Resolve(context.Background(), descriptor, cfg.DataDir)
	require.NoError(t, err)
	assert.Equal(t, infoHash, h.InfoHash())

	blob, err := e.SerializeState()
	require.NoError(t, err)

	next, err := RestoreConfig(blob, Config{DataDir: "/elsewhere"})
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", next.DataDir)
	assert.Equal(t, infoHash, next.Restored.InfoHash)
	assert.Contains(t, next.Restored.Peers, "127.0.0.1:1")
	assert.Equal(t, []string{"67.215.246.10:6881"}, next.Restored.DHTNodes)
	assert.NotZero(t, next.Restored.SavedAt)
}

func TestSerializeStateBeforeResolve(t *testing.T) {
	e := newLoopbackEngine(t, Config{DataDir: t.TempDir()})

	blob, err := e.SerializeState()
	require.NoError(t, err)

	st, err := engine.DecodeState(blob)
	require.NoError(t, err)
	assert.Empty(t, st.InfoHash)
	assert.Empty(t, st.Peers)
}
