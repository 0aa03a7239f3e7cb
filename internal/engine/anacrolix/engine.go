// Package anacrolix adapts github.com/anacrolix/torrent to engine.Engine.
package anacrolix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/anacrolix/torrent/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/accelara/curlent/internal/engine"
	"github.com/accelara/curlent/internal/utils"
)

const (
	maxSavedNodes = 500
	maxSavedPeers = 200
)

// Config controls how the client is built.
type Config struct {
	DataDir       string
	Seed          bool
	UploadLimit   int64 // bytes/sec, 0 = unlimited
	DownloadLimit int64 // bytes/sec, 0 = unlimited

	// BindIPv4 and BindIPv6 pin listening sockets to one interface. A nil
	// address disables that family.
	BindIPv4 net.IP
	BindIPv6 net.IP

	// Restored is the session saved by a previous run.
	Restored engine.State
}

// Bound reports whether sockets are pinned to an interface.
func (c Config) Bound() bool {
	return c.BindIPv4 != nil || c.BindIPv6 != nil
}

// RestoreConfig returns base with the session decoded from blob. On error
// base is returned unchanged so the caller can continue with a fresh session.
func RestoreConfig(blob []byte, base Config) (Config, error) {
	st, err := engine.DecodeState(blob)
	if err != nil {
		return base, err
	}
	base.Restored = st
	return base, nil
}

type Engine struct {
	client   *torrent.Client
	dataDir  string
	restored engine.State

	mu      sync.Mutex
	current *torrent.Torrent
}

type handle struct {
	t      *torrent.Torrent
	rates  *rateSampler
	peakDL int64
}

func (h *handle) InfoHash() string {
	return h.t.InfoHash().HexString()
}

// highWater records completed and returns the largest value seen.
// BytesCompleted dips while pieces are re-verified from disk, and
// progress must not move backwards.
func (h *handle) highWater(completed int64) int64 {
	if completed > h.peakDL {
		h.peakDL = completed
	}
	return h.peakDL
}

func New(cfg Config) (*Engine, error) {
	return newEngine(cfg, clientConfig(cfg))
}

func clientConfig(cfg Config) *torrent.ClientConfig {
	clientConfig := torrent.NewDefaultClientConfig()
	if cfg.DataDir != "" {
		clientConfig.DataDir = cfg.DataDir
	}
	clientConfig.Seed = cfg.Seed

	if cfg.UploadLimit > 0 {
		clientConfig.UploadRateLimiter = rate.NewLimiter(rate.Limit(cfg.UploadLimit), int(cfg.UploadLimit))
	}
	if cfg.DownloadLimit > 0 {
		clientConfig.DownloadRateLimiter = rate.NewLimiter(rate.Limit(cfg.DownloadLimit), int(cfg.DownloadLimit))
	}

	if cfg.Bound() {
		v4, v6 := cfg.BindIPv4, cfg.BindIPv6
		clientConfig.DisableIPv4 = v4 == nil
		clientConfig.DisableIPv6 = v6 == nil
		clientConfig.ListenHost = func(network string) string {
			if strings.HasSuffix(network, "6") && v6 != nil {
				return v6.String()
			}
			if v4 != nil {
				return v4.String()
			}
			return v6.String()
		}
		// port mapping would announce an address outside the interface
		clientConfig.NoDefaultPortForwarding = true
	}

	if len(cfg.Restored.DHTNodes) > 0 {
		clientConfig.DhtStartingNodes = startingNodes(cfg.Restored.DHTNodes)
	}
	return clientConfig
}

func newEngine(cfg Config, clientConfig *torrent.ClientConfig) (*Engine, error) {
	client, err := torrent.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create torrent client: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":       "New",
		"data_dir":       clientConfig.DataDir,
		"bound":          cfg.Bound(),
		"restored_nodes": len(cfg.Restored.DHTNodes),
		"restored_peers": len(cfg.Restored.Peers),
	}).Debug("Torrent client created")

	return &Engine{
		client:   client,
		dataDir:  clientConfig.DataDir,
		restored: cfg.Restored,
	}, nil
}

func (e *Engine) Close() error {
	if e.client != nil {
		e.client.Close()
	}
	return nil
}

// Resolve validates identifier and adds it to the client. Identifier errors
// are reported before the client is touched.
func (e *Engine) Resolve(ctx context.Context, identifier, outputDir string) (engine.Handle, error) {
	spec, err := specFor(identifier)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.client == nil {
		return nil, errors.New("torrent client not configured")
	}
	if outputDir != "" && outputDir != e.dataDir {
		spec.Storage = storage.NewFile(outputDir)
	}

	t, _, err := e.client.AddTorrentSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to add torrent: %w", err)
	}
	t.DownloadAll()

	h := &handle{t: t, rates: newRateSampler()}
	if peers := peerInfos(e.restored.PeersFor(h.InfoHash())); len(peers) > 0 {
		added := t.AddPeers(peers)
		logrus.WithFields(logrus.Fields{
			"function":  "Resolve",
			"info_hash": h.InfoHash(),
			"peers":     added,
		}).Debug("Re-added peers from saved session")
	}

	e.mu.Lock()
	e.current = t
	e.mu.Unlock()
	return h, nil
}

func specFor(identifier string) (*torrent.TorrentSpec, error) {
	if utils.IsMagnet(identifier) {
		if err := checkMagnet(identifier); err != nil {
			return nil, err
		}
		spec, err := torrent.TorrentSpecFromMagnetUri(identifier)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", engine.ErrInvalidIdentifier, err)
		}
		return spec, nil
	}

	if _, err := os.Stat(identifier); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s%s", engine.ErrNotFound, identifier, hint(identifier))
		}
		return nil, fmt.Errorf("failed to open torrent file: %w", err)
	}
	mi, err := metainfo.LoadFromFile(identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse torrent%s: %v", engine.ErrInvalidIdentifier, hint(identifier), err)
	}
	if _, err := mi.UnmarshalInfo(); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal torrent info: %v", engine.ErrInvalidIdentifier, err)
	}
	spec, err := torrent.TorrentSpecFromMetaInfoErr(mi)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidIdentifier, err)
	}
	return spec, nil
}

// hint marks identifiers that look like neither a magnet link nor a
// .torrent file.
func hint(identifier string) string {
	if utils.IsTorrentLike(identifier) {
		return ""
	}
	return " (not a magnet link or .torrent file)"
}

// checkMagnet requires at least one BitTorrent exact-topic parameter.
func checkMagnet(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("%w: %v", engine.ErrInvalidIdentifier, err)
	}
	for _, xt := range u.Query()["xt"] {
		if strings.HasPrefix(xt, "urn:btih:") || strings.HasPrefix(xt, "urn:btmh:") {
			return nil
		}
	}
	return fmt.Errorf("%w: magnet link has no info hash", engine.ErrInvalidIdentifier)
}

func (e *Engine) Status(h engine.Handle) engine.TransferStatus {
	hd, ok := h.(*handle)
	if !ok || hd == nil || hd.t == nil {
		return engine.TransferStatus{}
	}
	t := hd.t

	stats := t.Stats()
	down, up := hd.rates.sample(stats.BytesReadUsefulData.Int64(), stats.BytesWrittenData.Int64(), time.Now())

	st := engine.TransferStatus{
		Peers:        stats.ActivePeers,
		DHTNodes:     e.dhtNodeCount(),
		Uploaded:     stats.BytesWrittenData.Int64(),
		DownloadRate: down,
		UploadRate:   up,
	}

	if !torrentInfoReady(t) {
		return st
	}

	st.HasMetadata = true
	st.Name = t.Name()
	st.FileCount = len(t.Files())
	st.TotalSize = t.Length()

	st.Downloaded = hd.highWater(t.BytesCompleted())

	if st.TotalSize > 0 {
		st.Progress = float64(st.Downloaded) / float64(st.TotalSize)
	} else {
		st.Progress = 1
	}
	st.IsSeeding = st.Downloaded >= st.TotalSize
	return st
}

// SerializeState captures DHT contacts and the current swarm.
func (e *Engine) SerializeState() ([]byte, error) {
	st := engine.State{
		SavedAt:  time.Now().Unix(),
		DHTNodes: e.dhtNodeAddrs(),
	}
	if len(st.DHTNodes) == 0 {
		st.DHTNodes = e.restored.DHTNodes
	}

	e.mu.Lock()
	t := e.current
	e.mu.Unlock()

	if t != nil {
		st.InfoHash = t.InfoHash().HexString()
		for _, p := range t.KnownSwarm() {
			if p.Addr == nil {
				continue
			}
			st.Peers = append(st.Peers, p.Addr.String())
			if len(st.Peers) >= maxSavedPeers {
				break
			}
		}
		if len(st.Peers) == 0 {
			st.Peers = e.restored.PeersFor(st.InfoHash)
		}
	}
	return st.Encode()
}

func (e *Engine) dhtNodeCount() int {
	if e.client == nil {
		return 0
	}
	n := 0
	for _, s := range e.client.DhtServers() {
		if w, ok := s.(torrent.AnacrolixDhtServerWrapper); ok {
			n += w.NumNodes()
		}
	}
	return n
}

func (e *Engine) dhtNodeAddrs() []string {
	if e.client == nil {
		return nil
	}
	var addrs []string
	for _, s := range e.client.DhtServers() {
		w, ok := s.(torrent.AnacrolixDhtServerWrapper)
		if !ok {
			continue
		}
		for _, ni := range w.Nodes() {
			addrs = append(addrs, ni.Addr.String())
			if len(addrs) >= maxSavedNodes {
				return addrs
			}
		}
	}
	return addrs
}

func torrentInfoReady(t *torrent.Torrent) bool {
	if t == nil {
		return false
	}
	select {
	case <-t.GotInfo():
		return true
	default:
		return false
	}
}
