package engine

import (
	"errors"
	"fmt"

	"github.com/anacrolix/torrent/bencode"
)

// StateVersion is bumped whenever State changes incompatibly.
const StateVersion = 1

var ErrStateVersion = errors.New("unsupported state version")

// State is the persisted session: DHT routing-table contacts and the known
// swarm of the last transfer. It is stored as one bencoded blob.
type State struct {
	Version  int      `bencode:"version"`
	InfoHash string   `bencode:"info_hash,omitempty"`
	DHTNodes []string `bencode:"dht_nodes,omitempty"`
	Peers    []string `bencode:"peers,omitempty"`
	SavedAt  int64    `bencode:"saved_at,omitempty"`
}

// Encode serializes s, stamping the current version.
func (s State) Encode() ([]byte, error) {
	s.Version = StateVersion
	data, err := bencode.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a blob written by Encode. Empty input is an error so
// callers can fall back to a fresh session uniformly.
func DecodeState(data []byte) (State, error) {
	if len(data) == 0 {
		return State{}, errors.New("empty state")
	}
	var s State
	if err := bencode.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if s.Version != StateVersion {
		return State{}, fmt.Errorf("%w: %d", ErrStateVersion, s.Version)
	}
	return s, nil
}

// PeersFor returns the saved peers if they belong to infoHash.
func (s State) PeersFor(infoHash string) []string {
	if infoHash == "" || s.InfoHash != infoHash {
		return nil
	}
	return s.Peers
}
