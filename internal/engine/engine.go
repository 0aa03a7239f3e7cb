// Package engine defines the narrow surface the lifecycle controller needs
// from a transfer engine. Implementations live in subpackages.
package engine

import (
	"context"
	"errors"
)

var (
	// ErrInvalidIdentifier is returned by Resolve for malformed magnet URIs
	// and unparseable descriptor files.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrNotFound is returned by Resolve when a local descriptor is missing.
	ErrNotFound = errors.New("descriptor not found")
)

// Handle identifies one transfer inside an engine.
type Handle interface {
	InfoHash() string
}

// TransferStatus is a point-in-time snapshot. Engines build a fresh value
// on every Status call.
type TransferStatus struct {
	HasMetadata  bool
	Peers        int
	DHTNodes     int
	IsSeeding    bool
	Progress     float64
	Downloaded   int64
	Uploaded     int64
	DownloadRate int64
	UploadRate   int64
	TotalSize    int64
	Name         string
	FileCount    int
}

// Engine is the transfer engine as seen by the controller.
type Engine interface {
	// Resolve hands an identifier to the engine. It fails with
	// ErrInvalidIdentifier or ErrNotFound before any network activity.
	Resolve(ctx context.Context, identifier, outputDir string) (Handle, error)
	// Status never fails; it returns the best snapshot available.
	Status(h Handle) TransferStatus
	// SerializeState captures the engine's session for a later run.
	SerializeState() ([]byte, error)
}

// Ratio is uploaded bytes over total size, 0 when the size is unknown.
func Ratio(uploaded, totalSize int64) float64 {
	if totalSize <= 0 {
		return 0
	}
	return float64(uploaded) / float64(totalSize)
}
