// Package downloader drives one transfer from identifier to exit status:
// metadata, download, optional seeding, and the kill switch around all
// three.
package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/accelara/curlent/internal/engine"
	"github.com/accelara/curlent/internal/progress"
	"github.com/accelara/curlent/internal/statestore"
	"github.com/accelara/curlent/internal/utils"
)

// DefaultInterval is the time between ticks.
const DefaultInterval = 500 * time.Millisecond

// Session is the immutable input of one run.
type Session struct {
	Identifier string
	OutputDir  string
	SeedRatio  float64
	Interface  string
	Quiet      bool
	NoSeed     bool
}

// NetworkGuard answers whether a named interface is usable.
type NetworkGuard interface {
	IsUp(name string) bool
}

// Observer receives lifecycle events. Methods are called from the
// controller's goroutine. PhaseChanged is first called with from == to
// once the identifier has been handed to the engine.
type Observer interface {
	PhaseChanged(from, to Phase)
	StatusObserved(st engine.TransferStatus, ratio float64)
	StateSaved(err error)
	Terminated(reason Reason)
}

type noopObserver struct{}

func (noopObserver) PhaseChanged(Phase, Phase)                     {}
func (noopObserver) StatusObserved(engine.TransferStatus, float64) {}
func (noopObserver) StateSaved(error)                              {}
func (noopObserver) Terminated(Reason)                             {}

// Controller runs the tick loop. The zero value is not usable; Engine,
// Store and Reporter must be set. Guard is required only when the session
// names an interface.
type Controller struct {
	Engine   engine.Engine
	Guard    NetworkGuard
	Store    statestore.Store
	Reporter *progress.Reporter
	Observer Observer
	Interval time.Duration

	phase  Phase
	reason Reason
	saved  bool
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Run resolves the session's identifier and ticks until a terminal
// condition. Engine state is saved exactly once on every path after
// Resolve is attempted.
func (c *Controller) Run(ctx context.Context, s Session) Outcome {
	c.phase = PhaseAwaitingMetadata
	c.reason = ReasonNone
	c.saved = false

	if utils.IsMagnet(s.Identifier) {
		c.Reporter.Info("Adding magnet link...")
	} else {
		c.Reporter.Info("Loading torrent file: %s", s.Identifier)
	}

	h, err := c.Engine.Resolve(ctx, s.Identifier, s.OutputDir)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Run",
			"identifier": s.Identifier,
			"error":      err.Error(),
		}).Debug("Resolve failed")
		if ctx.Err() != nil {
			return c.terminate(s, ReasonInterrupted, nil)
		}
		return c.terminate(s, ReasonEngineError, err)
	}
	c.observer().PhaseChanged(PhaseAwaitingMetadata, PhaseAwaitingMetadata)

	logrus.WithFields(logrus.Fields{
		"function":  "Run",
		"info_hash": h.InfoHash(),
		"interface": s.Interface,
		"ratio":     s.SeedRatio,
		"no_seed":   s.NoSeed,
	}).Debug("Transfer started")

	for {
		if out, done := c.tick(ctx, s, h); done {
			return out
		}
		c.sleep(ctx)
	}
}

// tick performs one iteration. Cancellation outranks the kill switch, and
// the kill switch outranks anything the engine reports in the same tick.
func (c *Controller) tick(ctx context.Context, s Session, h engine.Handle) (Outcome, bool) {
	if ctx.Err() != nil {
		return c.terminate(s, ReasonInterrupted, nil), true
	}
	if s.Interface != "" && !c.Guard.IsUp(s.Interface) {
		return c.terminate(s, ReasonKillSwitchTripped, nil), true
	}

	st := c.Engine.Status(h)
	c.observer().StatusObserved(st, engine.Ratio(st.Uploaded, st.TotalSize))

	switch c.phase {
	case PhaseAwaitingMetadata:
		c.awaitMetadata(s, st)
	case PhaseTransferring:
		return c.transfer(s, st)
	case PhaseSeeding:
		return c.seed(s, st)
	}
	return Outcome{}, false
}

func (c *Controller) awaitMetadata(s Session, st engine.TransferStatus) {
	if !st.HasMetadata {
		if utils.IsMagnet(s.Identifier) {
			c.Reporter.Metadata(st)
		}
		return
	}

	c.Reporter.EndLine()
	c.Reporter.Info("Name: %s", st.Name)
	c.Reporter.Info("Size: %s", utils.FormatSize(st.TotalSize))
	c.Reporter.Info("Files: %d\n", st.FileCount)
	c.enter(PhaseTransferring)
}

func (c *Controller) transfer(s Session, st engine.TransferStatus) (Outcome, bool) {
	if !st.IsSeeding {
		c.Reporter.Transfer(st)
		return Outcome{}, false
	}

	c.Reporter.Notice("\nDownload complete!\a")
	c.Reporter.Notice("Saved to: %s", filepath.Join(s.OutputDir, st.Name))

	if s.NoSeed {
		return c.terminate(s, ReasonCompleted, nil), true
	}

	c.Reporter.Notice("\nSeeding to ratio %.1f...\n", s.SeedRatio)
	c.enter(PhaseSeeding)
	return Outcome{}, false
}

func (c *Controller) seed(s Session, st engine.TransferStatus) (Outcome, bool) {
	if RatioMet(engine.Ratio(st.Uploaded, st.TotalSize), s.SeedRatio) {
		c.Reporter.Notice("\nSeeding complete!\a")
		return c.terminate(s, ReasonRatioReached, nil), true
	}
	c.Reporter.Seeding(st, s.SeedRatio)
	return Outcome{}, false
}

// RatioMet reports whether ratio satisfies target. A target of zero or less
// is always met.
func RatioMet(ratio, target float64) bool {
	return target <= 0 || ratio >= target
}

func (c *Controller) terminate(s Session, reason Reason, err error) Outcome {
	switch reason {
	case ReasonKillSwitchTripped:
		c.Reporter.Alert("\nKill switch: interface %s is down", s.Interface)
	case ReasonInterrupted:
		c.Reporter.Alert("\n%s", interruptMessage(c.phase))
	default:
		c.Reporter.EndLine()
	}

	c.persist()

	c.reason = reason
	c.enter(PhaseTerminated)
	c.observer().Terminated(reason)

	out := outcomeFor(reason, err)
	logrus.WithFields(logrus.Fields{
		"function":  "terminate",
		"reason":    reason.String(),
		"outcome":   out.Kind.String(),
		"exit_code": out.ExitCode(),
	}).Debug("Run finished")
	return out
}

func interruptMessage(p Phase) string {
	switch p {
	case PhaseTransferring:
		return "Download interrupted"
	case PhaseSeeding:
		return "Seeding interrupted"
	default:
		return "Interrupted"
	}
}

// persist saves the engine state at most once per run. Failures are
// logged and never change the outcome.
func (c *Controller) persist() {
	if c.saved {
		return
	}
	c.saved = true

	data, err := c.Engine.SerializeState()
	if err != nil {
		err = fmt.Errorf("failed to serialize state: %w", err)
	} else if err = c.Store.Save(data); err != nil {
		err = fmt.Errorf("failed to save state: %w", err)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "persist",
			"error":    err.Error(),
		}).Warn("Session state not saved")
	}
	c.observer().StateSaved(err)
}

func (c *Controller) enter(to Phase) {
	from := c.phase
	if !CanTransition(from, to) {
		logrus.WithFields(logrus.Fields{
			"function": "enter",
			"from":     from.String(),
			"to":       to.String(),
		}).Error(errInvalidTransition.Error())
		return
	}
	c.phase = to
	logrus.WithFields(logrus.Fields{
		"function": "enter",
		"from":     from.String(),
		"to":       to.String(),
	}).Debug("Phase changed")
	c.observer().PhaseChanged(from, to)
}

func (c *Controller) sleep(ctx context.Context) {
	d := c.Interval
	if d <= 0 {
		d = DefaultInterval
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (c *Controller) observer() Observer {
	if c.Observer == nil {
		return noopObserver{}
	}
	return c.Observer
}
