package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/accelara/curlent/internal/engine"
)

const (
	carriageReturn = "\r"
	clearToEOL     = "\033[K"
)

// Reporter writes the live status line to errOut and one-time information
// to out. Quiet suppresses everything except Alert.
type Reporter struct {
	mu    sync.Mutex
	out   io.Writer
	err   io.Writer
	quiet bool
	width func() int
	live  bool
}

// New returns a Reporter on the process's stdout and stderr.
func New(quiet bool) *Reporter {
	return NewWithWriters(os.Stdout, os.Stderr, quiet, TerminalWidth)
}

func NewWithWriters(out, errOut io.Writer, quiet bool, width func() int) *Reporter {
	if width == nil {
		width = func() int { return defaultWidth }
	}
	return &Reporter{out: out, err: errOut, quiet: quiet, width: width}
}

// Metadata redraws the metadata wait line.
func (r *Reporter) Metadata(st engine.TransferStatus) {
	r.redraw(MetadataLine(st))
}

// Transfer redraws the download progress line.
func (r *Reporter) Transfer(st engine.TransferStatus) {
	r.redraw(RenderLine(TransferSample(st), r.width()))
}

// Seeding redraws the upload progress line toward ratio.
func (r *Reporter) Seeding(st engine.TransferStatus, ratio float64) {
	r.redraw(RenderLine(SeedSample(st, ratio), r.width()))
}

func (r *Reporter) redraw(line string) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.err, carriageReturn+line+clearToEOL)
	r.live = true
}

// Info prints a line to out unless quiet.
func (r *Reporter) Info(format string, args ...interface{}) {
	if r.quiet {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Notice prints a message to errOut unless quiet, ending any live line first.
func (r *Reporter) Notice(format string, args ...interface{}) {
	if r.quiet {
		return
	}
	r.message(format, args...)
}

// Alert prints a message to errOut even when quiet.
func (r *Reporter) Alert(format string, args ...interface{}) {
	r.message(format, args...)
}

func (r *Reporter) message(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live {
		fmt.Fprint(r.err, "\n")
		r.live = false
	}
	fmt.Fprintf(r.err, format+"\n", args...)
}

// EndLine moves past the live line so later output starts on a fresh row.
func (r *Reporter) EndLine() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.live {
		fmt.Fprint(r.err, "\n")
		r.live = false
	}
}
