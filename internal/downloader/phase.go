package downloader

import "errors"

// Phase is where a run sits in its lifecycle. Phases only move forward.
type Phase int

const (
	PhaseAwaitingMetadata Phase = iota
	PhaseTransferring
	PhaseSeeding
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingMetadata:
		return "awaiting_metadata"
	case PhaseTransferring:
		return "transferring"
	case PhaseSeeding:
		return "seeding"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reason records why a run reached PhaseTerminated.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonCompleted
	ReasonInterrupted
	ReasonKillSwitchTripped
	ReasonRatioReached
	ReasonEngineError
)

func (r Reason) String() string {
	switch r {
	case ReasonCompleted:
		return "completed"
	case ReasonInterrupted:
		return "interrupted"
	case ReasonKillSwitchTripped:
		return "kill_switch_tripped"
	case ReasonRatioReached:
		return "ratio_reached"
	case ReasonEngineError:
		return "engine_error"
	default:
		return "none"
	}
}

var errInvalidTransition = errors.New("invalid phase transition")

// validTransitions is the adjacency list of allowed phase changes.
var validTransitions = map[Phase][]Phase{
	PhaseAwaitingMetadata: {PhaseTransferring, PhaseTerminated},
	PhaseTransferring:     {PhaseSeeding, PhaseTerminated},
	PhaseSeeding:          {PhaseTerminated},
}

// CanTransition reports whether a run may move from one phase to another.
func CanTransition(from, to Phase) bool {
	for _, p := range validTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// OutcomeKind classifies how a run ended for the process exit status.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	UserInterrupted
	KillSwitchTripped
	EngineError
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case UserInterrupted:
		return "user_interrupted"
	case KillSwitchTripped:
		return "kill_switch_tripped"
	case EngineError:
		return "engine_error"
	default:
		return "unknown"
	}
}

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// Outcome is the result of Controller.Run.
type Outcome struct {
	Kind   OutcomeKind
	Reason Reason
	Err    error
}

func (o Outcome) ExitCode() int {
	switch o.Kind {
	case Success:
		return ExitOK
	case UserInterrupted:
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func outcomeFor(reason Reason, err error) Outcome {
	o := Outcome{Reason: reason, Err: err}
	switch reason {
	case ReasonCompleted, ReasonRatioReached:
		o.Kind = Success
	case ReasonInterrupted:
		o.Kind = UserInterrupted
	case ReasonKillSwitchTripped:
		o.Kind = KillSwitchTripped
	default:
		o.Kind = EngineError
	}
	return o
}
