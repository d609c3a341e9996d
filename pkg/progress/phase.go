package progress

// Phase is a job lifecycle state as reported by the server.
type Phase string

// Known phases in execution order, followed by the terminal phase.
const (
	PhaseInitializing           Phase = "Initializing"
	PhaseApproximating          Phase = "Approximating"
	PhaseComputingFullDistances Phase = "ComputingFullDistances"
	PhaseFinalizing             Phase = "Finalizing"
	PhaseFinished               Phase = "Finished"
)

const fullProgress = 100

// Phases lists the non-terminal phases in order.
func Phases() []Phase {
	return []Phase{PhaseInitializing, PhaseApproximating, PhaseComputingFullDistances, PhaseFinalizing}
}

// PhaseStatus is the display state of one phase.
type PhaseStatus struct {
	Name     Phase   `json:"name"     yaml:"name"`
	Progress float64 `json:"progress" yaml:"progress"`
	Active   bool    `json:"active"   yaml:"active"`
}

// Tracker follows a job through its phases. The zero value is not usable;
// use NewTracker.
type Tracker struct {
	statuses []PhaseStatus
	current  Phase
	progress float64
}

// NewTracker returns a tracker with Initializing active.
func NewTracker() *Tracker {
	t := &Tracker{current: PhaseInitializing}

	for _, p := range Phases() {
		t.statuses = append(t.statuses, PhaseStatus{Name: p, Active: p == PhaseInitializing})
	}

	return t
}

// Advance records the state and progress of a new snapshot. Entering a new
// phase completes the previously active one. Finished completes the active
// phase and Finalizing and deactivates everything.
func (t *Tracker) Advance(state Phase, progress float64) {
	t.progress = progress

	if state == t.current {
		return
	}

	t.current = state

	for i := range t.statuses {
		s := &t.statuses[i]

		if s.Active {
			s.Progress = fullProgress
		}

		if state == PhaseFinished {
			s.Active = false

			if s.Name == PhaseFinalizing {
				s.Progress = fullProgress
			}

			continue
		}

		s.Active = s.Name == state
	}
}

// Current returns the latest phase.
func (t *Tracker) Current() Phase {
	return t.current
}

// Statuses returns the phase list. The active phase reports the live progress.
func (t *Tracker) Statuses() []PhaseStatus {
	out := make([]PhaseStatus, len(t.statuses))
	copy(out, t.statuses)

	for i := range out {
		if out[i].Active {
			out[i].Progress = t.progress
		}
	}

	return out
}
