package panels

import (
	"time"

	"github.com/librescoot/librefsm"
)

// UI states
const (
	StateIdle     librefsm.StateID = "ui-idle"
	StateLoading  librefsm.StateID = "ui-loading"
	StateUpdating librefsm.StateID = "ui-updating"
)

// UI events
const (
	EvLoadStarted   librefsm.EventID = "load-started"
	EvLoadDone      librefsm.EventID = "load-done"
	EvLoadAborted   librefsm.EventID = "load-aborted"
	EvLoadTimeout   librefsm.EventID = "load-timeout"
	EvUpdateStarted librefsm.EventID = "update-started"
	EvUpdateDone    librefsm.EventID = "update-done"
)

// UiActions is implemented by the panel service to react to lifecycle
// transitions.
type UiActions interface {
	// OnLoadTimeout abandons a load that never signalled completion.
	OnLoadTimeout(c *librefsm.Context) error
}

// NewUiDefinition creates the panel lifecycle FSM definition. The loading
// state carries a watchdog: a panel whose completion callback never fires
// must not wedge the UI forever.
func NewUiDefinition(loadTimeout time.Duration, actions UiActions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateIdle).
		State(StateLoading,
			librefsm.WithTimeout(loadTimeout, EvLoadTimeout),
		).
		State(StateUpdating).

		// Loads
		Transition(StateIdle, EvLoadStarted, StateLoading).
		Transition(StateLoading, EvLoadDone, StateIdle).
		Transition(StateLoading, EvLoadAborted, StateIdle).
		Transition(StateLoading, EvLoadTimeout, StateIdle,
			librefsm.WithAction(actions.OnLoadTimeout)).

		// Updates. A load may preempt a pending update completion.
		Transition(StateIdle, EvUpdateStarted, StateUpdating).
		Transition(StateUpdating, EvUpdateDone, StateIdle).
		Transition(StateUpdating, EvLoadStarted, StateLoading).
		Initial(StateIdle)
}
