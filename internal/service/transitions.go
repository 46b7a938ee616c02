package service

import (
	"slices"

	"github.com/iliyamo/repairhub/internal/apperr"
	"github.com/iliyamo/repairhub/internal/model"
)

// Graph maps a status to the statuses it may move to. A status with no
// entry is terminal.
type Graph map[model.TaskStatus][]model.TaskStatus

// Canonical is the lifecycle with the payment and cancellation request steps.
var Canonical = Graph{
	model.StatusPending:  {model.StatusAccepted},
	model.StatusAccepted: {model.StatusFixing, model.StatusRequestCanceling},
	model.StatusFixing:   {model.StatusPayment, model.StatusFailed},
	model.StatusPayment:  {model.StatusSuccessful},
}

// Legacy is the superseded lifecycle where fixing finishes directly. It is
// only used when LEGACY_TRANSITIONS is set.
var Legacy = Graph{
	model.StatusPending:  {model.StatusAccepted},
	model.StatusAccepted: {model.StatusFixing},
	model.StatusFixing:   {model.StatusSuccessful, model.StatusFailed},
}

// Allows reports whether from -> to is an edge.
func (g Graph) Allows(from, to model.TaskStatus) bool {
	return slices.Contains(g[from], to)
}

// Check returns a TransitionError for unknown targets and missing edges.
func (g Graph) Check(from, to model.TaskStatus) error {
	if !to.Valid() {
		return &apperr.TransitionError{To: string(to)}
	}
	if !g.Allows(from, to) {
		return &apperr.TransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// Terminal reports whether nothing leaves s.
func (g Graph) Terminal(s model.TaskStatus) bool { return len(g[s]) == 0 }
