// Package lifecycle holds the request status state machine. It is pure:
// decisions depend only on the request value, the action, and the actor,
// and the only output is the updated request value. Persisting the result
// is the caller's job.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/hospitalops/etrack-api/internal/model"
)

type Action string

const (
	ActionAccept   Action = "accept"
	ActionFinish   Action = "finish"
	ActionCancel   Action = "cancel"
	ActionEvaluate Action = "evaluate"
)

var (
	ErrUnauthorized  = errors.New("actor role not permitted for this transition")
	ErrTerminal      = errors.New("request is in a terminal status")
	ErrInvalidAction = errors.New("action not valid from current status")
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownStatus = errors.New("unknown request status")
)

// statusRank orders the forward path. Transitions never decrease rank.
var statusRank = map[model.RequestStatus]int{
	model.RequestStatusPending:   0,
	model.RequestStatusAccepted:  1,
	model.RequestStatusFinished:  2,
	model.RequestStatusEvaluated: 3,
}

// allowedFrom maps each action to the statuses it may fire from,
// post-normalization.
var allowedFrom = map[Action][]model.RequestStatus{
	ActionAccept:   {model.RequestStatusPending},
	ActionFinish:   {model.RequestStatusAccepted},
	ActionCancel:   {model.RequestStatusPending, model.RequestStatusAccepted},
	ActionEvaluate: {model.RequestStatusFinished},
}

var nextStatus = map[Action]model.RequestStatus{
	ActionAccept:   model.RequestStatusAccepted,
	ActionFinish:   model.RequestStatusFinished,
	ActionCancel:   model.RequestStatusCancelled,
	ActionEvaluate: model.RequestStatusEvaluated,
}

var managementRoles = map[string]bool{
	model.RoleAdmin:             true,
	model.RoleManager:           true,
	model.RoleManagerTranslator: true,
	model.RoleManagerPatient:    true,
}

// evaluatorRoles may fire Evaluate. Narrower than managementRoles:
// manager_patient reviews transport logistics, not staff performance.
var evaluatorRoles = map[string]bool{
	model.RoleAdmin:             true,
	model.RoleManager:           true,
	model.RoleManagerTranslator: true,
}

// Normalize maps the legacy aliases onto canonical statuses. Stored
// requests only ever carry canonical values.
func Normalize(s model.RequestStatus) model.RequestStatus {
	switch s {
	case model.RequestStatusCreated:
		return model.RequestStatusPending
	case model.RequestStatusCompleted:
		return model.RequestStatusFinished
	default:
		return s
	}
}

// ParseAction converts the wire form of an action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionAccept, ActionFinish, ActionCancel, ActionEvaluate:
		return Action(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Rank returns the forward-path index of a status. Cancelled has no rank.
func Rank(s model.RequestStatus) (int, bool) {
	r, ok := statusRank[Normalize(s)]
	return r, ok
}

// IsTerminal reports whether no further transition is permitted.
func IsTerminal(s model.RequestStatus) bool {
	s = Normalize(s)
	return s == model.RequestStatusEvaluated || s == model.RequestStatusCancelled
}

// IsManagement reports whether the role is a management role.
func IsManagement(role string) bool {
	return managementRoles[role]
}

// CanEvaluateRole reports whether the role may submit evaluations.
func CanEvaluateRole(role string) bool {
	return evaluatorRoles[role]
}

func authorized(req model.Request, action Action, actor model.Actor) bool {
	switch action {
	case ActionCancel:
		// Any authenticated role may cancel a non-terminal request.
		return true
	case ActionAccept, ActionFinish:
		// Owner of the assignment, or management.
		return managementRoles[actor.Role] || actor.StaffID == req.AssigneeID
	case ActionEvaluate:
		return evaluatorRoles[actor.Role]
	default:
		return false
	}
}

// Attempt applies action to req on behalf of actor. On success it returns
// the updated request value; req itself is never mutated. LastFinishAt is
// set exactly once, at the transition into finished.
func Attempt(req model.Request, action Action, actor model.Actor, now time.Time) (model.Request, error) {
	current := Normalize(req.Status)
	if _, ok := statusRank[current]; !ok && current != model.RequestStatusCancelled {
		return req, fmt.Errorf("%w: %q", ErrUnknownStatus, req.Status)
	}

	if IsTerminal(current) {
		return req, fmt.Errorf("cannot %s request %s: %w", action, req.ID, ErrTerminal)
	}

	from, ok := allowedFrom[action]
	if !ok {
		return req, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	valid := false
	for _, s := range from {
		if s == current {
			valid = true
			break
		}
	}
	if !valid {
		return req, fmt.Errorf("cannot %s request in status %s: %w", action, current, ErrInvalidAction)
	}

	if !authorized(req, action, actor) {
		return req, fmt.Errorf("role %s cannot %s request %s: %w", actor.Role, action, req.ID, ErrUnauthorized)
	}

	updated := req
	updated.Status = nextStatus[action]
	updated.UpdatedAt = now
	if updated.Status == model.RequestStatusFinished && req.LastFinishAt == nil {
		t := now
		updated.LastFinishAt = &t
	}
	return updated, nil
}
