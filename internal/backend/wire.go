package backend

import (
	"encoding/json"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
)

// Wire methods understood by the backend.
const (
	methodRunningTimer      = "timer.get"
	methodStart             = "timer.start"
	methodStop              = "timer.stop"
	methodReset             = "timer.reset"
	methodHeartbeat         = "timer.heartbeat"
	methodAckInterrupt      = "timer.ackInterrupt"
	methodProject           = "project.get"
	methodListMemberships   = "org.listMemberships"
	methodCurrentMembership = "org.currentMembership"
	methodSetActiveOrg      = "org.setActive"
	methodEnsurePersonal    = "org.ensurePersonalWorkspace"
	methodSubscribe         = "timer.subscribe"
	methodUnsubscribe       = "timer.unsubscribe"
	pushRunningTimerChanged = "timer.changed"
)

// request is an outbound call frame.
type request struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// response is an inbound frame: either a reply to a request (ID set) or a
// server push (Method set).
type response struct {
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// wireError is the backend's structured error payload. Kind carries the
// error category used for retry classification.
type wireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// toAppError converts a wire error into a classified error.
func (e *wireError) toAppError(op string) error {
	kind := apperr.Kind(e.Kind)
	switch kind {
	case apperr.KindNetwork, apperr.KindTimeout, apperr.KindOffline,
		apperr.KindServer, apperr.KindPermission, apperr.KindValidation,
		apperr.KindNotFound, apperr.KindConflict:
	default:
		kind = apperr.KindUnknown
	}
	return apperr.New(kind, op, e.Message)
}
