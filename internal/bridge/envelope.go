// Package bridge connects the plugin to the editor host over HTTP and a
// websocket session, and fans config changes out to connected hosts.
package bridge

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// Inbound message types.
const (
	TypeSetup           = "setup"
	TypeMigrate         = "migrate"
	TypeTypedefsRequest = "typedefs.request"
	TypeSettingsUpdate  = "settings.update"
)

// Outbound message types.
const (
	TypeSetupResult      = "setup.result"
	TypeMigrateResult    = "migrate.result"
	TypeTypedefsResponse = "typedefs.response"
	TypeConfigChanged    = "config.changed"
	TypeError            = "error"
)

// Error codes.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeUnsupportedType = "unsupported_type"
	CodeInternal        = "internal"
)

// Envelope is the frame of every websocket message. ID is chosen by the
// host and echoed on the reply.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the payload of an error message and the body of a
// failed HTTP request.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DefinitionsPayload carries the declarations for one script.
type DefinitionsPayload struct {
	Definitions []typedefs.Declaration `json:"definitions"`
}

// requestError tags an error with the code reported to the host.
type requestError struct {
	code string
	err  error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func invalidArgument(err error) error {
	return &requestError{code: CodeInvalidArgument, err: err}
}

// errorCode maps err to its host-facing code.
func errorCode(err error) string {
	var re *requestError
	if errors.As(err, &re) {
		return re.code
	}
	var fe *settings.FieldError
	if errors.As(err, &fe) {
		return CodeInvalidArgument
	}
	return CodeInternal
}

func newEnvelope(typ, id string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: typ, ID: id, Payload: data}, nil
}

func errorEnvelope(id string, err error) Envelope {
	data, _ := json.Marshal(ErrorPayload{Code: errorCode(err), Message: err.Error()})
	return Envelope{Type: TypeError, ID: id, Payload: data}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return invalidArgument(err)
	}
	return nil
}

type requestIDKey struct{}

// withRequestID tags ctx with the id of the host message being served so
// the config change it causes can be correlated.
func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
