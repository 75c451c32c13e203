package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

// Inbound intent types.
const (
	intentJoin   = "join-room"
	intentLeave  = "leave-room"
	intentCode   = "code-change"
	intentStart  = "start-match"
	intentStop   = "stop-match"
	intentRun    = "run-code"
	intentSubmit = "submit-code"
)

// Outbound direct message types. Room broadcasts use the game event kinds.
const (
	msgConnected   = "connected"
	msgAck         = "ack"
	msgMatchError  = "match-error"
	msgTestResults = "test-results"
	msgSubmission  = "submission-results"
	msgError       = "error"
)

type intentHeader struct {
	Type string `json:"type"`
	Ref  string `json:"ref,omitempty"`
}

type JoinRoomIntent struct {
	RoomID     string `json:"roomId" validate:"required,max=64"`
	Username   string `json:"username" validate:"max=32"`
	Difficulty string `json:"difficulty"`
}

type LeaveRoomIntent struct {
	RoomID string `json:"roomId" validate:"required"`
}

type CodeChangeIntent struct {
	RoomID string `json:"roomId" validate:"required"`
	Code   string `json:"code" validate:"max=65536"`
}

type StartMatchIntent struct {
	RoomID string `json:"roomId" validate:"required"`
}

type StopMatchIntent struct {
	RoomID string `json:"roomId" validate:"required"`
}

// GradeIntent carries run-code and submit-code.
type GradeIntent struct {
	RoomID     string `json:"roomId" validate:"required"`
	Language   string `json:"language" validate:"required,max=32"`
	SourceCode string `json:"sourceCode" validate:"required,max=65536"`
	Submission bool   `json:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var errUnknownIntent = errors.New("unknown intent type")

// decodeIntent parses an envelope into one of the concrete intent types.
// The ref is returned even when decoding the body fails so that the error
// can be correlated by the client.
func decodeIntent(data []byte) (ref string, intent any, err error) {
	var h intentHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return "", nil, fmt.Errorf("decoding message: %w", arena.ErrInvalidArgument)
	}

	switch h.Type {
	case intentJoin:
		intent = &JoinRoomIntent{}
	case intentLeave:
		intent = &LeaveRoomIntent{}
	case intentCode:
		intent = &CodeChangeIntent{}
	case intentStart:
		intent = &StartMatchIntent{}
	case intentStop:
		intent = &StopMatchIntent{}
	case intentRun:
		intent = &GradeIntent{}
	case intentSubmit:
		intent = &GradeIntent{Submission: true}
	default:
		return h.Ref, nil, fmt.Errorf("%w %q", errUnknownIntent, h.Type)
	}

	if err := json.Unmarshal(data, intent); err != nil {
		return h.Ref, nil, fmt.Errorf("decoding %s: %w", h.Type, arena.ErrInvalidArgument)
	}
	trimRoomID(intent)
	if err := validate.Struct(intent); err != nil {
		return h.Ref, nil, fmt.Errorf("%s: %s: %w", h.Type, describeValidation(err), arena.ErrInvalidArgument)
	}
	return h.Ref, intent, nil
}

// trimRoomID normalizes the room id the same way the registry does, so that
// broker subscriptions and registry rooms use identical keys.
func trimRoomID(intent any) {
	var id *string
	switch in := intent.(type) {
	case *JoinRoomIntent:
		id = &in.RoomID
	case *LeaveRoomIntent:
		id = &in.RoomID
	case *CodeChangeIntent:
		id = &in.RoomID
	case *StartMatchIntent:
		id = &in.RoomID
	case *StopMatchIntent:
		id = &in.RoomID
	case *GradeIntent:
		id = &in.RoomID
	default:
		return
	}
	*id = strings.TrimSpace(*id)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			parts = append(parts, fe.Field()+" is required")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return strings.Join(parts, ", ")
}
