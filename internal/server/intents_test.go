package server

import (
	"errors"
	"strings"
	"testing"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

func TestDecodeIntent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantRef string
		check   func(t *testing.T, intent any)
		wantErr error
	}{
		{
			name:    "join",
			data:    `{"type":"join-room","ref":"1","roomId":"abc","username":"alice","difficulty":"hard"}`,
			wantRef: "1",
			check: func(t *testing.T, intent any) {
				j, ok := intent.(*JoinRoomIntent)
				if !ok || j.RoomID != "abc" || j.Username != "alice" || j.Difficulty != "hard" {
					t.Errorf("intent = %#v", intent)
				}
			},
		},
		{
			name: "submit sets submission",
			data: `{"type":"submit-code","roomId":"abc","language":"python","sourceCode":"print(1)"}`,
			check: func(t *testing.T, intent any) {
				g, ok := intent.(*GradeIntent)
				if !ok || !g.Submission || g.Language != "python" {
					t.Errorf("intent = %#v", intent)
				}
			},
		},
		{
			name: "run is not a submission",
			data: `{"type":"run-code","roomId":"abc","language":"python","sourceCode":"print(1)","Submission":true}`,
			check: func(t *testing.T, intent any) {
				if g := intent.(*GradeIntent); g.Submission {
					t.Error("run-code decoded as submission")
				}
			},
		},
		{
			name: "room id is trimmed",
			data: `{"type":"leave-room","roomId":"  abc "}`,
			check: func(t *testing.T, intent any) {
				if l := intent.(*LeaveRoomIntent); l.RoomID != "abc" {
					t.Errorf("room id = %q", l.RoomID)
				}
			},
		},
		{
			name:    "blank room id",
			data:    `{"type":"join-room","roomId":"   "}`,
			wantErr: arena.ErrInvalidArgument,
		},
		{
			name:    "missing room",
			data:    `{"type":"start-match","ref":"7"}`,
			wantRef: "7",
			wantErr: arena.ErrInvalidArgument,
		},
		{
			name:    "missing source",
			data:    `{"type":"run-code","roomId":"abc","language":"go"}`,
			wantErr: arena.ErrInvalidArgument,
		},
		{
			name:    "unknown type",
			data:    `{"type":"update-score","ref":"x","roomId":"abc","points":100}`,
			wantRef: "x",
			wantErr: errUnknownIntent,
		},
		{
			name:    "not json",
			data:    `hello`,
			wantErr: arena.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, intent, err := decodeIntent([]byte(tt.data))
			if ref != tt.wantRef {
				t.Errorf("ref = %q, want %q", ref, tt.wantRef)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, intent)
		})
	}
}

func TestDecodeIntentDescribesValidation(t *testing.T) {
	_, _, err := decodeIntent([]byte(`{"type":"run-code","roomId":"abc"}`))
	if err == nil || !strings.Contains(err.Error(), "Language is required") {
		t.Fatalf("err = %v", err)
	}
}
