package intent

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
	}{
		{
			name:    "forward with params",
			payload: `{"intent":"tien","action_id":"a1","params":{"distance":2,"unit":"m"}}`,
			want: Command{
				Name: "tien", ActionID: "a1", Intent: KindForward,
				Params: Params{"distance": 2.0, "unit": "m"},
			},
		},
		{
			name:    "leading whitespace",
			payload: " \n\t{\"intent\":\"stop\"}",
			want:    Command{Name: "stop", Intent: KindStop, Params: Params{}},
		},
		{
			name:    "english alias",
			payload: `{"intent":"turn_left","params":{"angle":10}}`,
			want:    Command{Name: "turn_left", Intent: KindTurnLeft, Params: Params{"angle": 10.0}},
		},
		{
			name:    "missing fields default",
			payload: `{}`,
			want:    Command{Intent: KindUnknown, Params: Params{}},
		},
		{
			name:    "non-string fields decode empty",
			payload: `{"intent":5,"action_id":{"x":1},"params":"nope"}`,
			want:    Command{Intent: KindUnknown, Params: Params{}},
		},
		{
			name:    "null params",
			payload: `{"intent":"lui","action_id":"b","params":null}`,
			want:    Command{Name: "lui", ActionID: "b", Intent: KindBackward, Params: Params{}},
		},
		{
			name:    "unknown fields ignored",
			payload: `{"intent":"xyz","action_id":"a3","extra":[1,2,3]}`,
			want:    Command{Name: "xyz", ActionID: "a3", Intent: KindUnknown, Params: Params{}},
		},
		{
			name:    "top-level array",
			payload: `[{"intent":"tien","action_id":"a1"}]`,
			want:    Command{Intent: KindUnknown, Params: Params{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.payload))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantErr    error
		wantReason string
	}{
		{"empty", "", ErrEmpty, ReasonEmpty},
		{"whitespace only", "  \r\n", ErrEmpty, ReasonEmpty},
		{"plain text", "not json", ErrNotStructured, ReasonNotStructured},
		{"number", "42", ErrNotStructured, ReasonNotStructured},
		{"truncated object", `{"intent":"tien"`, ErrMalformed, ReasonMalformed},
		{"trailing garbage", `{"intent":"tien"} x`, ErrMalformed, ReasonMalformed},
		{"broken array", `[1,`, ErrMalformed, ReasonMalformed},
		{"invalid utf-8 in action id", "{\"intent\":\"stop\",\"action_id\":\"a\xff1\"}", ErrMalformed, ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if got := Reason(err); got != tt.wantReason {
				t.Errorf("Reason() = %q, want %q", got, tt.wantReason)
			}
		})
	}
}

func TestReasonOfForeignError(t *testing.T) {
	if got := Reason(errors.New("other")); got != "" {
		t.Errorf("Reason() = %q, want empty", got)
	}
}

func TestLookup(t *testing.T) {
	tests := map[string]Kind{
		"tien":       KindForward,
		"forward":    KindForward,
		"lui":        KindBackward,
		"re_trai":    KindTurnLeft,
		"re_phai":    KindTurnRight,
		"turn_right": KindTurnRight,
		"stop":       KindStop,
		"set_speed":  KindSetSpeed,
		"nang_len":   KindLiftUp,
		"lift_down":  KindLiftDown,
		"TIEN":       KindUnknown,
		"":           KindUnknown,
	}
	for name, want := range tests {
		if got := Lookup(name); got != want {
			t.Errorf("Lookup(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindTurnLeft.String() != "re_trai" || KindUnknown.String() != "unknown" {
		t.Errorf("unexpected names: %q %q", KindTurnLeft, KindUnknown)
	}
	if !KindForward.Timed() || KindStop.Timed() {
		t.Error("Timed mismatch")
	}
}
