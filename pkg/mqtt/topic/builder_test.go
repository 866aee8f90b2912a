package topic

import "testing"

func TestBuilder(t *testing.T) {
	b := NewBuilder("/rover/v1/")

	if got := b.Build("intent", "r1"); got != "rover/v1/intent/r1" {
		t.Errorf("Build() = %q", got)
	}
}

func TestBuilderID(t *testing.T) {
	b := NewBuilder("rover/v1")

	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"rover/v1/intent/r1", "r1", true},
		{"rover/v1/result/r1", "", false},
		{"rover/v1/intent/", "", false},
		{"rover/v1/intent/r1/x", "", false},
	}
	for _, tt := range tests {
		id, ok := b.ID("intent", tt.topic)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ID(%q) = (%q, %v), want (%q, %v)", tt.topic, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
