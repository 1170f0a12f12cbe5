package textmatch

import "testing"

func TestIn(t *testing.T) {
	tests := []struct {
		query string
		text  string
		want  bool
	}{
		{"player", "The active PLAYER is the player whose turn it is.", true},
		{"Golden", "The Magic golden rules", true},
		{"straße", "STRASSE", true},
		{"zone", "A player is one of the people.", false},
		{"", "anything", false},
		{" player", "nonactive player", true},
		{" player", "player", false},
	}

	for _, tt := range tests {
		if got := New(tt.query).In(tt.text); got != tt.want {
			t.Errorf("New(%q).In(%q) = %v, expected %v", tt.query, tt.text, got, tt.want)
		}
	}
}

func TestTrimmed(t *testing.T) {
	m := Trimmed("  Zone ")
	if m.Len() != 4 {
		t.Errorf("Expected trimmed length 4, got %d", m.Len())
	}
	if !m.Any("library", "Public zones") {
		t.Error("Expected a match in the second value")
	}
	if !Trimmed("   ").Empty() {
		t.Error("Expected a blank query to be empty")
	}
}
