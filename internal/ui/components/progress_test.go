package components

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestProgressBar_Width(t *testing.T) {
	tests := []struct {
		name    string
		bar     ProgressBar
		percent string
	}{
		{"half", NewProgressBar("Modules", 0.5, true, 40), "50%"},
		{"over full is clamped", NewProgressBar("", 1.7, false, 20), ""},
		{"negative is empty", NewProgressBar("", -1, true, 20), " 0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := tt.bar.View()
			if got := lipgloss.Width(view); got != tt.bar.Width {
				t.Fatalf("width = %d, want %d", got, tt.bar.Width)
			}
			if tt.percent != "" && !strings.Contains(view, tt.percent) {
				t.Fatalf("view %q does not show %q", view, tt.percent)
			}
		})
	}
}
