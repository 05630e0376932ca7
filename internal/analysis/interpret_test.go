package analysis

import "testing"

func TestInterpret_Breakpoints(t *testing.T) {
	cases := []struct {
		raw  float64
		want string
	}{
		{0.95, "Very High"},
		{0.91, "Very High"},
		{0.9, "High"}, // breakpoints are strict
		{0.75, "High"},
		{0.7, "Moderate"},
		{0.55, "Moderate"},
		{0.5, "Low"},
		{0.31, "Low"},
		{0.3, "Very Low"},
		{0.0, "Very Low"},
	}
	for _, c := range cases {
		got := Interpret(c.raw)
		if got.Level != c.want {
			t.Errorf("Interpret(%v).Level = %q, want %q", c.raw, got.Level, c.want)
		}
		if got.Description == "" || got.Recommendation == "" {
			t.Errorf("Interpret(%v) has empty description or recommendation", c.raw)
		}
	}
}
