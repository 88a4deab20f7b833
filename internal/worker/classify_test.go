package worker

import "testing"

func TestClassifierClassify(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		line string
		want Class
	}{
		{line: "Not enough files", want: ClassSentinel},
		{line: "Not enough files\r\n", want: ClassSentinel},
		{line: "insufficient input count", want: ClassSentinel},
		{line: "not enough files", want: ClassOther},
		{line: "Error: Not enough files in folder", want: ClassOther},
		{line: "sklearn FutureWarning: n_init will change", want: ClassWarning},
		{line: "DeprecationWarning: distutils", want: ClassWarning},
		{line: "CustomWarning", want: ClassWarning},
		{line: "WARNING something", want: ClassWarning},
		{line: "Traceback (most recent call last):", want: ClassOther},
		{line: "", want: ClassOther},
	}
	for _, tc := range tests {
		if got := c.Classify(tc.line); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestClassifierCustomSentinels(t *testing.T) {
	c := NewClassifier("too few documents", "  ")
	if got := c.Classify("too few documents"); got != ClassSentinel {
		t.Fatalf("expected custom sentinel, got %v", got)
	}
	if got := c.Classify("Not enough files"); got != ClassOther {
		t.Fatalf("expected default sentinel to be replaced, got %v", got)
	}
}
