package worker

import "strings"

// Class is the classification of one stderr line.
type Class int

const (
	// ClassOther is any line that is neither a sentinel nor a warning.
	ClassOther Class = iota
	// ClassSentinel is a contractual failure phrase.
	ClassSentinel
	// ClassWarning is a warning the worker's runtime printed.
	ClassWarning
)

func (c Class) String() string {
	switch c {
	case ClassSentinel:
		return "sentinel"
	case ClassWarning:
		return "warning"
	default:
		return "other"
	}
}

// DefaultSentinels are the stderr phrases that mean the worker refused to
// run because the folder holds too few supported files. The bundled worker
// writes the first one.
var DefaultSentinels = []string{
	"Not enough files",
	"insufficient input count",
}

var warningVocabulary = []string{"futurewarning", "deprecationwarning", "warning"}

// Classifier maps stderr lines to classes.
type Classifier struct {
	sentinels map[string]struct{}
}

// NewClassifier returns a classifier recognising the given sentinel phrases,
// or DefaultSentinels when none are given.
func NewClassifier(sentinels ...string) *Classifier {
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels
	}
	set := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return &Classifier{sentinels: set}
}

// Classify returns the class of line. Sentinels must match exactly apart
// from a trailing line terminator; warnings match case-insensitively
// anywhere in the line.
func (c *Classifier) Classify(line string) Class {
	trimmed := strings.TrimRight(line, "\r\n")
	if _, ok := c.sentinels[trimmed]; ok {
		return ClassSentinel
	}
	lower := strings.ToLower(trimmed)
	for _, word := range warningVocabulary {
		if strings.Contains(lower, word) {
			return ClassWarning
		}
	}
	return ClassOther
}
