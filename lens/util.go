package lens

import (
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

const ErrorLogPrefix = "!! "

// ErrGroupLimitCPU returns an errgroup limited to NumCPU.
func ErrGroupLimitCPU() *errgroup.Group {
	errGroup := &errgroup.Group{}
	errGroup.SetLimit(runtime.NumCPU())
	return errGroup
}

// limitStringLines keeps the first (head) or last count lines of s. The second return value reports if lines
// were removed.
func limitStringLines(s string, count int, head bool) (string, bool) {
	lines := strings.Split(s, "\n")
	if len(lines) > count {
		if head {
			lines = lines[:count]
		} else {
			lines = lines[len(lines)-count:]
		}
		return strings.Join(lines, "\n"), true
	} else {
		return s, false
	}
}
