// Package testutil provides valves that record their execution, so tests can
// assert which valves ran and at which nesting level.
package testutil

import (
	"fmt"
	"sync"

	"github.com/ib-77/valves/pkg/pipeline"
)

// ExecutionLog collects "level-index" entries, suffixed with "-loop-n" when a
// loop counter attribute is visible.
type ExecutionLog struct {
	mu          sync.Mutex
	entries     []string
	CounterName string
}

func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{CounterName: "loopCount"}
}

func (l *ExecutionLog) Add(states pipeline.States) {
	entry := fmt.Sprintf("%d-%d", states.Level(), states.Index())
	if count, ok := states.Attribute(l.CounterName); ok && count != nil {
		entry = fmt.Sprintf("%s-loop-%v", entry, count)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Take returns the entries recorded so far and clears the log.
func (l *ExecutionLog) Take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.entries
	l.entries = nil
	if entries == nil {
		return []string{}
	}
	return entries
}
