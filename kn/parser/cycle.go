package parser

import (
	"strings"
)

// checkInheritanceCycles walks the parent graph depth-first and reports each
// cycle once, naming the full path so the author sees every entity involved.
// Entity ids are visited in sorted order for stable diagnostics.
func (a *analyzer) checkInheritanceCycles() {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(a.doc.Entities))

	var stack []string
	var visit func(id string)
	visit = func(id string) {
		state[id] = inStack
		stack = append(stack, id)
		e := a.doc.Entities[id]
		if e != nil {
			for _, parent := range e.Parents {
				switch state[parent] {
				case unvisited:
					if _, exists := a.doc.Entities[parent]; exists {
						visit(parent)
					}
				case inStack:
					a.reportCycle(stack, parent)
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range a.doc.SortedEntityIDs() {
		if state[id] == unvisited {
			visit(id)
		}
	}
}

// reportCycle emits one diagnostic for the cycle closing at back. The stack
// holds the current DFS path; the cycle is the suffix starting at back.
func (a *analyzer) reportCycle(stack []string, back string) {
	start := 0
	for i, id := range stack {
		if id == back {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, stack[start:]...), back)
	a.diags = append(a.diags, NewDiagnostic(KindStructural,
		"inheritance cycle: %s", strings.Join(cycle, " ^ ")).
		WithSuggestion("remove one of the ^parent links to break the cycle"))
}
