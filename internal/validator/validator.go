package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/graph"
)

// ValidateFlow checks records for broken links and unreachable questions,
// crawling from the first question. END_CONVERSATION and non-question
// option actions are sinks.
func ValidateFlow(records []domain.Record) error {
	if len(records) == 0 {
		return fmt.Errorf("%w: flow has no questions", domain.ErrValidation)
	}

	nodes := graph.BuildNodes(records)
	byID := make(map[string]domain.Node, len(nodes))
	start := ""
	for _, n := range nodes {
		byID[n.ID] = n
		if n.IsFirst && start == "" {
			start = n.ID
		}
	}
	if start == "" {
		return fmt.Errorf("%w: no question is marked first", domain.ErrValidation)
	}

	var errors []string
	visited := make(map[string]bool)
	queue := []string{start}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]
		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		for _, target := range byID[currentID].Routing.Targets() {
			if _, ok := byID[target]; !ok {
				errors = append(errors, fmt.Sprintf("Missing node: '%s' (referenced by '%s')", target, currentID))
				continue
			}
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, n := range nodes {
		if !visited[n.ID] {
			errors = append(errors, fmt.Sprintf("Unreachable node: '%s'", n.ID))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w: found %d errors:\n- %s", domain.ErrValidation, len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}
