package notify

import (
	"fmt"
	"strings"

	"github.com/robinmaple/trading-automation-sub002/internal/bus"
)

// Format renders one event as a human-readable notification. Returns
// false for event kinds that carry nothing worth delivering.
func Format(e bus.Event) (string, bool) {
	switch event := e.(type) {
	case bus.OrderStatus:
		return fmt.Sprintf("order %d → %s (filled %.0f, remaining %.0f)",
			event.OrderID, event.Status, event.Filled, event.Remaining), true
	case bus.Execution:
		return formatExecution(event), true
	case bus.Discrepancy:
		return fmt.Sprintf("reconcile %s on %s: %s", event.Class, event.Symbol, event.Detail), true
	default:
		return "", false
	}
}

func formatExecution(e bus.Execution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "execution batch: %d placed, %d skipped", e.Summary.Executed, e.Summary.Skipped)
	for _, outcome := range e.Summary.Outcomes {
		if outcome.Executed {
			fmt.Fprintf(&b, "\n  %s placed, orders %v", outcome.Symbol, outcome.OrderIDs)
			continue
		}
		fmt.Fprintf(&b, "\n  %s skipped: %s", outcome.Symbol, outcome.Reason)
	}
	return b.String()
}
