package constants

import (
	"testing"
)

func TestWorkOrderTransitions(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{WorkOrderStatusOpen, WorkOrderStatusAssigned, true},
		{WorkOrderStatusOpen, WorkOrderStatusInProgress, true},
		{WorkOrderStatusAssigned, WorkOrderStatusInProgress, true},
		{WorkOrderStatusInProgress, WorkOrderStatusCompleted, true},
		{WorkOrderStatusCompleted, WorkOrderStatusClosed, true},
		{WorkOrderStatusCompleted, WorkOrderStatusInProgress, true}, // reopen
		{WorkOrderStatusOnHold, WorkOrderStatusInProgress, true},
		{WorkOrderStatusOpen, WorkOrderStatusCompleted, false}, // must pass through in_progress
		{WorkOrderStatusClosed, WorkOrderStatusOpen, false},    // closed is terminal
		{WorkOrderStatusCancelled, WorkOrderStatusOpen, false}, // cancelled is terminal
		{WorkOrderStatusOpen, "shipped", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			allowed := false
			for _, next := range WorkOrderTransitions[tt.from] {
				if next == tt.to {
					allowed = true
					break
				}
			}
			if allowed != tt.want {
				t.Errorf("transition %s -> %s = %v, want %v", tt.from, tt.to, allowed, tt.want)
			}
		})
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	if !(PriorityRank[PriorityLow] < PriorityRank[PriorityMedium] &&
		PriorityRank[PriorityMedium] < PriorityRank[PriorityHigh] &&
		PriorityRank[PriorityHigh] < PriorityRank[PriorityCritical]) {
		t.Errorf("priority ranks are not strictly ascending: %v", PriorityRank)
	}
}
