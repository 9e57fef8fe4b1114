package adoptions

import "github.com/angelmondragon/pawhaven-backend/pkg/enums"

type transitionResult int

const (
	transitionDenied transitionResult = iota
	transitionAllowed
	transitionNoop
)

// allowedTransitions lists the moves out of each status. A move to the
// current status is a no-op and handled separately.
var allowedTransitions = map[enums.AdoptionStatus][]enums.AdoptionStatus{
	enums.AdoptionStatusSubmitted: {
		enums.AdoptionStatusProcessing,
		enums.AdoptionStatusApproved,
		enums.AdoptionStatusRejected,
		enums.AdoptionStatusClosed,
	},
	enums.AdoptionStatusProcessing: {
		enums.AdoptionStatusApproved,
		enums.AdoptionStatusRejected,
		enums.AdoptionStatusClosed,
	},
	enums.AdoptionStatusApproved: {
		enums.AdoptionStatusClosed,
	},
}

// targetStatuses are the statuses a caller may request.
var targetStatuses = []enums.AdoptionStatus{
	enums.AdoptionStatusProcessing,
	enums.AdoptionStatusApproved,
	enums.AdoptionStatusRejected,
	enums.AdoptionStatusClosed,
}

func checkTransition(from, to enums.AdoptionStatus) transitionResult {
	if from == to {
		return transitionNoop
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return transitionAllowed
		}
	}
	return transitionDenied
}

func isTargetStatus(status enums.AdoptionStatus) bool {
	for _, candidate := range targetStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
