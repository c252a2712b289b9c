// Package collection holds the bounded, deduplicated, order-preserving set of
// tracked images and runs each member's asynchronous persistence workflow.
package collection

import "fmt"

// MaxImages is the collection capacity.
const MaxImages = 5

// LifecycleState is a tracked image's position in the persistence workflow.
type LifecycleState string

const (
	// StateSaving: a persistence workflow run is in flight.
	StateSaving LifecycleState = "saving"
	// StateSaved: the app-storage copy exists and PersistedRef points at it.
	StateSaved LifecycleState = "saved"
	// StateFailed: the last workflow run failed. Displays the same as
	// never-persisted; there is no retry.
	StateFailed LifecycleState = "failed"
)

// CapacityError reports an acquisition attempt against a full collection.
type CapacityError struct {
	Max int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("image limit reached (max %d)", e.Max)
}
