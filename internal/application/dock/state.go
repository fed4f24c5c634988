package dock

// WorkerState is the position of the warehouse worker in its loop
type WorkerState string

const (
	// StatePolling means the worker is checking the hand-off queue
	StatePolling WorkerState = "POLLING"

	// StateIdleBackoff means the queue was empty and the worker is waiting out the poll interval
	StateIdleBackoff WorkerState = "IDLE_BACKOFF"

	// StateServicing means a truck is at the dock
	StateServicing WorkerState = "SERVICING"

	// StateStopped means the loop is not running (before Run, or after a stop request)
	StateStopped WorkerState = "STOPPED"
)
