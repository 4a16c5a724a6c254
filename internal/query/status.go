package query

import "time"

// Status is the fetch state of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of an entry at one point in time.
//
// Data survives a failed refetch; consumers must not trust it while
// Status is StatusError.
type Snapshot struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	Stale     bool
	Version   uint64
	UpdatedAt time.Time
}

// Settled reports whether the entry has a result to show.
func (s Snapshot) Settled() bool {
	return s.Status == StatusSuccess || s.Status == StatusError
}
