package engine

import "sync/atomic"

// stats counts pipeline activity since process start. Counters only
// grow; Stop does not reset them.
type stats struct {
	received   atomic.Int64
	stored     atomic.Int64
	filtered   atomic.Int64
	skipped    atomic.Int64
	dispatched atomic.Int64
	published  atomic.Int64
	failed     atomic.Int64
}

// StatsSnapshot is a point-in-time view of the pipeline counters.
type StatsSnapshot struct {
	Received   int64 `json:"received"`   // envelopes delivered by the transport
	Stored     int64 `json:"stored"`     // records appended to the event log
	Filtered   int64 `json:"filtered"`   // own messages dropped
	Skipped    int64 `json:"skipped"`    // duplicates and gated messages
	Dispatched int64 `json:"dispatched"` // responder invocations
	Published  int64 `json:"published"`  // replies posted
	Failed     int64 `json:"failed"`     // pipelines resolved as error
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Received:   s.received.Load(),
		Stored:     s.stored.Load(),
		Filtered:   s.filtered.Load(),
		Skipped:    s.skipped.Load(),
		Dispatched: s.dispatched.Load(),
		Published:  s.published.Load(),
		Failed:     s.failed.Load(),
	}
}
