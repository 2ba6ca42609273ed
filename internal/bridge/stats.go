package bridge

import "sync/atomic"

type stats struct {
	framesIn      atomic.Uint64
	framesOut     atomic.Uint64
	published     atomic.Uint64
	dropped       atomic.Uint64
	convertErrors atomic.Uint64
	deliverErrors atomic.Uint64
}

// Snapshot is a point-in-time copy of the bridge counters.
type Snapshot struct {
	FramesIn      uint64 `json:"frames_in"`
	FramesOut     uint64 `json:"frames_out"`
	Published     uint64 `json:"published"`
	Dropped       uint64 `json:"dropped"`
	ConvertErrors uint64 `json:"convert_errors"`
	DeliverErrors uint64 `json:"deliver_errors"`
}

func (s *stats) snapshot() Snapshot {
	return Snapshot{
		FramesIn:      s.framesIn.Load(),
		FramesOut:     s.framesOut.Load(),
		Published:     s.published.Load(),
		Dropped:       s.dropped.Load(),
		ConvertErrors: s.convertErrors.Load(),
		DeliverErrors: s.deliverErrors.Load(),
	}
}
