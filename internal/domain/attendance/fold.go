package attendance

import "time"

// FoldResult is the state derived from replaying a session's events.
type FoldResult struct {
	Projection       *StatusProjection
	AccumulatedBreak time.Duration
	Late             LateStatus
}

// Fold replays events (ascending seq) into the projection and the
// accumulated break of the last session they describe. A break segment ends
// with whatever event follows it, so clock-out and resume flush it as well.
func Fold(events []AttendanceEvent) FoldResult {
	var res FoldResult

	for _, e := range events {
		current := res.Projection
		if current != nil && current.Status.IsBreak() {
			res.AccumulatedBreak += e.Timestamp.Sub(current.StateStartTime)
		}

		switch e.EventType {
		case EventClockIn:
			res.AccumulatedBreak = 0
			res.Late = LateStatus{}
			if e.Details != nil && e.Details.Late != nil {
				res.Late = *e.Details.Late
			}
			res.Projection = &StatusProjection{
				EmployeeID:     e.EmployeeID,
				SessionID:      e.SessionID,
				Status:         e.Status,
				StateStartTime: e.Timestamp,
				ClockInTime:    e.Timestamp,
				LastEventSeq:   e.Seq,
				UpdatedAt:      e.Timestamp,
			}
		case EventClockOut:
			res.Projection = nil
		default:
			if current == nil {
				continue
			}
			current.Status = e.Status
			current.StateStartTime = e.Timestamp
			current.LastEventSeq = e.Seq
			current.UpdatedAt = e.Timestamp
		}
	}

	return res
}
