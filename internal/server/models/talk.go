package models

import "time"

// TalkStatus is the moderation state of a talk.
type TalkStatus string

const (
	TalkStatusPending  TalkStatus = "pending"
	TalkStatusApproved TalkStatus = "approved"
	TalkStatusRejected TalkStatus = "rejected"
)

// Talk is a scheduled presentation inside an event. StreamKey is a static
// per-talk secret generated once at creation; it is the publish-side
// credential for the talk's live stream and never changes.
type Talk struct {
	ID        int64
	EventID   string
	SpeakerID string
	Title     string
	Start     time.Time
	End       time.Time
	Status    TalkStatus
	StreamKey string
	CreatedAt time.Time
}

// HasStarted reports whether the talk start time has passed.
func (t *Talk) HasStarted(now time.Time) bool {
	return !t.Start.After(now)
}

// HasFinished reports whether the talk end time has passed.
func (t *Talk) HasFinished(now time.Time) bool {
	return t.End.Before(now)
}

// CanTransitionTo enforces the talk state machine: pending may move to
// approved or rejected, and both of those are terminal.
func (t *Talk) CanTransitionTo(next TalkStatus) bool {
	if t.Status != TalkStatusPending {
		return false
	}
	return next == TalkStatusApproved || next == TalkStatusRejected
}
