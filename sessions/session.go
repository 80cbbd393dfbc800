package sessions

import "time"

// Session binds an opaque identifier to an authenticated member after a
// successful card verification. The record is stored bidirectionally so both
// "who is this session" and "does this member already have a live session"
// are single lookups.
type Session struct {
	ID         string
	MemberUUID string
	CreatedAt  time.Time
}
