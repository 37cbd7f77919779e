package booking

import "time"

// Clock supplies the current time. The service and the sweeper never call
// time.Now directly; tests inject a fixed clock to pin expiration and
// validation behavior.
type Clock interface {
    Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock { return realClock{} }
