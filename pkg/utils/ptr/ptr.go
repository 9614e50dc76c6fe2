package ptr

import "time"

func Ref[T any](v T) *T {
	return &v
}

// UTC returns a pointer to t in UTC. Lifecycle timestamps are always stored
// that way so the memory and Firestore repositories compare equal.
func UTC(t time.Time) *time.Time {
	return Ref(t.UTC())
}
