package scraper

// Attempt is one producer in an ordered fallback chain. ok=false is a soft
// miss that moves the chain on; it is not a fault.
type Attempt[T any] func() (value T, ok bool)

// FirstSuccess runs attempts in order and returns the first hit.
// The index of the winning attempt is returned, or -1 when all missed.
func FirstSuccess[T any](attempts ...Attempt[T]) (T, int, bool) {
	for i, attempt := range attempts {
		if v, ok := attempt(); ok {
			return v, i, true
		}
	}
	var zero T
	return zero, -1, false
}
