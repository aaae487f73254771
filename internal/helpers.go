package internal

// ContextValue returns the value stored under key if it has type T,
// otherwise T's zero value.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}
