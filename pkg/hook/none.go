package hook

// None is a hook that does nothing.
//
// Use it when no collaborator is configured: its absence never blocks
// the pipeline.
type None[T any] struct{}

func (None[T]) Before(T) error {
	return nil
}

func (None[T]) After(T) error {
	return nil
}
