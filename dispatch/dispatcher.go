package dispatch

// Dispatcher receives actions. Dispatch is synchronous and must be safe to
// call from any goroutine.
type Dispatcher[A any] interface {
	Dispatch(action A)
}

// Func adapts a function to Dispatcher.
type Func[A any] func(action A)

func (f Func[A]) Dispatch(action A) {
	f(action)
}

// Bind returns a callback that dispatches action each time it is called.
func Bind[A any](d Dispatcher[A], action A) func() {
	return func() {
		d.Dispatch(action)
	}
}

// Adapt returns a callback that converts its argument with fn and dispatches
// the result.
func Adapt[A, B any](d Dispatcher[A], fn func(B) A) func(B) {
	return func(value B) {
		d.Dispatch(fn(value))
	}
}

// Filter returns a Dispatcher that forwards only actions accepted by pred.
func Filter[A any](d Dispatcher[A], pred func(A) bool) Dispatcher[A] {
	return Func[A](func(action A) {
		if pred(action) {
			d.Dispatch(action)
		}
	})
}

// Fanout returns a Dispatcher that forwards every action to each of ds in
// order.
func Fanout[A any](ds ...Dispatcher[A]) Dispatcher[A] {
	targets := append([]Dispatcher[A](nil), ds...)
	return Func[A](func(action A) {
		for _, d := range targets {
			d.Dispatch(action)
		}
	})
}
