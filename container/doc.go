// Package container holds a single immutable state value and composes
// asynchronous sources into it.
//
// A Container is created from a Provider, which supplies the initial state.
// Readers observe the state through a replay-latest StateFlow; writers change
// it with Update, which applies a pure transform under compare-and-retry so
// concurrent writers never lose each other's changes.
//
// Sources are merged in as slices. Each slice collects one flow and folds every
// emitted value into the state with a MergeFunc:
//
//	counter := container.New(ctx, container.Initial(State{}))
//	container.Merge(ctx, counter, ticks, container.Reduce(func(s State, n int) State {
//	    s.Count = n
//	    return s
//	}))
//
// The Composer groups several slices against one container, and
// ComposedProvider packages an initial state together with its bindings so a
// fully wired container can be handed to a constructor as one value:
//
//	provider := container.Composed(container.Initial(Profile{}),
//	    container.Into(names, container.Reduce(setName)),
//	    container.Into(ages, container.Reduce(setAge)),
//	)
//	profile, slices := provider.Build(ctx)
//
// A slice ends when its source completes, when it is cancelled, when its
// context or the container is closed, or when its MergeFunc fails. A failure
// ends only that slice; the last successfully published state stays current.
package container
