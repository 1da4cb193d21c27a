package container_test

import (
	"context"
	"testing"

	"github.com/tailored-agentic-units/statekit/container"
	"github.com/tailored-agentic-units/statekit/flow"
)

func TestComposedProvider_Build(t *testing.T) {
	ctx := context.Background()
	provider := container.Composed(container.Initial(profile{}),
		container.Into(flow.Of("Alice"), container.Reduce(setName)),
		container.Into(flow.Of(42), container.Reduce(setCount)),
	)

	c, slices := provider.Build(ctx, quiet())
	defer c.Close()

	if len(slices) != 2 {
		t.Fatalf("Build() wired %d slices, want 2", len(slices))
	}
	got := await(t, c, func(s profile) bool { return s.Name == "Alice" && s.Count == 42 })
	if got != (profile{Name: "Alice", Count: 42}) {
		t.Errorf("state = %+v", got)
	}
}

func TestComposedProvider_BuildTwiceIsIndependent(t *testing.T) {
	ctx := context.Background()
	names := flow.NewChannel[string](ctx, 2)
	provider := container.Composed(container.Initial(profile{Count: 1}),
		container.Into[profile, string](names, container.Reduce(setName)),
	)

	a, _ := provider.Build(ctx, quiet())
	b, _ := provider.Build(ctx, quiet())
	defer a.Close()
	defer b.Close()

	a.Update(func(s profile) profile { return setCount(s, 9) })

	if b.Value().Count != 1 {
		t.Errorf("second container saw first container's update: %+v", b.Value())
	}
	if a.ID() == b.ID() {
		t.Error("built containers share an ID")
	}
}

func TestComposedProvider_With(t *testing.T) {
	ctx := context.Background()
	base := container.Composed(container.Initial(profile{}),
		container.Into(flow.Of("Carol"), container.Reduce(setName)),
	)
	extended := base.With(container.Into(flow.Of(7), container.Reduce(setCount)))

	if len(base.Bindings()) != 1 {
		t.Errorf("With modified the original recipe: %d bindings", len(base.Bindings()))
	}
	if len(extended.Bindings()) != 2 {
		t.Fatalf("extended recipe has %d bindings, want 2", len(extended.Bindings()))
	}

	c, _ := extended.Build(ctx, quiet())
	defer c.Close()
	await(t, c, func(s profile) bool { return s.Name == "Carol" && s.Count == 7 })
}

func TestFromFlow_ReplacesState(t *testing.T) {
	ctx := context.Background()
	src := flow.NewChannel[int](ctx, 1)
	c := container.New(ctx, container.FromFlow[int](container.Initial(1), src), quiet())
	defer c.Close()

	if c.Value() != 1 {
		t.Fatalf("initial Value() = %d, want 1", c.Value())
	}
	if err := src.Send(ctx, 5); err != nil {
		t.Fatal(err)
	}
	await(t, c, func(v int) bool { return v == 5 })

	if len(c.Slices()) != 1 {
		t.Errorf("Slices() = %d, want the provider's slice", len(c.Slices()))
	}
}

func TestCompose_IsAdditive(t *testing.T) {
	ctx := context.Background()
	c := container.New(ctx, container.Initial(profile{}), quiet())
	defer c.Close()

	names := flow.NewChannel[string](ctx, 1)
	first := c.Compose(ctx, func(cp *container.Composer[profile]) {
		container.SliceFlow[profile, string](cp, names, container.Reduce(setName))
	})

	counter := container.New(ctx, container.Initial(0), quiet())
	defer counter.Close()
	second := c.Compose(ctx, func(cp *container.Composer[profile]) {
		container.SliceContainer(cp, counter, container.Reduce(setCount))
	})

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Compose returned %d and %d slices, want 1 and 1", len(first), len(second))
	}
	if len(c.Slices()) != 2 {
		t.Fatalf("Slices() = %d, want 2", len(c.Slices()))
	}

	_ = names.Send(ctx, "Dana")
	counter.Update(func(v int) int { return v + 3 })
	await(t, c, func(s profile) bool { return s.Name == "Dana" && s.Count == 3 })

	second[0].Cancel()
	<-second[0].Done()
	_ = names.Send(ctx, "Eve")
	got := await(t, c, func(s profile) bool { return s.Name == "Eve" })
	if got.Count != 3 {
		t.Errorf("Count = %d, want 3", got.Count)
	}
}

func TestCompose_AddAndSliceView(t *testing.T) {
	ctx := context.Background()
	c := container.New(ctx, container.Initial(profile{}), quiet())
	defer c.Close()

	source := container.New(ctx, container.Initial(11), quiet())
	defer source.Close()

	slices := c.Compose(ctx, func(cp *container.Composer[profile]) {
		cp.Add(container.Into(flow.Of("Frank"), container.Reduce(setName)))
		container.SliceView(cp, source.State(), container.Reduce(setCount))
		if cp.Container() != c {
			t.Error("Composer.Container() is not the composed container")
		}
	})

	if len(slices) != 2 {
		t.Fatalf("Compose returned %d slices, want 2", len(slices))
	}
	await(t, c, func(s profile) bool { return s.Name == "Frank" && s.Count == 11 })
}
