package config

// ContainerConfig configures a state container.
type ContainerConfig struct {
	// Name identifies the container in observability events
	Name string `json:"name"`

	// Observer names the registered observer to report to ("noop", "slog", ...)
	Observer string `json:"observer"`
}

// DefaultContainerConfig returns a ContainerConfig reporting to "slog".
func DefaultContainerConfig() ContainerConfig {
	return ContainerConfig{
		Name:     "state",
		Observer: "slog",
	}
}

func (c *ContainerConfig) Merge(source *ContainerConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// EventsConfig configures an event holder.
type EventsConfig struct {
	Name     string `json:"name"`
	Observer string `json:"observer"`
}

// DefaultEventsConfig returns an EventsConfig reporting to "slog".
func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		Name:     "events",
		Observer: "slog",
	}
}

func (c *EventsConfig) Merge(source *EventsConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
