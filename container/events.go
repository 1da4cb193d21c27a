package container

import "github.com/tailored-agentic-units/statekit/observability"

const (
	EventContainerCreate observability.EventType = "container.create"
	EventContainerUpdate observability.EventType = "container.update"
	EventContainerClose  observability.EventType = "container.close"

	EventSliceStart observability.EventType = "slice.start"
	EventSliceStop  observability.EventType = "slice.stop"
	EventSliceError observability.EventType = "slice.error"
)
