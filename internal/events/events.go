package events

import "github.com/asaskevich/EventBus"

// GlobalBus is the shared event bus for the entire application
var GlobalBus EventBus.Bus

func init() {
	GlobalBus = EventBus.New()
}

const (
	// EventShutdownRequested carries a reason string.
	EventShutdownRequested = "app:shutdown:requested"

	// EventCatalogLoaded carries the *catalog.Catalog of a finished import.
	EventCatalogLoaded = "catalog:loaded"

	// EventSyncFinished carries the syncdata.Outcome of an upload run,
	// whatever its terminal state.
	EventSyncFinished = "sync:finished"
)
