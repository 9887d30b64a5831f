package events

import (
	platformevents "dealership_backend/platform/events"
	"dealership_backend/platform/logger"
)

// InMemoryBus delivers lead and approval events inside one process. The API
// and the bulk worker each build their own.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus returns the bus the leads and approvals modules share.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
