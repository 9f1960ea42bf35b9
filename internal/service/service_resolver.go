package service

import (
	"time"

	"github.com/MKhiriev/go-workout-sync/models"
)

// lwwResolver implements last-writer-wins by wall clock: the local edit time
// (the outbox item's creation time) is compared against the remote record's
// modification date. Ties go to the remote side, so two devices that somehow
// produce identical timestamps converge on the server's copy.
type lwwResolver struct{}

// NewLastWriterWinsResolver returns the engine's default [ConflictResolver].
func NewLastWriterWinsResolver() ConflictResolver {
	return lwwResolver{}
}

func (lwwResolver) Resolve(localEditTime, remoteModTime time.Time) models.Resolution {
	if localEditTime.After(remoteModTime) {
		return models.ResolutionLocal
	}
	return models.ResolutionRemote
}
