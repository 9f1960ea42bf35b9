// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Session is a completed (or in-progress) workout: the sets the user actually
// performed, optionally linked to the template it was started from.
type Session struct {
	// ID is the stable identifier shared between the local database and the
	// remote record store (RemoteRecord.RecordName).
	ID string `json:"id"`

	// TemplateID links back to the originating template, if any.
	TemplateID string `json:"template_id,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Sets        []SetEntry `json:"sets,omitempty"`
}

// SetEntry is one performed set within a session.
type SetEntry struct {
	Exercise string  `json:"exercise"`
	Reps     int     `json:"reps"`
	Weight   float64 `json:"weight,omitempty"`
	RPE      float64 `json:"rpe,omitempty"`
}
