// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEntityType is returned when a payload operation is attempted for
// an entity type the engine does not know how to (de)serialize.
var ErrUnknownEntityType = errors.New("unknown entity type")

// ErrMalformedPayload is returned when a payload fails schema validation for
// its declared entity type.
var ErrMalformedPayload = errors.New("malformed entity payload")

// The remote contract keeps record fields generic (a map), while local code
// works with typed structs. The functions below are the single explicit
// (de)serialization point at the sync boundary: every payload crossing it is
// round-tripped through the typed struct for its entity type, so a document
// that does not match the schema is rejected instead of propagated.

// ValidatePayload checks that payload parses as the typed struct for
// entityType. Returns [ErrMalformedPayload] (wrapped) when it does not.
func ValidatePayload(entityType EntityType, payload []byte) error {
	switch entityType {
	case EntityTypeTemplate:
		var t Template
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	case EntityTypeSession:
		var s Session
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
	return nil
}

// RecordFields converts a locally stored payload into the generic fields map
// sent to the remote store. The payload is validated against the entity
// type's schema on the way out.
func RecordFields(entityType EntityType, payload []byte) (map[string]any, error) {
	if err := ValidatePayload(entityType, payload); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return fields, nil
}

// PayloadFromRecord converts a remote record's fields map back into the
// serialized local payload, validating it against the schema for the record's
// entity type on the way in.
func PayloadFromRecord(record RemoteRecord) ([]byte, error) {
	entityType := EntityType(record.RecordType)
	if !entityType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, record.RecordType)
	}

	payload, err := json.Marshal(record.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if err = ValidatePayload(entityType, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
