// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// RemoteRecord is the wire representation shared with the cloud record store.
// RecordName equals the domain entity's stable identifier, so identity is
// shared between the local and remote representations; this is the invariant
// that makes idempotent apply possible. ModificationDate is owned by the
// remote store — the engine never fabricates it.
type RemoteRecord struct {
	RecordName       string         `json:"record_name"`
	RecordType       string         `json:"record_type"`
	Fields           map[string]any `json:"fields"`
	ModificationDate time.Time      `json:"modification_date"`
}

// ChangeSet is the result of one fetch-changes call against the remote store:
// the records changed since the supplied cursor, the identifiers of deleted
// records (tombstones), and the cursor to resume from next time.
type ChangeSet struct {
	Changed    []RemoteRecord `json:"changed"`
	DeletedIDs []string       `json:"deleted_ids"`
	NewCursor  string         `json:"new_cursor"`
}

// QueryResult is one page of a record-type query.
type QueryResult struct {
	Records []RemoteRecord `json:"records"`
	HasMore bool           `json:"has_more"`
}
