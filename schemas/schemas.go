// Package schemas embeds the JSON Schemas for webhook envelopes and store snapshots.
package schemas

import "embed"

// Files holds every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS

// Schema file names.
const (
	WebhookEvent = "webhook_event.schema.json"
	Snapshot     = "snapshot.schema.json"
)
