// Package schemas embeds the JSON Schemas for backend payloads.
package schemas

import _ "embed"

//go:embed report.schema.json
var ReportSchemaJSON string

//go:embed selection.schema.json
var SelectionSchemaJSON string

//go:embed task_status.schema.json
var TaskStatusSchemaJSON string
