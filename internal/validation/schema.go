// Package validation checks raw backend payloads against the embedded JSON
// Schemas. Findings are advisory: callers log them, the renderer decides what
// is fatal.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maxradov/propacondom-app/schemas"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

var (
	reportSchema     *jsonschema.Schema
	selectionSchema  *jsonschema.Schema
	taskStatusSchema *jsonschema.Schema
)

func init() {
	reportSchema = mustCompileSchema(schemas.ReportSchemaJSON, "report.schema.json")
	selectionSchema = mustCompileSchema(schemas.SelectionSchemaJSON, "selection.schema.json")
	taskStatusSchema = mustCompileSchema(schemas.TaskStatusSchemaJSON, "task_status.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateReportJSON validates a completed report payload.
func ValidateReportJSON(data []byte) []string {
	return validateJSONBytes(reportSchema, data)
}

// ValidateSelectionJSON validates a PENDING_SELECTION payload.
func ValidateSelectionJSON(data []byte) []string {
	return validateJSONBytes(selectionSchema, data)
}

// ValidateTaskStatusJSON validates a status-by-task-id response.
func ValidateTaskStatusJSON(data []byte) []string {
	return validateJSONBytes(taskStatusSchema, data)
}

func validateJSONBytes(schema *jsonschema.Schema, data []byte) []string {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("JSON parse error: %v", err)}
	}
	return validateAgainstSchema(schema, doc)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}
