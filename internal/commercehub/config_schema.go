package commercehub

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const syncConfigSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["readUrl"],
  "properties": {
    "readUrl": {"type": "string", "minLength": 1},
    "readHeaders": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "pollIntervalMs": {"type": "integer", "minimum": 1000},
    "enabled": {"type": "boolean"},
    "lastSync": {"type": "string"},
    "mapping": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "writeEnabled": {"type": "boolean"},
    "writeMethod": {"enum": ["POST", "PUT", "PATCH"]},
    "writeUrl": {"type": "string"}
  },
  "additionalProperties": false
}`

var (
	syncConfigSchemaOnce sync.Once
	syncConfigSchema     *jsonschema.Schema
	syncConfigSchemaErr  error
)

func compiledSyncConfigSchema() (*jsonschema.Schema, error) {
	syncConfigSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(syncConfigSchemaJSON))
		if err != nil {
			syncConfigSchemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("sync-config.json", doc); err != nil {
			syncConfigSchemaErr = err
			return
		}
		syncConfigSchema, syncConfigSchemaErr = compiler.Compile("sync-config.json")
	})
	return syncConfigSchema, syncConfigSchemaErr
}

// ValidateConfigDocument checks a raw SyncConfig JSON document against
// the embedded schema before it is decoded and persisted.
func ValidateConfigDocument(doc []byte) error {
	schema, err := compiledSyncConfigSchema()
	if err != nil {
		return err
	}
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(string(doc)))
	if err != nil {
		return &FormatError{Reason: "config document is not valid JSON"}
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
