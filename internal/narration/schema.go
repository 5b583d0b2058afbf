package narration

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed audit.schema.json
var auditSchemaSource string

const auditSchemaURL = "mem://narration/audit.schema.json"

var (
	auditSchemaOnce sync.Once
	auditSchema     *jsonschema.Schema
	auditSchemaErr  error
)

func compileAuditSchema() (*jsonschema.Schema, error) {
	auditSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(auditSchemaURL, strings.NewReader(auditSchemaSource)); err != nil {
			auditSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		auditSchema, auditSchemaErr = compiler.Compile(auditSchemaURL)
		if auditSchemaErr != nil {
			auditSchemaErr = fmt.Errorf("compile schema: %w", auditSchemaErr)
		}
	})
	return auditSchema, auditSchemaErr
}

// DecodeAudit validates raw JSON against the audit schema and decodes it.
func DecodeAudit(raw []byte) (AuditMetadata, error) {
	schema, err := compileAuditSchema()
	if err != nil {
		return AuditMetadata{}, err
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return AuditMetadata{}, fmt.Errorf("decode audit metadata: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return AuditMetadata{}, fmt.Errorf("validate audit metadata: %w", err)
	}

	var meta AuditMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return AuditMetadata{}, fmt.Errorf("decode audit metadata: %w", err)
	}
	return meta, nil
}
