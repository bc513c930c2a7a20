package validation

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"ccsledger/core/ledger"
)

// Variant names for the six record payload shapes.
const (
	VariantCapture    = "capture"
	VariantTransport  = "transport"
	VariantStorage    = "storage"
	VariantProject    = "project"
	VariantRegulatory = "regulatory"
	VariantAudit      = "audit"
)

const commonProperties = `
		"id": { "type": "string" },
		"projectId": { "type": "string", "minLength": 1 },
		"status": { "type": "string" },
		"documentHash": { "type": ["string", "null"] },
		"documentS3Key": { "type": ["string", "null"] },
		"documentHashAlgo": { "type": "string" }`

// One JSON schema per variant. Sign constraints live here: capturedAmount
// strictly positive, emission/loss fields non-negative.
var variantSchemas = map[string]string{
	VariantCapture: `{
	"type": "object",
	"required": ["projectId", "capturedAmount"],
	"properties": {` + commonProperties + `,
		"csource": { "type": "string" },
		"capturedAmount": { "type": "number", "exclusiveMinimum": 0 }
	}
}`,
	VariantTransport: `{
	"type": "object",
	"required": ["projectId", "transportEmissions"],
	"properties": {` + commonProperties + `,
		"vcreceived": { "type": "string" },
		"transportEmissions": { "type": "number", "minimum": 0 }
	}
}`,
	VariantStorage: `{
	"type": "object",
	"required": ["projectId", "storageLoss"],
	"properties": {` + commonProperties + `,
		"storageLoss": { "type": "number", "minimum": 0 },
		"injectedAmount": { "type": "number" }
	}
}`,
	VariantProject: `{
	"type": "object",
	"required": ["projectId", "projectName"],
	"properties": {` + commonProperties + `,
		"projectName": { "type": "string", "minLength": 1 },
		"location": { "type": "string" },
		"technicalDetails": { "type": "string" },
		"regulatory": { "type": "string" }
	}
}`,
	VariantRegulatory: `{
	"type": "object",
	"required": ["projectId", "regulationType"],
	"properties": {` + commonProperties + `,
		"regulationType": { "type": "string", "minLength": 1 },
		"complianceNotes": { "type": "string" }
	}
}`,
	VariantAudit: `{
	"type": "object",
	"required": ["projectId"],
	"properties": {` + commonProperties + `,
		"auditComments": { "type": "string" }
	}
}`,
}

var compiledSchemas = map[string]*gojsonschema.Schema{}

func init() {
	for variant, raw := range variantSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("bad %s schema: %v", variant, err))
		}
		compiledSchemas[variant] = schema
	}
}

// ValidateRecordPayload validates a raw create payload against its variant
// schema plus the checks the schema cannot express. Malformed JSON maps to
// the Parse error kind, everything else to Validation.
func ValidateRecordPayload(variant string, payload []byte) error {
	var rec map[string]interface{}
	if err := json.Unmarshal(payload, &rec); err != nil {
		return ledger.Parsef("invalid JSON payload: %v", err)
	}

	schema, ok := compiledSchemas[variant]
	if !ok {
		return fmt.Errorf("unknown record variant %q", variant)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return ledger.Parsef("payload not validatable: %v", err)
	}
	if !result.Valid() {
		errStr := ""
		for _, e := range result.Errors() {
			errStr += e.String() + "; "
		}
		return ledger.Validationf("payload failed schema validation: %s", errStr)
	}

	if projectID, _ := rec["projectId"].(string); !ledger.ValidProjectID(projectID) {
		return ledger.Validationf("projectId must be a non-empty string without '|'")
	}

	// documentHash length is a sanity check only, never blocking (the ledger
	// records a reference, not the document).
	if hash, ok := rec["documentHash"].(string); ok && hash != "" {
		algo, _ := rec["documentHashAlgo"].(string)
		if (algo == "" || algo == "sha256") && len(hash) != 64 {
			fmt.Printf("[WARN] documentHash length unexpected (%d)\n", len(hash))
		}
	}
	return nil
}
