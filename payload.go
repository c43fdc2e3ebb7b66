package interpret

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Endpoint paths of the two interpretation features.
const (
	DefaultYAMLPath   = "/api/v1/ai/interpret/yaml"
	DefaultIssuesPath = "/api/v1/ai/interpret/issues"
)

// DefaultLanguage is the response language when none is configured.
const DefaultLanguage = "en"

// Payload is the feature-specific request body of a Session. Empty reports
// whether there is nothing to interpret; an empty payload fails validation
// without a network call.
type Payload interface {
	Empty() bool
}

// YAMLPayload asks for an explanation of a resource manifest.
type YAMLPayload struct {
	YAML     string `json:"yaml"`
	Language string `json:"language"`
}

// Empty reports whether the manifest is blank.
func (p YAMLPayload) Empty() bool {
	return strings.TrimSpace(p.YAML) == ""
}

// AuditPayload asks for an analysis of the cluster's top issues. AuditData is
// passed through verbatim.
type AuditPayload struct {
	AuditData json.RawMessage `json:"auditData"`
	Language  string          `json:"language"`
}

// Empty reports whether AuditData is missing, null, or an empty array or
// object.
func (p AuditPayload) Empty() bool {
	trimmed := bytes.TrimSpace(p.AuditData)
	switch string(trimmed) {
	case "", "null", "[]", "{}", `""`:
		return true
	}
	return false
}

// Interface compliance checks.
var (
	_ Payload = YAMLPayload{}
	_ Payload = AuditPayload{}
)
