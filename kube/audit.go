package kube

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidAudit is returned when user-supplied audit data does not match
// the issue list shape.
var ErrInvalidAudit = errors.New("invalid audit data")

// auditSchema describes the audit data accepted from a file: the same
// shape AuditData produces.
const auditSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "required": ["reason", "kind", "name", "count"],
    "properties": {
      "reason":    {"type": "string", "minLength": 1},
      "kind":      {"type": "string"},
      "name":      {"type": "string"},
      "namespace": {"type": "string"},
      "message":   {"type": "string"},
      "count":     {"type": "integer", "minimum": 1},
      "lastSeen":  {"type": "string"}
    }
  }
}`

var auditSchemaLoader = gojsonschema.NewStringLoader(auditSchema)

// ValidateAudit checks data against the audit schema. Every violation is
// listed in the returned error.
func ValidateAudit(data []byte) error {
	res, err := gojsonschema.Validate(auditSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("kube: %w: %w", ErrInvalidAudit, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("kube: %w: %s", ErrInvalidAudit, strings.Join(msgs, "; "))
}
