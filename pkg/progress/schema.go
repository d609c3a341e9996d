package progress

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidSnapshot is returned when a document does not match the snapshot schema.
var ErrInvalidSnapshot = errors.New("invalid progress snapshot")

// Violation is a single schema violation.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Description
	}

	return fmt.Sprintf("%s: %s", ErrInvalidSnapshot, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}

// Schema returns the JSON schema of the snapshot wire shape.
func Schema() []byte {
	return schemaJSON
}

// Validate checks a raw JSON document against the snapshot schema. Violations
// are reported as a *ValidationError.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Violations = append(verr.Violations, Violation{Field: re.Field(), Description: re.Description()})
	}

	return verr
}
