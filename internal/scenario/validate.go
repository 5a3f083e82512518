package scenario

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

// Scenario validation error codes (E200-E219).
const (
	ErrYAMLSyntax      = "E200" // document is not parseable YAML
	ErrSchemaViolation = "E201" // document violates the structural schema
	ErrNameRequired    = "E202" // name is required
	ErrSettingsMissing = "E203" // settings map is required
	ErrFlowEmpty       = "E204" // flow must have at least one step
	ErrStepShape       = "E205" // step must carry exactly one action
	ErrAssertionShape  = "E206" // assertion is incomplete for its type
)

// ValidationError is one coded scenario problem, with file position when
// the schema layer can supply one.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] %s:%d:%d: %s: %s", e.Code, e.File, e.Line, e.Column, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors aggregates every problem found in one document.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateDocument checks the raw YAML bytes against the embedded
// structural schema. It returns every violation, not just the first;
// a nil result means the document is structurally sound.
func ValidateDocument(path string, data []byte) []ValidationError {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return []ValidationError{{
			Code:    ErrSchemaViolation,
			Field:   "schema",
			Message: err.Error(),
		}}
	}

	file, err := cueyaml.Extract(path, data)
	if err != nil {
		return cueProblems(ErrYAMLSyntax, err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return cueProblems(ErrYAMLSyntax, err)
	}

	if err := def.Unify(doc).Validate(); err != nil {
		return cueProblems(ErrSchemaViolation, err)
	}
	return nil
}

// cueProblems flattens a CUE error list into coded validation errors
// with their source positions.
func cueProblems(code string, err error) []ValidationError {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return []ValidationError{{Code: code, Field: "document", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(list))
	for _, e := range list {
		ve := ValidationError{
			Code:    code,
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
		}
		if ve.Field == "" {
			ve.Field = "document"
		}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			pos := positions[0]
			ve.File = pos.Filename()
			ve.Line = pos.Line()
			ve.Column = pos.Column()
		}
		out = append(out, ve)
	}
	return out
}
