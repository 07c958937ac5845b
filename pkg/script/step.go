package script

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Op names one script instruction.
type Op string

const (
	OpBegin   Op = "begin"
	OpCommit  Op = "commit"
	OpDiscard Op = "discard"
	OpCreate  Op = "create"
	OpSet     Op = "set"
	OpUnset   Op = "unset"
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpDelete  Op = "delete"
	OpUndo    Op = "undo"
	OpRedo    Op = "redo"
	OpBackup  Op = "backup"
	OpRestore Op = "restore"
)

var knownOps = map[Op]bool{
	OpBegin: true, OpCommit: true, OpDiscard: true,
	OpCreate: true, OpSet: true, OpUnset: true, OpAdd: true, OpRemove: true, OpDelete: true,
	OpUndo: true, OpRedo: true, OpBackup: true, OpRestore: true,
}

var (
	// ErrInvalidStep is returned for steps that are missing required fields.
	ErrInvalidStep = errors.New("invalid step")
	// ErrMalformedScript is returned when a script cannot be read as a list of steps.
	ErrMalformedScript = errors.New("malformed script")
)

// Step is one instruction of a script.
//
// Element references (ID, Ref) may be written as "$alias" to point to an element
// created earlier in the same script with "as: alias".
type Step struct {
	Op         Op     `json:"op" mapstructure:"op"`
	ID         string `json:"id,omitempty" mapstructure:"id"`
	Kind       string `json:"kind,omitempty" mapstructure:"kind"`
	As         string `json:"as,omitempty" mapstructure:"as"`
	Key        string `json:"key,omitempty" mapstructure:"key"`
	Value      string `json:"value,omitempty" mapstructure:"value"`
	Collection string `json:"collection,omitempty" mapstructure:"collection"`
	Ref        string `json:"ref,omitempty" mapstructure:"ref"`
}

// Validate checks that the step names a known op and carries what the op needs.
func (s Step) Validate() error {
	if !knownOps[s.Op] {
		return fmt.Errorf("%w: unknown op %q", ErrInvalidStep, s.Op)
	}
	var missing []string
	need := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	switch s.Op {
	case OpCreate:
		need("kind", s.Kind)
	case OpSet:
		need("id", s.ID)
		need("key", s.Key)
	case OpUnset:
		need("id", s.ID)
		need("key", s.Key)
	case OpAdd, OpRemove:
		need("id", s.ID)
		need("collection", s.Collection)
		need("ref", s.Ref)
	case OpDelete:
		need("id", s.ID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidStep, s.Op, strings.Join(missing, ", "))
	}
	return nil
}

// Parse reads a script. The document is either a list of steps or a mapping with a
// "steps" list. JSON input is accepted as well.
func Parse(r io.Reader) ([]Step, error) {
	var raw any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedScript, err)
	}
	if m, ok := raw.(map[string]any); ok {
		raw = m["steps"]
	}
	return Decode(raw)
}

// Decode converts loosely typed data (as produced by YAML or JSON decoders) into steps.
// Unknown fields are rejected.
func Decode(raw any) ([]Step, error) {
	var steps []Step
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &steps,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScript, err)
	}
	for i := range steps {
		s := &steps[i]
		if err := s.Validate(); err != nil {
			return nil, &StepError{Index: i, Op: s.Op, Err: err}
		}
		if s.Value, err = SanitizeValue(s.Value); err != nil {
			return nil, &StepError{Index: i, Op: s.Op, Err: err}
		}
	}
	return steps, nil
}
