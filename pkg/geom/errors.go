package geom

import (
	"errors"
	"fmt"
)

// Error categories. Every typed error below matches exactly one of these
// via errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrOrdering   = errors.New("ordering error")
	ErrTopology   = errors.New("topology error")
	ErrKernel     = errors.New("kernel error")
)

// ValidationError reports a malformed raw input shape.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OrderingError reports an operation attempted before its dependencies were
// resolved.
type OrderingError struct {
	Op      string
	Message string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("ordering: %s: %s", e.Op, e.Message)
}

func (e *OrderingError) Is(target error) bool { return target == ErrOrdering }

// NotRegisteredError reports an unregister request for an entity that was
// never registered. It is an ordering error.
type NotRegisteredError struct {
	Kind Kind
	Tag  Tag
	Name string // block name, when the request came from a block
}

func (e *NotRegisteredError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("ordering: block %q is not registered", e.Name)
	}
	return fmt.Sprintf("ordering: %s %d is not registered", e.Kind, e.Tag)
}

func (e *NotRegisteredError) Is(target error) bool { return target == ErrOrdering }

// TopologyError reports an inconsistent boolean grouping partition.
type TopologyError struct {
	Message string
}

func (e *TopologyError) Error() string {
	return "topology: " + e.Message
}

func (e *TopologyError) Is(target error) bool { return target == ErrTopology }

// KernelError wraps a failure returned by the geometry kernel. The original
// error is preserved unchanged and reachable through errors.Unwrap.
type KernelError struct {
	Op  string
	Err error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel: %s: %v", e.Op, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

func (e *KernelError) Is(target error) bool { return target == ErrKernel }
