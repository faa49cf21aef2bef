package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateDocument checks a whole document for constraint violations: unique
// node and edge ids, edge endpoints naming existing nodes, and per-kind
// required payload fields. It returns a *ValidationError if any rules fail,
// or nil if the document is valid.
func ValidateDocument(d *Document) error {
	var ve ValidationError

	nodeIDs := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		b := n.Base()
		field := fmt.Sprintf("nodes[%d]", i)
		if strings.TrimSpace(b.ID) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: field + ".id", Message: "is required"})
			continue
		}
		if nodeIDs[b.ID] {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate node id %q", b.ID),
			})
		}
		nodeIDs[b.ID] = true

		switch v := n.(type) {
		case *FileNode:
			if strings.TrimSpace(v.File) == "" {
				ve.Errors = append(ve.Errors, FieldError{Field: field + ".file", Message: "is required for file nodes"})
			}
		case *LinkNode:
			if strings.TrimSpace(v.URL) == "" {
				ve.Errors = append(ve.Errors, FieldError{Field: field + ".url", Message: "is required for link nodes"})
			}
		}
	}

	edgeIDs := make(map[string]bool, len(d.Edges))
	for i, e := range d.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		if strings.TrimSpace(e.ID) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: field + ".id", Message: "is required"})
		} else if edgeIDs[e.ID] {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate edge id %q", e.ID),
			})
		}
		edgeIDs[e.ID] = true

		if !nodeIDs[e.FromNode] {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + ".fromNode",
				Message: fmt.Sprintf("references unknown node %q", e.FromNode),
			})
		}
		if !nodeIDs[e.ToNode] {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + ".toNode",
				Message: fmt.Sprintf("references unknown node %q", e.ToNode),
			})
		}
		if e.FromSide != "" && !e.FromSide.IsValid() {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + ".fromSide",
				Message: fmt.Sprintf("invalid value %q", e.FromSide),
			})
		}
		if e.ToSide != "" && !e.ToSide.IsValid() {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field + ".toSide",
				Message: fmt.Sprintf("invalid value %q", e.ToSide),
			})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
