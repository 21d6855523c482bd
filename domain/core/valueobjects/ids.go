// Package valueobjects contains immutable value objects for the research domain.
package valueobjects

import (
	"fmt"

	"github.com/google/uuid"
)

// ProjectID uniquely identifies a research project.
type ProjectID struct {
	value string
}

// NewProjectID generates a new unique project ID.
func NewProjectID() ProjectID {
	return ProjectID{value: uuid.New().String()}
}

// ParseProjectID creates a ProjectID from an existing string.
func ParseProjectID(value string) (ProjectID, error) {
	if _, err := uuid.Parse(value); err != nil {
		return ProjectID{}, fmt.Errorf("invalid project ID format: %w", err)
	}
	return ProjectID{value: value}, nil
}

// String returns the string representation.
func (id ProjectID) String() string {
	return id.value
}

// IsZero reports whether the ID is unset.
func (id ProjectID) IsZero() bool {
	return id.value == ""
}

// Equals checks equality with another ProjectID.
func (id ProjectID) Equals(other ProjectID) bool {
	return id.value == other.value
}

// NodeID uniquely identifies a research node.
type NodeID struct {
	value string
}

// NewNodeID generates a new unique node ID.
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// ParseNodeID creates a NodeID from an existing string.
func ParseNodeID(value string) (NodeID, error) {
	if _, err := uuid.Parse(value); err != nil {
		return NodeID{}, fmt.Errorf("invalid node ID format: %w", err)
	}
	return NodeID{value: value}, nil
}

// String returns the string representation.
func (id NodeID) String() string {
	return id.value
}

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool {
	return id.value == ""
}

// Equals checks equality with another NodeID.
func (id NodeID) Equals(other NodeID) bool {
	return id.value == other.value
}

// SourceID uniquely identifies a stored web source.
type SourceID struct {
	value string
}

// NewSourceID generates a new unique source ID.
func NewSourceID() SourceID {
	return SourceID{value: uuid.New().String()}
}

// ParseSourceID creates a SourceID from an existing string.
func ParseSourceID(value string) (SourceID, error) {
	if _, err := uuid.Parse(value); err != nil {
		return SourceID{}, fmt.Errorf("invalid source ID format: %w", err)
	}
	return SourceID{value: value}, nil
}

// String returns the string representation.
func (id SourceID) String() string {
	return id.value
}

// IsZero reports whether the ID is unset.
func (id SourceID) IsZero() bool {
	return id.value == ""
}
