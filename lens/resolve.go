package lens

import (
	"strconv"
)

// Display markers used for references which could not be resolved into a value.
const (
	NullValueString    = "null"
	NotFoundType       = "<not found>"
	NotFoundHashMarker = "not found"
)

// ResolveStatus is the outcome class of resolving a VariableID.
type ResolveStatus int

const (
	// Found indicates the reference points at a populated Variable.
	Found ResolveStatus = iota
	// NullValue indicates the reference points at an empty record, the agent encoding for null.
	NullValue
	// NotFound indicates the reference is malformed or outside the table.
	NotFound
)

func (s ResolveStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NullValue:
		return "null"
	case NotFound:
		return "not_found"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// ResolvedVariable is the result of resolving a VariableID through a Resolver.
type ResolvedVariable struct {
	Status ResolveStatus
	// Variable is the record for Found, or a synthesized record with a "null" value for NullValue.
	Variable Variable
	// AttemptedID is the raw ID of the reference which was resolved.
	AttemptedID string
}

// Resolver maps references to variables.
type Resolver interface {
	Resolve(ref VariableID) ResolvedVariable
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref VariableID) ResolvedVariable

func (f ResolverFunc) Resolve(ref VariableID) ResolvedVariable {
	return f(ref)
}

// Resolve maps the reference to a record in the table. Malformed and out of range IDs produce NotFound,
// empty records produce NullValue. The table is never modified and no state is retained between calls.
func Resolve(table VariableTable, ref VariableID) ResolvedVariable {
	index, ok := ParseVariableIndex(ref.ID)
	if !ok {
		return ResolvedVariable{Status: NotFound, AttemptedID: ref.ID}
	}
	v, ok := table.At(index)
	if !ok {
		return ResolvedVariable{Status: NotFound, AttemptedID: ref.ID}
	} else if v.IsEmpty() {
		return ResolvedVariable{Status: NullValue, Variable: Variable{Value: NullValueString}, AttemptedID: ref.ID}
	}
	return ResolvedVariable{Status: Found, Variable: v, AttemptedID: ref.ID}
}

// ParseVariableIndex parses a VariableID ID as a non-negative base-10 integer. Signs, whitespace and
// any other characters are rejected.
func ParseVariableIndex(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(id)
	if err != nil { // overflow
		return 0, false
	}
	return index, true
}

// MissingReferenceValue is the value displayed for a reference which could not be found.
func MissingReferenceValue(id string) string {
	return "Cannot find variable: #" + id
}
