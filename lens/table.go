package lens

// VariableTable is the ordered collection of Variable records. A VariableID's ID is the position of the
// Variable it references.
type VariableTable []Variable

// Len returns the number of records in the table.
func (t VariableTable) Len() int {
	return len(t)
}

// At returns the record at the position, or false if the position is out of range.
func (t VariableTable) At(index int) (Variable, bool) {
	if index < 0 || index >= len(t) {
		return Variable{}, false
	}
	return t[index], true
}

// Resolve looks the reference up in the table, see the package level Resolve.
func (t VariableTable) Resolve(ref VariableID) ResolvedVariable {
	return Resolve(t, ref)
}
