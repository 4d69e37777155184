package isy

import (
	"context"
	"encoding/xml"
	"fmt"
)

// Variable type codes used by the controller.
const (
	VariableTypeInteger = 1
	VariableTypeState   = 2
)

// Variable is one controller variable: a named, typed value slot.
type Variable struct {
	ID   int
	Type int
	Name string

	// Value is the current value, Init the power-up value.
	Value int
	Init  int
}

// VariableDirectory indexes the controller's variables by type then id,
// preserving the controller's reported order within each type.
type VariableDirectory struct {
	byType map[int][]*Variable
	index  map[int]map[int]*Variable
}

// NewVariableDirectory builds a directory from variables in the given
// order.
func NewVariableDirectory(vars ...*Variable) *VariableDirectory {
	dir := &VariableDirectory{
		byType: make(map[int][]*Variable, 2),
		index:  make(map[int]map[int]*Variable, 2),
	}
	for _, v := range vars {
		dir.add(v)
	}
	return dir
}

// add indexes one variable.
func (d *VariableDirectory) add(v *Variable) {
	d.byType[v.Type] = append(d.byType[v.Type], v)
	if d.index[v.Type] == nil {
		d.index[v.Type] = make(map[int]*Variable)
	}
	d.index[v.Type][v.ID] = v
}

// Children returns the variables of one type in controller order.
func (d *VariableDirectory) Children(varType int) []*Variable {
	if d == nil {
		return nil
	}
	return d.byType[varType]
}

// Get looks up a variable by type and id.
func (d *VariableDirectory) Get(varType, id int) (*Variable, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.index[varType][id]
	return v, ok
}

// Len returns the total number of variables across both types.
func (d *VariableDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byType[VariableTypeInteger]) + len(d.byType[VariableTypeState])
}

// Variables fetches the variable directory for both variable types.
//
// Names come from the definitions endpoint and values from the get
// endpoint. A definition with no reported value keeps a zero value;
// the controller omits names for variables that were never labelled.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *VariableDirectory: Directory indexed by [type][id]
//   - error: nil on success, otherwise the fetch or decode error
func (c *Client) Variables(ctx context.Context) (*VariableDirectory, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	dir := NewVariableDirectory()

	for _, varType := range []int{VariableTypeInteger, VariableTypeState} {
		if err := c.fetchVariables(ctx, varType, dir); err != nil {
			return nil, err
		}
	}

	c.logInfo("fetched variable directory", "variables", dir.Len())

	return dir, nil
}

// fetchVariables loads one variable type into the directory.
func (c *Client) fetchVariables(ctx context.Context, varType int, dir *VariableDirectory) error {
	var defs varDefinitionsXML
	if err := c.get(ctx, fmt.Sprintf("/rest/vars/definitions/%d", varType), &defs); err != nil {
		return fmt.Errorf("fetching variable definitions (type %d): %w", varType, err)
	}

	var vals varValuesXML
	if err := c.get(ctx, fmt.Sprintf("/rest/vars/get/%d", varType), &vals); err != nil {
		return fmt.Errorf("fetching variable values (type %d): %w", varType, err)
	}

	values := make(map[int]varValueXML, len(vals.Vars))
	for _, v := range vals.Vars {
		values[v.ID] = v
	}

	for _, e := range defs.Entries {
		v := &Variable{
			ID:   e.ID,
			Type: varType,
			Name: e.Name,
		}
		if val, ok := values[e.ID]; ok {
			v.Value = val.Value
			v.Init = val.Init
		}
		dir.add(v)
	}

	return nil
}

// varDefinitionsXML mirrors /rest/vars/definitions/{type}.
type varDefinitionsXML struct {
	XMLName xml.Name `xml:"CList"`
	Entries []struct {
		ID   int    `xml:"id,attr"`
		Name string `xml:"name,attr"`
	} `xml:"e"`
}

// varValuesXML mirrors /rest/vars/get/{type}.
type varValuesXML struct {
	XMLName xml.Name      `xml:"vars"`
	Vars    []varValueXML `xml:"var"`
}

type varValueXML struct {
	ID    int `xml:"id,attr"`
	Type  int `xml:"type,attr"`
	Init  int `xml:"init"`
	Value int `xml:"val"`
}
