package classify

import (
	"github.com/elaw611/isy-bridge/internal/isy"
)

// Category is an entity category a classified node, program or variable
// belongs to.
type Category string

// Entity categories.
const (
	CategoryBinarySensor Category = "binary_sensor"
	CategorySensor       Category = "sensor"
	CategoryLock         Category = "lock"
	CategoryFan          Category = "fan"
	CategoryCover        Category = "cover"
	CategoryLight        Category = "light"
	CategorySwitch       Category = "switch"
	CategoryClimate      Category = "climate"
)

// SceneCategory is the bucket scenes land in. Controller scenes behave
// like switches (they turn off and report state), not like stateless
// scene triggers.
const SceneCategory = CategorySwitch

// allCategories is the category test order for every matcher. The order
// is part of the classification contract: a node matching two
// categories on the same signal goes to the earlier one.
var allCategories = []Category{
	CategoryBinarySensor,
	CategorySensor,
	CategoryLock,
	CategoryFan,
	CategoryCover,
	CategoryLight,
	CategorySwitch,
	CategoryClimate,
}

// programCategories are the categories program entities may declare.
var programCategories = []Category{
	CategoryBinarySensor,
	CategoryLock,
	CategoryFan,
	CategoryCover,
	CategorySwitch,
}

// variableCategories are the categories variable entities may declare.
var variableCategories = []Category{
	CategoryBinarySensor,
	CategorySensor,
	CategorySwitch,
}

// AllCategories returns the node categories in match-priority order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ProgramCategories returns the categories program entities can target.
func ProgramCategories() []Category {
	out := make([]Category, len(programCategories))
	copy(out, programCategories)
	return out
}

// VariableCategories returns the categories variable entities can target.
func VariableCategories() []Category {
	out := make([]Category, len(variableCategories))
	copy(out, variableCategories)
	return out
}

// Valid reports whether the category is one of the node categories.
func (c Category) Valid() bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Program is one program-backed entity: a named folder with its status
// program and, except for binary sensors, its actions program.
type Program struct {
	Name    string
	Status  *isy.Program
	Actions *isy.Program
}

// VariableDescriptor declares one variable-backed entity from the
// configuration. OnValue and OffValue carry the resolved on/off mapping
// for binary sensor and switch targets.
type VariableDescriptor struct {
	ID          int
	Type        int
	Name        string
	Icon        string
	DeviceClass string
	Unit        string
	OnValue     int
	OffValue    int
}

// Variable is one variable-backed entity: the declared descriptor, the
// name the controller reports for the variable, and the live handle.
type Variable struct {
	Descriptor VariableDescriptor
	Name       string
	Value      *isy.Variable
}

// WeatherEntry is one weather measurement: its value, a human-readable
// label and the reporting unit.
type WeatherEntry struct {
	Label string
	Value string
	Unit  string
}

// Result collects everything one classification pass produced.
//
// All category keys exist from construction, so consumers can range
// over AllCategories() without presence checks. Buckets preserve append
// order, which follows the controller's document order. The Result is
// filled during the single startup pass and read-only afterwards.
type Result struct {
	Nodes     map[Category][]*isy.Node
	Programs  map[Category][]Program
	Variables map[Category][]Variable
	Weather   []WeatherEntry
}

// NewResult returns an empty Result with every category bucket created.
func NewResult() *Result {
	res := &Result{
		Nodes:     make(map[Category][]*isy.Node, len(allCategories)),
		Programs:  make(map[Category][]Program, len(programCategories)),
		Variables: make(map[Category][]Variable, len(variableCategories)),
	}
	for _, cat := range allCategories {
		res.Nodes[cat] = []*isy.Node{}
	}
	for _, cat := range programCategories {
		res.Programs[cat] = []Program{}
	}
	for _, cat := range variableCategories {
		res.Variables[cat] = []Variable{}
	}
	return res
}

// NodeCount returns the total number of classified nodes and scenes.
func (r *Result) NodeCount() int {
	n := 0
	for _, bucket := range r.Nodes {
		n += len(bucket)
	}
	return n
}

// ProgramCount returns the total number of program entities.
func (r *Result) ProgramCount() int {
	n := 0
	for _, bucket := range r.Programs {
		n += len(bucket)
	}
	return n
}

// VariableCount returns the total number of variable entities.
func (r *Result) VariableCount() int {
	n := 0
	for _, bucket := range r.Variables {
		n += len(bucket)
	}
	return n
}
