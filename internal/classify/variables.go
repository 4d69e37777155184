package classify

import (
	"fmt"

	"github.com/elaw611/isy-bridge/internal/isy"
)

// ClassifyVariables resolves declared variable descriptors against the
// live variable directory and appends the hits to the category bucket.
//
// A descriptor whose (type, id) pair resolves to nothing is a config
// mistake: it is logged at error level and skipped, leaving the
// remaining descriptors unaffected.
func (c *Classifier) ClassifyVariables(res *Result, dir *isy.VariableDirectory, cat Category, descriptors []VariableDescriptor) {
	for _, desc := range descriptors {
		v, ok := dir.Get(desc.Type, desc.ID)
		if !ok {
			c.logError("variable not found on controller; check the variables config",
				"variable", fmt.Sprintf("%d.%d", desc.Type, desc.ID),
				"category", cat)
			continue
		}

		res.Variables[cat] = append(res.Variables[cat], Variable{
			Descriptor: desc,
			Name:       v.Name,
			Value:      v,
		})
	}
}
