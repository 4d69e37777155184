package classify

import (
	"github.com/elaw611/isy-bridge/internal/isy"
)

// Program folder naming convention on the controller.
const (
	rootProgramFolder   = "My Programs"
	programFolderPrefix = "HA."
	programStatusLeaf   = "status"
	programActionsLeaf  = "actions"
)

// ClassifyPrograms collects program-backed entities from the program
// tree.
//
// For each program category the folder "My Programs/HA.<category>" is
// consulted; a missing folder just means the user declared no entities
// for that category. Each direct child folder becomes one entity,
// provided it contains a "status" program and, for every category
// except binary_sensor, an "actions" program. A child violating the
// convention is skipped with a warning; its siblings are unaffected.
func (c *Classifier) ClassifyPrograms(res *Result, root *isy.Program) {
	for _, cat := range programCategories {
		folder := root.Child(rootProgramFolder).Child(programFolderPrefix + string(cat))
		if folder == nil {
			continue
		}

		for _, child := range folder.Children() {
			if !child.Folder {
				continue
			}

			entity, ok := programEntity(child, cat)
			if !ok {
				c.logWarn("program entity not loaded: invalid folder structure",
					"folder", child.Name, "category", cat)
				continue
			}
			res.Programs[cat] = append(res.Programs[cat], entity)
		}
	}

	c.logInfo("program classification complete", "programs", res.ProgramCount())
}

// programEntity validates one entity folder against the convention and
// builds the entity. Binary sensors are read-only, so they carry no
// actions program.
func programEntity(folder *isy.Program, cat Category) (Program, bool) {
	status := folder.Child(programStatusLeaf)
	if status == nil || status.Folder {
		return Program{}, false
	}

	entity := Program{Name: folder.Name, Status: status}
	if cat == CategoryBinarySensor {
		return entity, true
	}

	actions := folder.Child(programActionsLeaf)
	if actions == nil || actions.Folder {
		return Program{}, false
	}
	entity.Actions = actions
	return entity, true
}
