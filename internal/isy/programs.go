package isy

import (
	"context"
	"encoding/xml"
	"fmt"
)

// Program is one entry in the controller program tree: either a folder
// or a leaf program. Children preserve the controller's document order.
type Program struct {
	ID      string
	Name    string
	Folder  bool
	Enabled bool

	// Status is the program's last evaluation result (true/false).
	// Meaningful for leaf programs only.
	Status bool

	// LastRunTime is the controller-formatted timestamp of the last run,
	// empty if the program has never run.
	LastRunTime string

	children []*Program
}

// Children returns the direct children in document order.
func (p *Program) Children() []*Program {
	if p == nil {
		return nil
	}
	return p.children
}

// Child returns the first direct child with the given name, or nil.
func (p *Program) Child(name string) *Program {
	if p == nil {
		return nil
	}
	for _, c := range p.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddChild appends a direct child, preserving insertion order.
func (p *Program) AddChild(child *Program) {
	p.children = append(p.children, child)
}

// Programs fetches the full program tree.
//
// The returned root is a synthetic container; its children are the
// controller's top-level folders ("My Programs" among them), so lookups
// read naturally: root.Child("My Programs").Child("HA.switch").
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *Program: Synthetic root of the program tree
//   - error: nil on success, otherwise the fetch or decode error
func (c *Client) Programs(ctx context.Context) (*Program, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	var doc programsXML
	if err := c.get(ctx, "/rest/programs?subfolders=true", &doc); err != nil {
		return nil, fmt.Errorf("fetching program directory: %w", err)
	}

	root := &Program{Folder: true}
	byID := make(map[string]*Program, len(doc.Programs))
	for _, p := range doc.Programs {
		byID[p.ID] = &Program{
			ID:          p.ID,
			Name:        p.Name,
			Folder:      p.Folder == "true",
			Enabled:     p.Enabled != "false",
			Status:      p.Status == "true",
			LastRunTime: p.LastRunTime,
		}
	}

	// Attach children in document order. Entries without a resolvable
	// parent (or that are their own parent, as the controller reports
	// for the root folder) hang off the synthetic root.
	for _, p := range doc.Programs {
		child := byID[p.ID]
		parent, ok := byID[p.ParentID]
		if !ok || p.ParentID == p.ID {
			root.AddChild(child)
			continue
		}
		parent.AddChild(child)
	}

	c.logInfo("fetched program directory", "programs", len(doc.Programs))

	return root, nil
}

// programsXML mirrors the /rest/programs response document.
type programsXML struct {
	XMLName  xml.Name     `xml:"programs"`
	Programs []programXML `xml:"program"`
}

type programXML struct {
	ID          string `xml:"id,attr"`
	ParentID    string `xml:"parentId,attr"`
	Folder      string `xml:"folder,attr"`
	Enabled     string `xml:"enabled,attr"`
	Status      string `xml:"status,attr"`
	Name        string `xml:"name"`
	LastRunTime string `xml:"lastRunTime"`
}
