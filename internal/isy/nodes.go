package isy

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// NodeKind distinguishes device nodes from scenes (ISY groups).
type NodeKind string

// Node kinds.
const (
	KindDevice NodeKind = "device"
	KindScene  NodeKind = "scene"
)

// Property is one reported node property. Value is the raw attribute
// string; the controller reports an unknown value as an empty string.
type Property struct {
	ID        string
	Value     string
	Formatted string
	UOM       string
}

// Unknown reports whether the property carries no usable value.
func (p Property) Unknown() bool {
	return p.Value == "" || p.Value == " "
}

// Node is one device endpoint or scene reported by the controller.
//
// The classification metadata fields are optional and presence-tagged by
// their zero value: firmware before 5.0 reports no NodeDefID, non-Insteon
// devices report no Type, non-Z-Wave devices report no DeviceCategory,
// and scenes report no UOM at all.
//
// Nodes are read-only views owned by this package. The classifier and
// every downstream consumer must not mutate them.
type Node struct {
	// Address is the controller-unique node address, e.g. "11 22 33 1".
	// For Insteon multi-function hardware the trailing numeral selects
	// the sub-node.
	Address string

	// Name is the user-assigned display name.
	Name string

	// Path is the folder path containing the node, e.g.
	// "Upstairs/Bedroom". Empty for nodes at the directory root.
	Path string

	Kind    NodeKind
	Flag    int
	Enabled bool

	// NodeDefID is the firmware node definition id ("" = not reported).
	// Only 5.0+ firmware supplies it; when present it is the most
	// reliable classification signal.
	NodeDefID string

	// Type is the Insteon device type code, e.g. "1.32.65.0"
	// ("" = non-Insteon device).
	Type string

	// DeviceCategory is the Z-Wave device type category, e.g. "111"
	// ("" = non-Z-Wave device).
	DeviceCategory string

	// UOM is the unit-of-measure token list: either a single code like
	// ["51"] or human-readable states like ["on","off","%"], depending
	// on firmware. Nil when the node reports none (scenes, folders).
	UOM []string

	// Status is the primary ST property snapshot at fetch time.
	Status Property

	// AuxProperties holds the non-ST properties keyed by control id.
	AuxProperties map[string]Property

	// Members lists member node addresses for scenes.
	Members []string
}

// Nodes fetches the full node directory: devices and scenes with their
// folder paths resolved.
//
// The returned order is the controller's document order, which is stable
// for an unchanged installation; classification depends on that for
// deterministic bucket contents.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []*Node: Devices and scenes in document order
//   - error: nil on success, otherwise the fetch or decode error
func (c *Client) Nodes(ctx context.Context) ([]*Node, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	var doc nodesXML
	if err := c.get(ctx, "/rest/nodes", &doc); err != nil {
		return nil, fmt.Errorf("fetching node directory: %w", err)
	}

	paths := resolveFolderPaths(doc.Folders)

	nodes := make([]*Node, 0, len(doc.Nodes)+len(doc.Groups))
	for _, n := range doc.Nodes {
		nodes = append(nodes, n.toNode(paths))
	}
	for _, g := range doc.Groups {
		nodes = append(nodes, g.toNode(paths))
	}

	c.logInfo("fetched node directory",
		"devices", len(doc.Nodes),
		"scenes", len(doc.Groups),
		"folders", len(doc.Folders))

	return nodes, nil
}

// resolveFolderPaths walks folder parent chains into full path strings
// keyed by folder address. A cycle or missing parent terminates the walk
// at whatever prefix was reachable.
func resolveFolderPaths(folders []folderXML) map[string]string {
	byAddress := make(map[string]folderXML, len(folders))
	for _, f := range folders {
		byAddress[f.Address] = f
	}

	paths := make(map[string]string, len(folders))
	for _, f := range folders {
		segments := []string{f.Name}
		parent := f.Parent.Value
		for depth := 0; parent != "" && depth < len(folders); depth++ {
			pf, ok := byAddress[parent]
			if !ok {
				break
			}
			segments = append([]string{pf.Name}, segments...)
			parent = pf.Parent.Value
		}
		paths[f.Address] = strings.Join(segments, "/")
	}
	return paths
}

// nodesXML mirrors the /rest/nodes response document.
type nodesXML struct {
	XMLName xml.Name    `xml:"nodes"`
	Folders []folderXML `xml:"folder"`
	Nodes   []nodeXML   `xml:"node"`
	Groups  []groupXML  `xml:"group"`
}

type parentXML struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type folderXML struct {
	Flag    int       `xml:"flag,attr"`
	Address string    `xml:"address"`
	Name    string    `xml:"name"`
	Parent  parentXML `xml:"parent"`
}

type propertyXML struct {
	ID        string `xml:"id,attr"`
	Value     string `xml:"value,attr"`
	Formatted string `xml:"formatted,attr"`
	UOM       string `xml:"uom,attr"`
}

type nodeXML struct {
	Flag      int       `xml:"flag,attr"`
	NodeDefID string    `xml:"nodeDefId,attr"`
	Address   string    `xml:"address"`
	Name      string    `xml:"name"`
	Parent    parentXML `xml:"parent"`
	Type      string    `xml:"type"`
	Enabled   string    `xml:"enabled"`
	// DevtypeCat carries the Z-Wave category on Z-Wave nodes.
	DevtypeCat string `xml:"devtype>cat"`
	// 4.x firmware puts properties directly under <node>; 5.x wraps
	// them in a <properties> element. Both shapes appear in the field.
	Properties        []propertyXML `xml:"property"`
	WrappedProperties []propertyXML `xml:"properties>property"`
}

type groupXML struct {
	Flag    int       `xml:"flag,attr"`
	Address string    `xml:"address"`
	Name    string    `xml:"name"`
	Parent  parentXML `xml:"parent"`
	Members []string  `xml:"members>link"`
}

// toNode converts a parsed device element to a Node, resolving its
// folder path and splitting the unit-of-measure attribute.
func (n nodeXML) toNode(paths map[string]string) *Node {
	node := &Node{
		Address:        n.Address,
		Name:           n.Name,
		Path:           paths[n.Parent.Value],
		Kind:           KindDevice,
		Flag:           n.Flag,
		Enabled:        n.Enabled != "false",
		NodeDefID:      n.NodeDefID,
		Type:           n.Type,
		DeviceCategory: n.DevtypeCat,
	}

	props := n.Properties
	if len(props) == 0 {
		props = n.WrappedProperties
	}
	for _, p := range props {
		prop := Property{
			ID:        p.ID,
			Value:     p.Value,
			Formatted: p.Formatted,
			UOM:       p.UOM,
		}
		if p.ID == "ST" {
			node.Status = prop
			if p.UOM != "" {
				node.UOM = strings.Split(p.UOM, "/")
			}
			continue
		}
		if node.AuxProperties == nil {
			node.AuxProperties = make(map[string]Property)
		}
		node.AuxProperties[p.ID] = prop
	}

	return node
}

// toNode converts a parsed group element to a scene Node. Scenes carry
// no classification metadata; the classifier routes them by kind alone.
func (g groupXML) toNode(paths map[string]string) *Node {
	return &Node{
		Address: g.Address,
		Name:    g.Name,
		Path:    paths[g.Parent.Value],
		Kind:    KindScene,
		Flag:    g.Flag,
		Enabled: true,
		Members: g.Members,
	}
}
