package classify

import (
	"strings"

	"github.com/elaw611/isy-bridge/internal/infrastructure/logging"
	"github.com/elaw611/isy-bridge/internal/isy"
)

// Classifier sorts controller directories into Result buckets.
//
// The markers are user-chosen substrings: a node whose folder path or
// name contains the ignore marker is dropped, and one containing the
// sensor marker is forced onto the sensor path regardless of what the
// detection cascade would say.
type Classifier struct {
	ignoreMarker string
	sensorMarker string
	logger       *logging.Logger
}

// New creates a Classifier.
//
// Parameters:
//   - ignoreMarker: Substring that excludes a node entirely
//   - sensorMarker: Substring that forces a node onto the sensor path
//   - logger: Structured logger (may be nil)
//
// Returns:
//   - *Classifier: Ready to classify
func New(ignoreMarker, sensorMarker string, logger *logging.Logger) *Classifier {
	return &Classifier{
		ignoreMarker: ignoreMarker,
		sensorMarker: sensorMarker,
		logger:       logger,
	}
}

// ClassifyNodes sorts the node directory into the Result's category
// buckets. Each node lands in at most one bucket; unmatched nodes are
// dropped silently (debug log only). Input order is preserved per
// bucket, so the same directory always produces the same buckets.
func (c *Classifier) ClassifyNodes(res *Result, nodes []*isy.Node) {
	for _, node := range nodes {
		c.classifyNode(res, node)
	}

	c.logInfo("node classification complete",
		"nodes", len(nodes),
		"classified", res.NodeCount())
}

// classifyNode routes one node: ignore check, scene check, forced
// sensor check, then the detection cascade.
func (c *Classifier) classifyNode(res *Result, node *isy.Node) {
	if c.marked(node, c.ignoreMarker) {
		c.logDebug("node ignored", "address", node.Address, "name", node.Name)
		return
	}

	if node.Kind == isy.KindScene {
		res.Nodes[SceneCategory] = append(res.Nodes[SceneCategory], node)
		return
	}

	if c.marked(node, c.sensorMarker) {
		// The node is a sensor by decree; the only question left is
		// whether it is an on/off device, i.e. a binary sensor.
		cat := CategorySensor
		if found, ok := c.detectBinarySensor(node); ok {
			cat = found
		}
		res.Nodes[cat] = append(res.Nodes[cat], node)
		c.logDebug("node classified",
			"address", node.Address, "category", cat, "matcher", "sensor_marker")
		return
	}

	for _, m := range defaultCascade {
		if cat, ok := m.match(node, ""); ok {
			res.Nodes[cat] = append(res.Nodes[cat], node)
			c.logDebug("node classified",
				"address", node.Address, "category", cat, "matcher", m.name)
			return
		}
	}

	c.logDebug("node not classified", "address", node.Address, "name", node.Name)
}

// detectBinarySensor decides whether a sensor-marked node is an on/off
// reporter. The uom and state checks run with override lists here
// because the node is already known to be a sensor; the rule-table
// lists would route on/off uoms to switch instead.
func (c *Classifier) detectBinarySensor(node *isy.Node) (Category, bool) {
	if cat, ok := matchNodeDef(node, CategoryBinarySensor); ok {
		return cat, true
	}
	if cat, ok := matchInsteonType(node, CategoryBinarySensor); ok {
		return cat, true
	}
	if cat, ok := matchUOM(node, CategoryBinarySensor, binarySensorUOMs); ok {
		return cat, true
	}
	if cat, ok := matchStates(node, CategoryBinarySensor, binarySensorStates); ok {
		return cat, true
	}
	return "", false
}

// marked reports whether the node's folder path or name contains the
// marker. An empty marker never matches.
func (c *Classifier) marked(node *isy.Node, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(node.Path, marker) || strings.Contains(node.Name, marker)
}

// logInfo logs at info level if a logger is configured.
func (c *Classifier) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

// logWarn logs at warn level if a logger is configured.
func (c *Classifier) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

// logError logs at error level if a logger is configured.
func (c *Classifier) logError(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}

// logDebug logs at debug level if a logger is configured.
func (c *Classifier) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
