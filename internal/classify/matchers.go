package classify

import (
	"strings"

	"github.com/elaw611/isy-bridge/internal/isy"
)

// matcher is one detection strategy. It inspects a single metadata
// signal and reports the bucket the node belongs to. A zero restrict
// category tests all categories in priority order; a non-zero one tests
// only that category.
type matcher struct {
	name  string
	match func(node *isy.Node, restrict Category) (Category, bool)
}

// defaultCascade orders the detection strategies from most to least
// reliable. Order matters:
//
//	node_def runs first because 5.0 firmware definition ids identify
//	hardware exactly; insteon_type and zwave_category read vendor
//	metadata that survives on every firmware; the two uom strategies
//	come last because 4.x-era uom reporting is the loosest signal.
var defaultCascade = []matcher{
	{name: "node_def", match: matchNodeDef},
	{name: "insteon_type", match: matchInsteonType},
	{name: "zwave_category", match: matchZWaveCategory},
	{name: "uom_code", match: func(n *isy.Node, restrict Category) (Category, bool) {
		return matchUOM(n, restrict, nil)
	}},
	{name: "state_tokens", match: func(n *isy.Node, restrict Category) (Category, bool) {
		return matchStates(n, restrict, nil)
	}},
}

// candidates returns the categories a matcher should test.
func candidates(restrict Category) []Category {
	if restrict != "" {
		return []Category{restrict}
	}
	return allCategories
}

// matchNodeDef matches the firmware node definition id exactly. Nodes
// without one (pre-5.0 firmware) never match.
func matchNodeDef(node *isy.Node, restrict Category) (Category, bool) {
	if node.NodeDefID == "" {
		return "", false
	}
	for _, cat := range candidates(restrict) {
		for _, id := range nodeFilters[cat].NodeDefIDs {
			if node.NodeDefID == id {
				return cat, true
			}
		}
	}
	return "", false
}

// matchInsteonType matches the Insteon device type against the
// category prefixes. Non-Insteon nodes (no type) never match.
//
// Two hardware quirks are resolved here rather than in the rule table.
// On 5.0 firmware neither applies because node definitions identify the
// sub-nodes directly.
func matchInsteonType(node *isy.Node, restrict Category) (Category, bool) {
	if node.Type == "" {
		return "", false
	}
	for _, cat := range candidates(restrict) {
		for _, prefix := range nodeFilters[cat].InsteonTypes {
			if !strings.HasPrefix(node.Type, prefix) {
				continue
			}

			// FanLinc exposes its light module as sub-node 1; route
			// it to the light bucket instead of fan.
			if cat == CategoryFan && addressSuffix(node.Address) == 1 {
				return CategoryLight, true
			}

			// Thermostats expose heat and cool call indicators as
			// sub-nodes 2 and 3; they report binary state, not a
			// second thermostat.
			if cat == CategoryClimate {
				if s := addressSuffix(node.Address); s == 2 || s == 3 {
					return CategoryBinarySensor, true
				}
			}

			return cat, true
		}
	}
	return "", false
}

// matchZWaveCategory matches the Z-Wave device category against the
// category prefixes. Non-Z-Wave nodes never match.
func matchZWaveCategory(node *isy.Node, restrict Category) (Category, bool) {
	if node.DeviceCategory == "" {
		return "", false
	}
	for _, cat := range candidates(restrict) {
		for _, prefix := range nodeFilters[cat].ZWaveCats {
			if strings.HasPrefix(node.DeviceCategory, prefix) {
				return cat, true
			}
		}
	}
	return "", false
}

// matchUOM matches the node's uom token set by intersection: one shared
// code is enough. An override list replaces the rule-table list and
// requires a restrict category to name the bucket. Nodes without uom
// data (scenes) never match.
func matchUOM(node *isy.Node, restrict Category, override []string) (Category, bool) {
	if node.UOM == nil {
		return "", false
	}
	tokens := lowerSet(node.UOM)

	if override != nil {
		if intersects(tokens, override) {
			return restrict, true
		}
		return "", false
	}
	for _, cat := range candidates(restrict) {
		if intersects(tokens, nodeFilters[cat].UOM) {
			return cat, true
		}
	}
	return "", false
}

// matchStates matches the node's uom token set by full set equality
// against a category's state vocabulary: every possible state must fit.
// The equality here (versus intersection in matchUOM) is deliberate;
// "on/off" alone must not claim a dimmer that also reports "%".
func matchStates(node *isy.Node, restrict Category, override []string) (Category, bool) {
	if node.UOM == nil {
		return "", false
	}
	tokens := lowerSet(node.UOM)

	if override != nil {
		if setEqual(tokens, override) {
			return restrict, true
		}
		return "", false
	}
	for _, cat := range candidates(restrict) {
		if setEqual(tokens, nodeFilters[cat].States) {
			return cat, true
		}
	}
	return "", false
}

// addressSuffix parses the trailing character of a node address as a
// digit. Returns -1 for an empty address or a non-digit suffix, which
// disables the sub-node quirks instead of guessing.
func addressSuffix(address string) int {
	if address == "" {
		return -1
	}
	last := address[len(address)-1]
	if last < '0' || last > '9' {
		return -1
	}
	return int(last - '0')
}

// lowerSet builds a lowercased set from the token list.
func lowerSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}

// intersects reports whether any list element is in the set.
func intersects(set map[string]struct{}, list []string) bool {
	for _, v := range list {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// setEqual reports whether the set holds exactly the list's elements.
func setEqual(set map[string]struct{}, list []string) bool {
	want := make(map[string]struct{}, len(list))
	for _, v := range list {
		want[v] = struct{}{}
	}
	if len(set) != len(want) {
		return false
	}
	for v := range want {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
