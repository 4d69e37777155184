package classify

import (
	"strconv"
)

// Filter holds the match lists for one category. Every list is
// optional; an empty list simply never matches on that signal.
type Filter struct {
	// UOM are numeric unit-of-measure codes, matched by intersection
	// against the node's token set.
	UOM []string

	// States are human-readable state tokens, matched by full set
	// equality against the node's token set.
	States []string

	// NodeDefIDs are firmware node definition ids, matched exactly.
	NodeDefIDs []string

	// InsteonTypes are Insteon device type prefixes. Trailing dots
	// matter: "1.46." matches the FanLinc family without also matching
	// "1.4x" dimmers.
	InsteonTypes []string

	// ZWaveCats are Z-Wave device category prefixes.
	ZWaveCats []string
}

// nodeFilters is the per-category rule table. The values match the
// controller's raw API vocabulary, not any presentation-layer naming.
//
// Z-Wave categories:
// https://www.universal-devices.com/developers/wsdk/5.0.4/4_fam.xml
var nodeFilters = map[Category]Filter{
	CategoryBinarySensor: {
		NodeDefIDs:   []string{"BinaryAlarm", "OnOffControl_ADV"},
		InsteonTypes: []string{"7.13.", "16."},
		ZWaveCats:    withRange([]string{"104", "112", "138"}, 148, 178),
	},
	CategorySensor: {
		// Most numeric uoms below 100 are plain measurements; the gaps
		// are codes claimed by the other categories.
		UOM: withRange([]string{"1"},
			3, 10, 12, 50, 52, 65, 69, 77, 79, 79, 82, 96),
		NodeDefIDs:   []string{"IMETER_SOLO"},
		InsteonTypes: []string{"9.0.", "9.7."},
		ZWaveCats:    withRange([]string{"118"}, 180, 183),
	},
	CategoryLock: {
		UOM:          []string{"11"},
		States:       []string{"locked", "unlocked"},
		NodeDefIDs:   []string{"DoorLock"},
		InsteonTypes: []string{"15."},
		ZWaveCats:    []string{"111"},
	},
	CategoryFan: {
		States:       []string{"off", "low", "med", "high"},
		NodeDefIDs:   []string{"FanLincMotor"},
		InsteonTypes: []string{"1.46."},
	},
	CategoryCover: {
		UOM:    []string{"97"},
		States: []string{"open", "closed", "closing", "opening", "stopped"},
	},
	CategoryLight: {
		UOM:    []string{"51"},
		States: []string{"on", "off", "%"},
		NodeDefIDs: []string{
			"DimmerLampSwitch", "DimmerLampSwitch_ADV",
			"DimmerSwitchOnly", "DimmerSwitchOnly_ADV",
			"DimmerLampOnly",
			"BallastRelayLampSwitch", "BallastRelayLampSwitch_ADV",
			"RemoteLinc2", "RemoteLinc2_ADV",
		},
		InsteonTypes: []string{"1."},
		ZWaveCats:    []string{"109", "119"},
	},
	CategorySwitch: {
		UOM:    []string{"2", "78"},
		States: []string{"on", "off"},
		NodeDefIDs: []string{
			"OnOffControl",
			"RelayLampSwitch", "RelayLampSwitch_ADV",
			"RelaySwitchOnlyPlusQuery", "RelaySwitchOnlyPlusQuery_ADV",
			"RelayLampOnly", "RelayLampOnly_ADV",
			"KeypadButton", "KeypadButton_ADV",
			"EZRAIN_Input", "EZRAIN_Output",
			"EZIO2x4_Input", "EZIO2x4_Input_ADV",
			"BinaryControl", "BinaryControl_ADV",
			"AlertModuleSiren", "AlertModuleSiren_ADV",
			"AlertModuleArmed",
			"Siren", "Siren_ADV",
		},
		InsteonTypes: []string{"2.", "9.10.", "9.11."},
		ZWaveCats:    []string{"121", "122", "123", "137", "141", "147"},
	},
	CategoryClimate: {
		UOM:          []string{"2"},
		States:       []string{"heating", "cooling", "idle", "fan_only", "off"},
		NodeDefIDs:   []string{"TempLinc", "Thermostat"},
		InsteonTypes: []string{"5."},
		ZWaveCats:    []string{"140"},
	},
}

// Override lists for nodes already forced onto the sensor path: a
// sensor reporting these uoms or exactly these states is an on/off
// device, modelled as a binary sensor.
var (
	binarySensorUOMs   = []string{"2", "78"}
	binarySensorStates = []string{"on", "off"}
)

// withRange appends the decimal strings of one or more inclusive ranges
// to the list. Bounds come in pairs: withRange(list, 3, 10, 12, 50)
// appends 3..10 and 12..50.
func withRange(list []string, bounds ...int) []string {
	for i := 0; i+1 < len(bounds); i += 2 {
		for v := bounds[i]; v <= bounds[i+1]; v++ {
			list = append(list, strconv.Itoa(v))
		}
	}
	return list
}
