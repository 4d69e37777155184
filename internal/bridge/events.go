package bridge

// friendlyNames maps controller control codes to the attribute names
// used in entity state. Codes the controller reports that are missing
// here fall back to the raw code.
var friendlyNames = map[string]string{
	"AIRFLOW": "Air Flow",
	"ALARM":   "Alarm",
	"ANGLE":   "Angle Position",
	"ATMPRES": "Atmospheric Pressure",
	"BARPRES": "Barometric Pressure",
	"BATLVL":  "Battery Level",
	"CC":      "Current",
	"CLIEMD":  "Energy Saving Mode",
	"CLIFS":   "Fan State",
	"CLIHCS":  "Heat/Cool State",
	"CLIHUM":  "Humidity",
	"CLIMD":   "Mode",
	"CLISMD":  "Schedule Mode",
	"CLISPC":  "Cool Setpoint",
	"CLISPH":  "Heat Setpoint",
	"CLITEMP": "Temperature",
	"CO2LVL":  "CO2 Level",
	"CPW":     "Power",
	"CV":      "Voltage",
	"DISTANC": "Distance",
	"ELECCON": "Electrical Conductivity",
	"ELECRES": "Electrical Resistivity",
	"ERR":     "Device communication errors",
	"GPV":     "General Purpose",
	"GVOL":    "Gas Volume",
	"LUMIN":   "Luminance",
	"MOIST":   "Moisture",
	"OL":      "On Level",
	"PCNT":    "Pulse Count",
	"PF":      "Power Factor",
	"PPW":     "Polarized Power",
	"PULSCNT": "Pulse Count",
	"RAINRT":  "Rain Rate",
	"ROTATE":  "Rotation",
	"RR":      "Ramp Rate",
	"SEISINT": "Seismic Intensity",
	"SEISMAG": "Seismic Magnitude",
	"SOLRAD":  "Solar Radiation",
	"SPEED":   "Speed",
	"SVOL":    "Sound Volume",
	"TANKCAP": "Tank Capacity",
	"TIDELVL": "Tide Level",
	"TIMEREM": "Time Remaining",
	"TPW":     "Total kW Power",
	"UAC":     "User Number",
	"UOM":     "Unit of Measure",
	"USRNUM":  "User Number",
	"UV":      "UV Light",
	"VOCLVL":  "VOC Level",
	"WEIGHT":  "Weight",
	"WINDDIR": "Wind Direction",
	"WVOL":    "Water Volume",
}

// ignoredControls are control codes that never become entity attributes.
// Button presses and state echoes carry no attribute value worth keeping;
// they are still published on the control event topic.
var ignoredControls = map[string]bool{
	"DON":   true,
	"ST":    true,
	"DFON":  true,
	"DOF":   true,
	"DFOF":  true,
	"BEEP":  true,
	"RESET": true,
	"X10":   true,
	"BMAN":  true,
	"SMAN":  true,
	"BRT":   true,
	"DIM":   true,
	"BUSY":  true,
}

// FriendlyName returns the attribute name for a control code, falling
// back to the raw code when no mapping exists.
func FriendlyName(control string) string {
	if name, ok := friendlyNames[control]; ok {
		return name
	}
	return control
}

// IsAttributeControl reports whether a control code should be stored as
// an entity attribute.
func IsAttributeControl(control string) bool {
	return !ignoredControls[control]
}
