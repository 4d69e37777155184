package classify

import (
	"reflect"
	"testing"

	"github.com/elaw611/isy-bridge/internal/isy"
)

const (
	testIgnoreMarker = "{IGNORE ME}"
	testSensorMarker = "sensor"
)

func newTestClassifier() *Classifier {
	return New(testIgnoreMarker, testSensorMarker, nil)
}

// bucketOf returns the categories whose buckets contain the address.
func bucketOf(res *Result, address string) []Category {
	var cats []Category
	for _, cat := range allCategories {
		for _, n := range res.Nodes[cat] {
			if n.Address == address {
				cats = append(cats, cat)
			}
		}
	}
	return cats
}

func classifyOne(t *testing.T, node *isy.Node) *Result {
	t.Helper()
	res := NewResult()
	newTestClassifier().ClassifyNodes(res, []*isy.Node{node})
	return res
}

func assertBucket(t *testing.T, res *Result, address string, want Category) {
	t.Helper()
	cats := bucketOf(res, address)
	if len(cats) != 1 || cats[0] != want {
		t.Errorf("node %s in buckets %v, want exactly [%s]", address, cats, want)
	}
}

func TestClassifyNodes_IgnoreMarker(t *testing.T) {
	t.Run("marker in name", func(t *testing.T) {
		node := &isy.Node{
			Address:   "11 22 33 1",
			Name:      "Old Lamp {IGNORE ME}",
			Kind:      isy.KindDevice,
			NodeDefID: "DimmerLampSwitch",
		}
		res := classifyOne(t, node)
		if got := bucketOf(res, node.Address); got != nil {
			t.Errorf("ignored node landed in %v", got)
		}
	})

	t.Run("marker in path", func(t *testing.T) {
		node := &isy.Node{
			Address:   "11 22 33 1",
			Name:      "Old Lamp",
			Path:      "Attic/{IGNORE ME}/Junk",
			Kind:      isy.KindDevice,
			NodeDefID: "DimmerLampSwitch",
		}
		res := classifyOne(t, node)
		if got := bucketOf(res, node.Address); got != nil {
			t.Errorf("ignored node landed in %v", got)
		}
	})

	t.Run("ignore beats sensor marker", func(t *testing.T) {
		node := &isy.Node{
			Address: "11 22 33 1",
			Name:    "Driveway sensor {IGNORE ME}",
			Kind:    isy.KindDevice,
			Type:    "16.1.35.0",
		}
		res := classifyOne(t, node)
		if got := bucketOf(res, node.Address); got != nil {
			t.Errorf("ignored node landed in %v", got)
		}
	})
}

func TestClassifyNodes_SceneRouting(t *testing.T) {
	scene := &isy.Node{
		Address: "23456",
		Name:    "Evening Scene",
		Kind:    isy.KindScene,
		Members: []string{"11 22 33 1"},
	}
	res := classifyOne(t, scene)
	assertBucket(t, res, scene.Address, CategorySwitch)
}

func TestClassifyNodes_ForcedSensor(t *testing.T) {
	tests := []struct {
		name string
		node *isy.Node
		want Category
	}{
		{
			name: "binary by node definition",
			node: &isy.Node{Address: "a 1", Name: "Door sensor", Kind: isy.KindDevice, NodeDefID: "BinaryAlarm"},
			want: CategoryBinarySensor,
		},
		{
			name: "binary by insteon type",
			node: &isy.Node{Address: "a 1", Name: "Garage sensor", Kind: isy.KindDevice, Type: "16.1.35.0"},
			want: CategoryBinarySensor,
		},
		{
			// uom 2 normally routes to switch; on the sensor path the
			// override claims it as an on/off reporter instead.
			name: "binary by uom override",
			node: &isy.Node{Address: "a 1", Name: "Leak sensor", Kind: isy.KindDevice, UOM: []string{"2"}},
			want: CategoryBinarySensor,
		},
		{
			name: "binary by state override",
			node: &isy.Node{Address: "a 1", Name: "Motion sensor", Kind: isy.KindDevice, UOM: []string{"on", "off"}},
			want: CategoryBinarySensor,
		},
		{
			name: "plain sensor fallback",
			node: &isy.Node{Address: "a 1", Name: "Temp sensor", Kind: isy.KindDevice, UOM: []string{"17"}},
			want: CategorySensor,
		},
		{
			// A dimmer forced onto the sensor path must not reach the
			// light bucket; the fallback keeps it a sensor.
			name: "forced dimmer stays on sensor path",
			node: &isy.Node{Address: "a 1", Name: "Lux sensor", Kind: isy.KindDevice, NodeDefID: "DimmerLampSwitch", UOM: []string{"51"}},
			want: CategorySensor,
		},
		{
			name: "marker in path",
			node: &isy.Node{Address: "a 1", Name: "West Window", Path: "Home/sensors", Kind: isy.KindDevice, UOM: []string{"17"}},
			want: CategorySensor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classifyOne(t, tt.node)
			assertBucket(t, res, tt.node.Address, tt.want)
		})
	}
}

// TestClassifyNodes_ForcedSensorNeverElsewhere locks the invariant that
// the sensor path produces binary_sensor or sensor, nothing else.
func TestClassifyNodes_ForcedSensorNeverElsewhere(t *testing.T) {
	// Signals that would normally classify as light, switch, lock,
	// climate and fan respectively.
	nodes := []*isy.Node{
		{Address: "f 1", Name: "sensor 1", Kind: isy.KindDevice, NodeDefID: "DimmerLampSwitch"},
		{Address: "f 2", Name: "sensor 2", Kind: isy.KindDevice, Type: "2.44.68.0"},
		{Address: "f 3", Name: "sensor 3", Kind: isy.KindDevice, DeviceCategory: "111"},
		{Address: "f 4", Name: "sensor 4", Kind: isy.KindDevice, UOM: []string{"heating", "cooling", "idle", "fan_only", "off"}},
		{Address: "f 5", Name: "sensor 5", Kind: isy.KindDevice, UOM: []string{"off", "low", "med", "high"}},
	}

	res := NewResult()
	newTestClassifier().ClassifyNodes(res, nodes)

	for _, node := range nodes {
		cats := bucketOf(res, node.Address)
		if len(cats) != 1 {
			t.Errorf("node %s in buckets %v, want exactly one", node.Address, cats)
			continue
		}
		if cats[0] != CategorySensor && cats[0] != CategoryBinarySensor {
			t.Errorf("node %s left the sensor path into %q", node.Address, cats[0])
		}
	}
}

func TestClassifyNodes_CascadePriority(t *testing.T) {
	t.Run("node definition beats insteon type", func(t *testing.T) {
		// Definition says dimmer, type says relay: the definition wins.
		node := &isy.Node{
			Address:   "p 1",
			Name:      "Mystery Device",
			Kind:      isy.KindDevice,
			NodeDefID: "DimmerLampSwitch",
			Type:      "2.44.68.0",
		}
		assertBucket(t, classifyOne(t, node), node.Address, CategoryLight)
	})

	t.Run("insteon type beats zwave category", func(t *testing.T) {
		node := &isy.Node{
			Address:        "p 2",
			Name:           "Mystery Device",
			Kind:           isy.KindDevice,
			Type:           "2.44.68.0",
			DeviceCategory: "111",
		}
		assertBucket(t, classifyOne(t, node), node.Address, CategorySwitch)
	})

	t.Run("zwave category beats uom", func(t *testing.T) {
		node := &isy.Node{
			Address:        "p 3",
			Name:           "Mystery Device",
			Kind:           isy.KindDevice,
			DeviceCategory: "111",
			UOM:            []string{"51"},
		}
		assertBucket(t, classifyOne(t, node), node.Address, CategoryLock)
	})

	t.Run("uom code beats state tokens", func(t *testing.T) {
		// 51 wins over the on/off token set equality never running.
		node := &isy.Node{
			Address: "p 4",
			Name:    "Mystery Device",
			Kind:    isy.KindDevice,
			UOM:     []string{"51"},
		}
		assertBucket(t, classifyOne(t, node), node.Address, CategoryLight)
	})

	t.Run("category order breaks signal ties", func(t *testing.T) {
		// uom 2 is claimed by switch and climate; switch comes first.
		node := &isy.Node{
			Address: "p 5",
			Name:    "Mystery Device",
			Kind:    isy.KindDevice,
			UOM:     []string{"2"},
		}
		assertBucket(t, classifyOne(t, node), node.Address, CategorySwitch)
	})
}

func TestClassifyNodes_SilentDrop(t *testing.T) {
	node := &isy.Node{
		Address: "d 1",
		Name:    "Unrecognisable Widget",
		Kind:    isy.KindDevice,
		UOM:     []string{"999"},
	}
	res := classifyOne(t, node)
	if got := bucketOf(res, node.Address); got != nil {
		t.Errorf("unmatched node landed in %v", got)
	}
	if res.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", res.NodeCount())
	}
}

func testDirectory() []*isy.Node {
	return []*isy.Node{
		{Address: "11 22 33 1", Name: "Bedroom Lamp", Kind: isy.KindDevice, NodeDefID: "DimmerLampSwitch", Type: "1.32.65.0", UOM: []string{"51"}},
		{Address: "22 33 44 1", Name: "Porch Switch", Kind: isy.KindDevice, Type: "2.44.68.0", UOM: []string{"on", "off"}},
		{Address: "33 44 55 1", Name: "FanLinc Light", Kind: isy.KindDevice, Type: "1.46.65.0"},
		{Address: "33 44 55 2", Name: "FanLinc Motor", Kind: isy.KindDevice, Type: "1.46.65.0"},
		{Address: "44 55 66 2", Name: "Thermostat Heat Call", Kind: isy.KindDevice, Type: "5.11.16.0"},
		{Address: "44 55 66 1", Name: "Thermostat", Kind: isy.KindDevice, Type: "5.11.16.0"},
		{Address: "ZW002_1", Name: "Front Door", Kind: isy.KindDevice, DeviceCategory: "111", UOM: []string{"11"}},
		{Address: "ZW003_1", Name: "Basement Leak sensor", Kind: isy.KindDevice, DeviceCategory: "118", UOM: []string{"2"}},
		{Address: "55 66 77 1", Name: "Garage Door {IGNORE ME}", Kind: isy.KindDevice, Type: "2.9.0.0"},
		{Address: "66 77 88 1", Name: "Mystery", Kind: isy.KindDevice, UOM: []string{"999"}},
		{Address: "23456", Name: "Evening Scene", Kind: isy.KindScene, Members: []string{"11 22 33 1"}},
	}
}

// TestClassifyNodes_Directory runs a mixed directory end to end.
func TestClassifyNodes_Directory(t *testing.T) {
	res := NewResult()
	newTestClassifier().ClassifyNodes(res, testDirectory())

	want := map[string]Category{
		"11 22 33 1": CategoryLight,
		"22 33 44 1": CategorySwitch,
		"33 44 55 1": CategoryLight,
		"33 44 55 2": CategoryFan,
		"44 55 66 2": CategoryBinarySensor,
		"44 55 66 1": CategoryClimate,
		"ZW002_1":    CategoryLock,
		"ZW003_1":    CategoryBinarySensor,
		"23456":      CategorySwitch,
	}
	for address, cat := range want {
		assertBucket(t, res, address, cat)
	}

	for _, address := range []string{"55 66 77 1", "66 77 88 1"} {
		if got := bucketOf(res, address); got != nil {
			t.Errorf("node %s should be dropped, found in %v", address, got)
		}
	}

	if res.NodeCount() != len(want) {
		t.Errorf("NodeCount() = %d, want %d", res.NodeCount(), len(want))
	}

	// The switch bucket keeps directory order: the relay before the
	// scene that follows it in the document.
	switches := res.Nodes[CategorySwitch]
	if len(switches) != 2 || switches[0].Address != "22 33 44 1" || switches[1].Address != "23456" {
		t.Errorf("switch bucket order = %v", addresses(switches))
	}
}

// TestClassifyNodes_Deterministic verifies two passes over the same
// directory produce identical buckets.
func TestClassifyNodes_Deterministic(t *testing.T) {
	first := NewResult()
	second := NewResult()
	c := newTestClassifier()

	c.ClassifyNodes(first, testDirectory())
	c.ClassifyNodes(second, testDirectory())

	for _, cat := range allCategories {
		if !reflect.DeepEqual(addresses(first.Nodes[cat]), addresses(second.Nodes[cat])) {
			t.Errorf("bucket %q differs between runs: %v vs %v",
				cat, addresses(first.Nodes[cat]), addresses(second.Nodes[cat]))
		}
	}
}

func addresses(nodes []*isy.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Address)
	}
	return out
}

func TestClassifyNodes_EmptyMarkersNeverMatch(t *testing.T) {
	c := New("", "", nil)
	res := NewResult()
	node := &isy.Node{Address: "11 22 33 1", Name: "Bedroom Lamp", Kind: isy.KindDevice, NodeDefID: "DimmerLampSwitch"}
	c.ClassifyNodes(res, []*isy.Node{node})
	assertBucket(t, res, node.Address, CategoryLight)
}

func TestNewResult_BucketsPreCreated(t *testing.T) {
	res := NewResult()
	for _, cat := range AllCategories() {
		if _, ok := res.Nodes[cat]; !ok {
			t.Errorf("node bucket %q missing", cat)
		}
	}
	for _, cat := range ProgramCategories() {
		if _, ok := res.Programs[cat]; !ok {
			t.Errorf("program bucket %q missing", cat)
		}
	}
	for _, cat := range VariableCategories() {
		if _, ok := res.Variables[cat]; !ok {
			t.Errorf("variable bucket %q missing", cat)
		}
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, cat := range AllCategories() {
		if !cat.Valid() {
			t.Errorf("Valid(%q) = false", cat)
		}
	}
	if Category("scene").Valid() {
		t.Error("Valid(scene) = true")
	}
	if Category("").Valid() {
		t.Error("Valid(\"\") = true")
	}
}
