package classify

import (
	"testing"

	"github.com/elaw611/isy-bridge/internal/isy"
)

func TestClassifyVariables(t *testing.T) {
	dir := isy.NewVariableDirectory(
		&isy.Variable{ID: 5, Type: 1, Name: "porch_motion", Value: 1},
		&isy.Variable{ID: 3, Type: 2, Name: "house_mode", Value: 2},
	)

	t.Run("descriptors resolve against the directory", func(t *testing.T) {
		res := NewResult()
		newTestClassifier().ClassifyVariables(res, dir, CategorySensor, []VariableDescriptor{
			{ID: 3, Type: 2, Name: "House Mode"},
		})

		sensors := res.Variables[CategorySensor]
		if len(sensors) != 1 {
			t.Fatalf("sensor variables = %d, want 1", len(sensors))
		}
		if sensors[0].Name != "house_mode" {
			t.Errorf("Name = %q, want controller name house_mode", sensors[0].Name)
		}
		if sensors[0].Value == nil || sensors[0].Value.Value != 2 {
			t.Errorf("Value = %+v, want live variable with value 2", sensors[0].Value)
		}
		if sensors[0].Descriptor.Name != "House Mode" {
			t.Errorf("Descriptor.Name = %q, want House Mode", sensors[0].Descriptor.Name)
		}
	})

	t.Run("unresolved descriptor is skipped, siblings resolve", func(t *testing.T) {
		res := NewResult()
		newTestClassifier().ClassifyVariables(res, dir, CategoryBinarySensor, []VariableDescriptor{
			{ID: 99, Type: 1, Name: "Ghost"},
			{ID: 5, Type: 1, Name: "Porch Motion"},
		})

		sensors := res.Variables[CategoryBinarySensor]
		if len(sensors) != 1 {
			t.Fatalf("binary_sensor variables = %d, want 1 (unresolved sibling skipped)", len(sensors))
		}
		if sensors[0].Descriptor.ID != 5 || sensors[0].Descriptor.Type != 1 {
			t.Errorf("surviving descriptor = %+v, want 1.5", sensors[0].Descriptor)
		}
	})

	t.Run("type and id must both match", func(t *testing.T) {
		res := NewResult()
		newTestClassifier().ClassifyVariables(res, dir, CategorySwitch, []VariableDescriptor{
			{ID: 5, Type: 2, Name: "Wrong Type"},
		})

		if got := len(res.Variables[CategorySwitch]); got != 0 {
			t.Errorf("switch variables = %d, want 0", got)
		}
	})
}
