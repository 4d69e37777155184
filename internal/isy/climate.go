package isy

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// Climate holds the weather module measurements as a flat attribute map.
//
// Each measurement element becomes a lowercased value attribute, and its
// unit (when the controller reports one) becomes a sibling attribute with
// the "_units" suffix. A measurement without a reported unit therefore
// has no "_units" sibling, which is how the weather classifier decides
// what to model.
type Climate struct {
	attrs map[string]string
	order []string
}

// Has reports whether the named attribute is present.
func (c *Climate) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.attrs[name]
	return ok
}

// Get returns the named attribute value ("" if absent).
func (c *Climate) Get(name string) string {
	if c == nil {
		return ""
	}
	return c.attrs[name]
}

// Attributes returns the value attribute names in controller order,
// excluding the "_units" siblings.
func (c *Climate) Attributes() []string {
	if c == nil {
		return nil
	}
	return c.order
}

// Measurement is one weather measurement for assembling Climate data.
type Measurement struct {
	Name  string
	Value string
	Unit  string
}

// NewClimate builds climate data from measurements in the given order.
// Names are lowercased and the first occurrence of a name wins; a
// non-empty unit adds the "_units" sibling attribute.
func NewClimate(measurements ...Measurement) *Climate {
	climate := &Climate{
		attrs: make(map[string]string, len(measurements)*2),
		order: make([]string, 0, len(measurements)),
	}
	for _, m := range measurements {
		name := strings.ToLower(m.Name)
		if _, seen := climate.attrs[name]; seen {
			continue
		}
		climate.attrs[name] = strings.TrimSpace(m.Value)
		climate.order = append(climate.order, name)
		if m.Unit != "" {
			climate.attrs[name+"_units"] = m.Unit
		}
	}
	return climate
}

// Climate fetches the weather module measurements. Callers should gate
// this on Configuration().HasFeature(FeatureWeatherInformation); the
// endpoint answers with an empty document when the module is missing.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *Climate: Paired value/unit attributes
//   - error: nil on success, otherwise the fetch or decode error
func (c *Client) Climate(ctx context.Context) (*Climate, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	var doc climateXML
	if err := c.get(ctx, "/rest/climate", &doc); err != nil {
		return nil, fmt.Errorf("fetching climate data: %w", err)
	}

	measurements := make([]Measurement, 0, len(doc.Measurements))
	for _, m := range doc.Measurements {
		measurements = append(measurements, Measurement{
			Name:  m.XMLName.Local,
			Value: m.Value,
			Unit:  m.Unit,
		})
	}
	climate := NewClimate(measurements...)

	c.logInfo("fetched climate data", "measurements", len(climate.Attributes()))

	return climate, nil
}

// climateXML captures /rest/climate generically: every child element is
// one measurement, with an optional unit attribute.
type climateXML struct {
	XMLName      xml.Name         `xml:"climate"`
	Measurements []measurementXML `xml:",any"`
}

type measurementXML struct {
	XMLName xml.Name
	Unit    string `xml:"unit,attr"`
	Value   string `xml:",chardata"`
}
