package loader

import (
	"encoding/json"
	"fmt"
)

// Manifest describes a multi-part model: one binary blob holding several
// CTM files, and the materials the parts are drawn with.
type Manifest struct {
	Materials []Material `json:"materials"`
	Data      string     `json:"data"`
	Offsets   []int      `json:"offsets"`
}

// Material is a material descriptor from a parts manifest. Only the common
// fields are decoded; Raw keeps the full object for callers that need more.
type Material struct {
	Name          string     `json:"DbgName,omitempty"`
	Shading       string     `json:"shading,omitempty"`
	ColorDiffuse  []float32  `json:"colorDiffuse,omitempty"`
	ColorAmbient  []float32  `json:"colorAmbient,omitempty"`
	ColorSpecular []float32  `json:"colorSpecular,omitempty"`
	SpecularCoef  float32    `json:"specularCoef,omitempty"`
	Transparency  *float32   `json:"transparency,omitempty"`
	Transparent   bool       `json:"transparent,omitempty"`
	VertexColors  bool       `json:"vertexColors,omitempty"`
	MapDiffuse    string     `json:"mapDiffuse,omitempty"`
	MapNormal     string     `json:"mapNormal,omitempty"`
	MapSpecular   string     `json:"mapSpecular,omitempty"`
	Raw           RawMessage `json:"-"`

	// Resolved against the manifest location by LoadParts.
	MapDiffuseURL string `json:"-"`
	MapNormalURL  string `json:"-"`
}

// RawMessage is the undecoded JSON of a material.
type RawMessage = json.RawMessage

func (m *Material) UnmarshalJSON(data []byte) error {
	type plain Material
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Material(p)
	m.Raw = append(RawMessage(nil), data...)
	return nil
}

// ParseManifest decodes and validates a parts manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if m.Data == "" {
		return nil, fmt.Errorf("%w: missing data path", ErrManifest)
	}
	if len(m.Offsets) == 0 {
		m.Offsets = []int{0}
	}
	for i, off := range m.Offsets {
		if off < 0 {
			return nil, fmt.Errorf("%w: offset %d is negative (%d)", ErrManifest, i, off)
		}
	}
	return &m, nil
}
