package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a provider-specific string map stored as jsonb.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// CropRect is a crop rectangle in percent of the source image.
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r CropRect) Valid() bool {
	in := func(v float64) bool { return v >= 0 && v <= 100 }
	return in(r.X) && in(r.Y) && in(r.Width) && in(r.Height) &&
		r.Width > 0 && r.Height > 0 &&
		r.X+r.Width <= 100 && r.Y+r.Height <= 100
}

// CropData maps photo id to its crop rectangle.
type CropData map[string]CropRect

func (c CropData) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

func (c *CropData) Scan(src interface{}) error {
	return scanJSON(src, c)
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
