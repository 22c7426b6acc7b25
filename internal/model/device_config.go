package model

import (
	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

// KeyWeight is the ordering field of a DeviceConfig.
const KeyWeight = "weight"

// DeviceConfig is one PACS connection entry. Besides its identifier and weight it
// carries arbitrary configuration fields, which are flattened into the same
// JSON object on the wire.
type DeviceConfig struct {
	ID     string                 `json:"_id"`
	Weight float64                `json:"weight"`
	Fields map[string]interface{} `json:"-"`
}

// DeviceConfigList is the sorted list response of the ordered-list manager.
type DeviceConfigList struct {
	Results []*DeviceConfig `json:"results"`
	Count   int64           `json:"count"`
}

func (d DeviceConfig) MarshalJSON() ([]byte, error) {
	known := map[string]interface{}{
		KeyWeight: d.Weight,
	}
	if d.ID != "" {
		known[KeyID] = d.ID
	}
	return document.MarshalInline(known, d.Fields)
}

func (d *DeviceConfig) UnmarshalJSON(data []byte) error {
	var known struct {
		ID     string  `json:"_id"`
		Weight float64 `json:"weight"`
	}
	extra, err := document.UnmarshalInline(data, &known, KeyID, KeyWeight)
	if err != nil {
		return err
	}
	d.ID = known.ID
	d.Weight = known.Weight
	d.Fields = extra
	return nil
}

// Clone returns a deep enough copy for store isolation: the Fields map is copied,
// nested values are shared.
func (d *DeviceConfig) Clone() *DeviceConfig {
	if d == nil {
		return nil
	}
	c := *d
	if d.Fields != nil {
		c.Fields = make(map[string]interface{}, len(d.Fields))
		for k, v := range d.Fields {
			c.Fields[k] = v
		}
	}
	return &c
}
