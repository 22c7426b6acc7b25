package model

import (
	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

// KeyPatientKey is the business identifier of a patient, the schedule join key.
const KeyPatientKey = "id"

// Patient is only read by this service, as the target of the schedule join.
type Patient struct {
	ObjectID string                 `json:"_id,omitempty"`
	ID       string                 `json:"id"`
	Fields   map[string]interface{} `json:"-"`
}

func (p Patient) MarshalJSON() ([]byte, error) {
	known := map[string]interface{}{
		KeyPatientKey: p.ID,
	}
	if p.ObjectID != "" {
		known[KeyID] = p.ObjectID
	}
	return document.MarshalInline(known, p.Fields)
}

func (p *Patient) UnmarshalJSON(data []byte) error {
	var known struct {
		ObjectID string `json:"_id"`
		ID       string `json:"id"`
	}
	extra, err := document.UnmarshalInline(data, &known, KeyID, KeyPatientKey)
	if err != nil {
		return err
	}
	*p = Patient{ObjectID: known.ObjectID, ID: known.ID, Fields: extra}
	return nil
}
