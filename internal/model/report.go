package model

import (
	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

// Report is the outcome of a schedule. This service joins and cascades deletes
// to reports but never edits them.
type Report struct {
	ID     string                 `json:"_id"`
	Status string                 `json:"status"`
	Fields map[string]interface{} `json:"-"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	known := map[string]interface{}{
		KeyStatus: r.Status,
	}
	if r.ID != "" {
		known[KeyID] = r.ID
	}
	return document.MarshalInline(known, r.Fields)
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var known struct {
		ID     string `json:"_id"`
		Status string `json:"status"`
	}
	extra, err := document.UnmarshalInline(data, &known, KeyID, KeyStatus)
	if err != nil {
		return err
	}
	*r = Report{ID: known.ID, Status: known.Status, Fields: extra}
	return nil
}
