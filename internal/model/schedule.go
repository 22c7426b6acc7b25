package model

import (
	"time"

	"github.com/luckypig3400/NEC-Backend/pkg/document"
)

type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "pending"
	// ScheduleStatusAll is a query sentinel meaning "any time"; it is never stored.
	ScheduleStatusAll ScheduleStatus = "all"
)

// Schedule document keys.
const (
	KeyPatientID     = "patientID"
	KeyReportID      = "reportID"
	KeyProcedureCode = "procedureCode"
	KeyStatus        = "status"
	KeyPatient       = "patient"
	KeyReport        = "report"
)

// ScheduleFields are the top-level schedule keys every store can sort and page by.
var ScheduleFields = []string{
	KeyID,
	KeyPatientID,
	KeyReportID,
	KeyProcedureCode,
	KeyStatus,
	KeyCreatedAt,
	KeyUpdatedAt,
}

// IsScheduleField reports whether path names one of ScheduleFields.
func IsScheduleField(path string) bool {
	for _, f := range ScheduleFields {
		if f == path {
			return true
		}
	}
	return false
}

// Schedule links a patient to a procedure and, once read, to a report.
type Schedule struct {
	ID            string                 `json:"_id"`
	PatientID     string                 `json:"patientID"`
	ReportID      string                 `json:"reportID"`
	ProcedureCode string                 `json:"procedureCode"`
	Status        ScheduleStatus         `json:"status"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	Fields        map[string]interface{} `json:"-"`
}

func (s Schedule) known() map[string]interface{} {
	known := map[string]interface{}{
		KeyPatientID:     s.PatientID,
		KeyProcedureCode: s.ProcedureCode,
		KeyStatus:        s.Status,
	}
	if s.ID != "" {
		known[KeyID] = s.ID
	}
	if s.ReportID != "" {
		known[KeyReportID] = s.ReportID
	}
	if !s.CreatedAt.IsZero() {
		known[KeyCreatedAt] = s.CreatedAt
	}
	if !s.UpdatedAt.IsZero() {
		known[KeyUpdatedAt] = s.UpdatedAt
	}
	return known
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	return document.MarshalInline(s.known(), s.Fields)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var known struct {
		ID            string         `json:"_id"`
		PatientID     string         `json:"patientID"`
		ReportID      *string        `json:"reportID"`
		ProcedureCode string         `json:"procedureCode"`
		Status        ScheduleStatus `json:"status"`
		CreatedAt     *time.Time     `json:"createdAt"`
		UpdatedAt     *time.Time     `json:"updatedAt"`
	}
	extra, err := document.UnmarshalInline(data, &known,
		KeyID, KeyPatientID, KeyReportID, KeyProcedureCode, KeyStatus, KeyCreatedAt, KeyUpdatedAt)
	if err != nil {
		return err
	}

	*s = Schedule{
		ID:            known.ID,
		PatientID:     known.PatientID,
		ProcedureCode: known.ProcedureCode,
		Status:        known.Status,
		Fields:        extra,
	}
	if known.ReportID != nil {
		s.ReportID = *known.ReportID
	}
	if known.CreatedAt != nil {
		s.CreatedAt = *known.CreatedAt
	}
	if known.UpdatedAt != nil {
		s.UpdatedAt = *known.UpdatedAt
	}
	return nil
}

// Clone copies the schedule and its Fields map.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	c := *s
	if s.Fields != nil {
		c.Fields = make(map[string]interface{}, len(s.Fields))
		for k, v := range s.Fields {
			c.Fields[k] = v
		}
	}
	return &c
}

// ScheduleRow is a schedule denormalized with its patient and report.
type ScheduleRow struct {
	Schedule
	Patient *Patient
	Report  *Report
}

func (r ScheduleRow) MarshalJSON() ([]byte, error) {
	known := r.Schedule.known()
	if r.Patient != nil {
		known[KeyPatient] = r.Patient
	}
	if r.Report != nil {
		known[KeyReport] = r.Report
	}
	return document.MarshalInline(known, r.Schedule.Fields)
}

// DateRange is an inclusive createdAt window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies in [From, To].
func (d DateRange) Contains(t time.Time) bool {
	return !t.Before(d.From) && !t.After(d.To)
}

// ScheduleFilter is the store-level predicate of a schedule listing.
type ScheduleFilter struct {
	// DateRange nil means all time.
	DateRange *DateRange
	// Search is a regular expression matched against procedureCode or patientID;
	// empty imposes no constraint.
	Search string
}

// ScheduleListResult is a page of rows plus the total matching count.
type ScheduleListResult struct {
	Results []*ScheduleRow `json:"results"`
	Count   int64          `json:"count"`
}
