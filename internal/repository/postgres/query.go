package postgres

import (
	"fmt"
	"strings"

	"github.com/luckypig3400/NEC-Backend/internal/model"
)

// scheduleColumns maps the sortable schedule fields to their promoted columns.
var scheduleColumns = map[string]string{
	model.KeyID:            "id",
	model.KeyPatientID:     "patient_id",
	model.KeyReportID:      "report_id",
	model.KeyProcedureCode: "procedure_code",
	model.KeyStatus:        "status",
	model.KeyCreatedAt:     "created_at",
	model.KeyUpdatedAt:     "updated_at",
}

// scheduleWhere renders filter as a WHERE clause with positional arguments.
func scheduleWhere(filter *model.ScheduleFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var (
		conds []string
		args  []interface{}
	)
	if filter.DateRange != nil {
		args = append(args, filter.DateRange.From, filter.DateRange.To)
		conds = append(conds, fmt.Sprintf("created_at BETWEEN $%d AND $%d", len(args)-1, len(args)))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		conds = append(conds, fmt.Sprintf("(procedure_code ~ $%d OR patient_id ~ $%d)", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scheduleOrder renders ORDER BY, LIMIT and OFFSET. Unknown sort fields are
// rejected; NULLs sort first ascending, matching missing values elsewhere.
func scheduleOrder(opts *model.FindOptions, args []interface{}) (string, []interface{}, error) {
	if opts == nil {
		return " ORDER BY seq", args, nil
	}

	var b strings.Builder
	if opts.Sort == "" {
		b.WriteString(" ORDER BY seq")
	} else {
		col, ok := scheduleColumns[opts.Sort]
		if !ok {
			return "", nil, fmt.Errorf("unsupported sort field %q", opts.Sort)
		}
		if opts.Desc {
			fmt.Fprintf(&b, " ORDER BY %s DESC NULLS LAST, seq", col)
		} else {
			fmt.Fprintf(&b, " ORDER BY %s ASC NULLS FIRST, seq", col)
		}
	}

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if opts.Skip > 0 {
		args = append(args, opts.Skip)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args, nil
}
