// Package query translates caller-supplied listing parameters into a
// validated plan. Sort fields are resolved against an allow-list so no
// caller-controlled identifier ever reaches the query engine.
package query

import "strings"

// Sortable columns for prompt generation listings.
const (
	ColumnCreatedAt       = "created_at"
	ColumnUpdatedAt       = "updated_at"
	ColumnGeneratedPrompt = "generated_prompt"
)

const (
	// DefaultPerPage matches the original listing page size.
	DefaultPerPage = 10

	// MaxPerPage caps caller-controlled page sizes.
	MaxPerPage = 100
)

// sortable maps an allowed sort field name to its column constant.
// Values are the package constants above, never the raw input.
var sortable = map[string]string{
	"created_at":       ColumnCreatedAt,
	"updated_at":       ColumnUpdatedAt,
	"generated_prompt": ColumnGeneratedPrompt,
}

// ListParams carries the raw, untrusted query parameters of a listing
// request.
type ListParams struct {
	Search  string
	Sort    string
	Page    int
	PerPage int
}

// Plan is a validated listing query plan. OrderColumn is always one of
// the Column constants.
type Plan struct {
	Search      string
	OrderColumn string
	Desc        bool
	Page        int
	PerPage     int
}

// Build validates params into a Plan. A bare field name sorts
// ascending, a "-" prefix descending; unknown or absent fields fall
// back to created_at descending.
func Build(params ListParams) Plan {
	plan := Plan{
		Search:      strings.TrimSpace(params.Search),
		OrderColumn: ColumnCreatedAt,
		Desc:        true,
		Page:        params.Page,
		PerPage:     params.PerPage,
	}

	field := strings.TrimSpace(params.Sort)
	desc := false
	if strings.HasPrefix(field, "-") {
		desc = true
		field = field[1:]
	}
	if column, ok := sortable[field]; ok {
		plan.OrderColumn = column
		plan.Desc = desc
	}

	if plan.Page < 1 {
		plan.Page = 1
	}
	if plan.PerPage < 1 {
		plan.PerPage = DefaultPerPage
	}
	if plan.PerPage > MaxPerPage {
		plan.PerPage = MaxPerPage
	}

	return plan
}

// Offset returns the row offset for the plan's page.
func (p Plan) Offset() int {
	return (p.Page - 1) * p.PerPage
}
