package audit

import "time"

// TimelineFilters narrows the audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one recorded mutation.
type TimelineRow struct {
	At       time.Time
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
}

// PagingInfo is keyset-free paging metadata; HasNext is known from a
// one-row lookahead.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// FiltersViewModel echoes the filters back to the template.
type FiltersViewModel struct {
	From   time.Time
	To     time.Time
	Actor  string
	Entity string
	Action string
}

// ViewModel is the data for the audit page.
type ViewModel struct {
	Filters  FiltersViewModel
	Rows     []TimelineRow
	Paging   PagingInfo
	Entities []string
}

// FromInput formats From for a date input.
func (f FiltersViewModel) FromInput() string {
	return dateInput(f.From)
}

// ToInput formats To for a date input.
func (f FiltersViewModel) ToInput() string {
	return dateInput(f.To)
}

func dateInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
