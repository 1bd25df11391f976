package types

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Page carries page/limit values from the HTTP layer to stores.
// Number is 1-indexed.
type Page struct {
	Number int
	Limit  int
}

// NewPage applies defaults (page 1, limit 20) and caps the limit at 100.
func NewPage(number, limit int) Page {
	p := Page{Number: 1, Limit: defaultPageLimit}
	if number >= 1 {
		p.Number = number
	}
	if limit >= 1 {
		p.Limit = limit
		if p.Limit > maxPageLimit {
			p.Limit = maxPageLimit
		}
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// HasNext reports whether rows remain after this page given the total count.
func (p Page) HasNext(total int) bool {
	return p.Offset()+p.Limit < total
}
