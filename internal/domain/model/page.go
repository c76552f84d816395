package model

import "math"

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPageNumber keeps (Number-1)*MaxPageLimit within int.
	MaxPageNumber = math.MaxInt / MaxPageLimit
)

// Page selects a window of a listing. Page numbers start at 1.
type Page struct {
	Number int
	Limit  int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip for the normalized page.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Limit
}

// OrderPage is one page of orders plus the total match count.
type OrderPage struct {
	Orders []Order
	Page   Page
	Total  int
}

// Pages returns the number of pages for the total count.
func (p OrderPage) Pages() int {
	if p.Page.Limit <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.Page.Limit - 1) / p.Page.Limit
}
