package model

// Category groups events for browsing and filtering (e.g. Concert,
// Workshop).  Categories are reference data seeded at startup.
//
// Fields:
//  ID          - primary key identifier.
//  Name        - unique category name.
//  Description - optional human-readable description.
type Category struct {
	ID          uint64 // categories.id
	Name        string // categories.name
	Description string // categories.description
}
