// Package provider defines the canonical payload types that upstream
// handlers decode into, the error taxonomy shared by provider clients, and
// the rate-limit retry wrapper.
//
// These structs are the contract between provider clients and the
// reconciliation engine: clients output these, the seed package writes them.
package provider

import "context"

// Getter fetches a raw JSON document for an upstream path.
type Getter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// Competition is the canonical competition metadata payload.
type Competition struct {
	Name     string
	Code     string
	AreaName string
}

// Team is the canonical team payload from a competition's team list.
// ExternalID is only used to address the squad endpoint and is never
// persisted.
type Team struct {
	ExternalID int
	Name       string
	TLA        string
	ShortName  string
	AreaName   string
	Address    string
}

// Person is a squad member or a coach.
type Person struct {
	Name        string
	Role        string // empty when the upstream record has no role
	Position    string
	DateOfBirth string // "YYYY-MM-DD" or empty
	Nationality string
}

// Squad is the per-team payload: the optional head coach plus the member
// list in upstream order.
type Squad struct {
	Coach   *Person
	Members []Person
}
