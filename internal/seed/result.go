// Package seed reconciles upstream football data into the entity store and
// orchestrates league imports.
package seed

import "fmt"

// Result tracks counts and per-team errors from an import.
type Result struct {
	CompetitionsCreated int
	TeamsCreated        int
	TeamsLinked         int
	PlayersCreated      int
	PlayersExisting     int
	CoachesCreated      int
	CoachesExisting     int
	PlaceholderCoaches  int
	MembersDropped      int
	Errors              []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.CompetitionsCreated += other.CompetitionsCreated
	r.TeamsCreated += other.TeamsCreated
	r.TeamsLinked += other.TeamsLinked
	r.PlayersCreated += other.PlayersCreated
	r.PlayersExisting += other.PlayersExisting
	r.CoachesCreated += other.CoachesCreated
	r.CoachesExisting += other.CoachesExisting
	r.PlaceholderCoaches += other.PlaceholderCoaches
	r.MembersDropped += other.MembersDropped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Summary returns a human-readable summary of the import.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"competitions=%d teams=%d links=%d players=%d/%d coaches=%d/%d placeholders=%d dropped=%d errors=%d",
		r.CompetitionsCreated, r.TeamsCreated, r.TeamsLinked,
		r.PlayersCreated, r.PlayersCreated+r.PlayersExisting,
		r.CoachesCreated, r.CoachesCreated+r.CoachesExisting,
		r.PlaceholderCoaches, r.MembersDropped,
		len(r.Errors),
	)
}
