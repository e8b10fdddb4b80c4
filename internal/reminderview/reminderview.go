// Package reminderview builds the reminder list shown to a user: it filters
// reminders by completion and due date, joins each with its plant, and orders
// the result overdue-first.
//
// Everything here is a pure function of its arguments. Inputs are never
// modified and the returned slices are freshly allocated.
package reminderview

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
)

// ErrInvalidFilter is returned for a filter outside the known set.
var ErrInvalidFilter = errors.New("invalid reminder filter")

// Filter selects which reminders a view contains.
type Filter string

const (
	All       Filter = "all"
	Upcoming  Filter = "upcoming"
	Overdue   Filter = "overdue"
	Completed Filter = "completed"
)

// Filters lists every valid filter in display order.
var Filters = []Filter{All, Upcoming, Overdue, Completed}

// ParseFilter validates s. It does not default: an empty or unknown value
// is an error.
func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if !f.valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return f, nil
}

func (f Filter) valid() bool {
	switch f {
	case All, Upcoming, Overdue, Completed:
		return true
	}
	return false
}

// Item is one row of the view.
type Item struct {
	Reminder models.Reminder `json:"reminder"`
	Plant    models.Plant    `json:"plant"`
}

// IsOverdue reports whether r is open and due before now.
func IsOverdue(r models.Reminder, now time.Time) bool {
	return !r.IsCompleted && r.DueDate.Before(now)
}

// IsUpcoming reports whether r is open and due at or after now.
func IsUpcoming(r models.Reminder, now time.Time) bool {
	return !r.IsCompleted && !r.DueDate.Before(now)
}

// Keep reports whether f admits r.
func (f Filter) Keep(r models.Reminder, now time.Time) bool {
	switch f {
	case All:
		return true
	case Upcoming:
		return IsUpcoming(r, now)
	case Overdue:
		return IsOverdue(r, now)
	case Completed:
		return r.IsCompleted
	}
	return false
}

// Build filters reminders with f, joins each survivor with its plant, and
// sorts the result with Compare. Reminders whose plant is not in plants are
// dropped. The sort is stable.
func Build(reminders []models.Reminder, plants []models.Plant, f Filter, now time.Time) ([]Item, error) {
	if !f.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, string(f))
	}

	byID := make(map[int64]int, len(plants))
	for i, p := range plants {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = i
		}
	}

	items := make([]Item, 0, len(reminders))
	for _, r := range reminders {
		if !f.Keep(r, now) {
			continue
		}
		i, ok := byID[r.PlantID]
		if !ok {
			continue
		}
		items = append(items, Item{Reminder: r, Plant: plants[i]})
	}

	slices.SortStableFunc(items, func(a, b Item) int {
		return Compare(a.Reminder, b.Reminder, now)
	})
	return items, nil
}

// Compare orders open reminders before completed ones, overdue before
// not-yet-due among open ones, then by ascending due date.
func Compare(a, b models.Reminder, now time.Time) int {
	return cmp.Or(
		compareBool(a.IsCompleted, b.IsCompleted),
		compareBool(!IsOverdue(a, now), !IsOverdue(b, now)),
		a.DueDate.Compare(b.DueDate.Time),
	)
}

// compareBool orders false before true.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

// Counts returns how many of reminders each filter admits. Plants are not
// consulted.
func Counts(reminders []models.Reminder, now time.Time) map[Filter]int {
	out := make(map[Filter]int, len(Filters))
	for _, f := range Filters {
		out[f] = 0
	}
	for _, r := range reminders {
		for _, f := range Filters {
			if f.Keep(r, now) {
				out[f]++
			}
		}
	}
	return out
}
