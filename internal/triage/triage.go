// Package triage derives the display status of maintenance records and
// orders them by urgency.
//
// Everything here is a pure function of its arguments. The current day is
// always supplied by the caller.
package triage

import (
	"bytes"
	"cmp"
	"slices"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Status is the computed display status of a maintenance record.
type Status string

const (
	StatusOverdue   Status = "overdue"
	StatusUpcoming  Status = "upcoming"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

const (
	// UpcomingDays is the date horizon for StatusUpcoming. It does not follow
	// the per-record notification lead time, which only drives reminders.
	UpcomingDays = 7
	// UpcomingKm is the mileage horizon for StatusUpcoming.
	UpcomingKm = 500
)

// IsValid reports whether s is one of the computed statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusOverdue, StatusUpcoming, StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) rank() int {
	switch s {
	case StatusOverdue:
		return 0
	case StatusUpcoming:
		return 1
	case StatusPending:
		return 2
	default:
		return 3
	}
}

// VehicleLookup resolves the vehicle a record belongs to. A miss returns nil.
type VehicleLookup interface {
	Vehicle(id string) *models.Vehicle
}

// Vehicles is an in-memory VehicleLookup keyed by hex id.
type Vehicles map[string]*models.Vehicle

// Vehicle implements VehicleLookup.
func (v Vehicles) Vehicle(id string) *models.Vehicle {
	return v[id]
}

// IndexVehicles builds a lookup over an already fetched vehicle list.
func IndexVehicles(vehicles []models.Vehicle) Vehicles {
	index := make(Vehicles, len(vehicles))
	for i := range vehicles {
		index[vehicles[i].ID.Hex()] = &vehicles[i]
	}
	return index
}

// DaysBetween returns the number of calendar days from one day to another,
// ignoring time of day. Positive means to is in the future.
func DaysBetween(from, to time.Time) int {
	return dayNumber(to) - dayNumber(from)
}

// Today returns the calendar day of t, in t's location, as UTC midnight.
// Stored dates use the same representation.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayNumber(t time.Time) int {
	return int(Today(t).Unix() / 86400)
}

// KmUntilDue is the distance left before the mileage target. It is only
// known when the record has a target and the vehicle reports its odometer.
func KmUntilDue(m *models.Maintenance, v *models.Vehicle) (int64, bool) {
	if m.NextMileage == nil || v == nil || v.CurrentMileage == nil {
		return 0, false
	}
	return *m.NextMileage - *v.CurrentMileage, true
}

// DaysUntilDue is DaysBetween(today, NextDate) when the record has a date target.
func DaysUntilDue(m *models.Maintenance, today time.Time) (int, bool) {
	if m.NextDate == nil {
		return 0, false
	}
	return DaysBetween(today, *m.NextDate), true
}

// ComputeStatus classifies a record. v may be nil.
func ComputeStatus(m *models.Maintenance, v *models.Vehicle, today time.Time) Status {
	if m.IsCompleted() {
		return StatusCompleted
	}

	if days, ok := DaysUntilDue(m, today); ok {
		if days < 0 {
			return StatusOverdue
		}
		if days <= UpcomingDays {
			return StatusUpcoming
		}
	}

	if gap, ok := KmUntilDue(m, v); ok {
		if gap < 0 {
			return StatusOverdue
		}
		if gap <= UpcomingKm {
			return StatusUpcoming
		}
	}

	// A record without any target is treated as already due.
	if m.NextDate == nil && m.NextMileage == nil {
		return StatusOverdue
	}

	return StatusPending
}

// Item is a record annotated with everything the ordering looked at.
type Item struct {
	models.Maintenance
	ComputedStatus Status `json:"computed_status"`
	DaysUntilDue   *int   `json:"days_until_due,omitempty"`
	KmUntilDue     *int64 `json:"km_until_due,omitempty"`
}

// Rank computes the status of every record and returns them in display
// order. The input slice is left untouched.
func Rank(records []models.Maintenance, vehicles VehicleLookup, today time.Time) []Item {
	items := make([]Item, len(records))
	for i := range records {
		m := records[i]
		var v *models.Vehicle
		if vehicles != nil {
			v = vehicles.Vehicle(m.VehicleID)
		}
		items[i] = Item{Maintenance: m, ComputedStatus: ComputeStatus(&m, v, today)}
		if days, ok := DaysUntilDue(&m, today); ok {
			items[i].DaysUntilDue = &days
		}
		if gap, ok := KmUntilDue(&m, v); ok {
			items[i].KmUntilDue = &gap
		}
	}

	slices.SortStableFunc(items, compareItems)
	return items
}

// SortForDisplay returns the records ordered overdue, upcoming, pending,
// completed, each group by urgency or recency, ties broken by newest id.
func SortForDisplay(records []models.Maintenance, vehicles VehicleLookup, today time.Time) []models.Maintenance {
	items := Rank(records, vehicles, today)
	out := make([]models.Maintenance, len(items))
	for i := range items {
		out[i] = items[i].Maintenance
	}
	return out
}

func compareItems(a, b Item) int {
	if c := cmp.Compare(a.ComputedStatus.rank(), b.ComputedStatus.rank()); c != 0 {
		return c
	}

	var c int
	switch a.ComputedStatus {
	case StatusOverdue:
		c = compareDue(&a, &b, true)
	case StatusUpcoming:
		c = compareDue(&a, &b, false)
	case StatusPending:
		c = compareRecent(lastActivity(&a.Maintenance), lastActivity(&b.Maintenance))
	case StatusCompleted:
		c = compareRecent(completion(&a.Maintenance), completion(&b.Maintenance))
	}
	if c != 0 {
		return c
	}

	// ObjectIDs grow with creation time: newest first.
	return bytes.Compare(b.ID[:], a.ID[:])
}

// compareDue orders by days left, then by kilometres left. A side where the
// value is unknown goes first when unknownFirst is set and last otherwise.
func compareDue(a, b *Item, unknownFirst bool) int {
	if c, decided := compareOptional(a.DaysUntilDue, b.DaysUntilDue, unknownFirst); decided {
		return c
	}
	c, _ := compareOptional(a.KmUntilDue, b.KmUntilDue, unknownFirst)
	return c
}

// compareOptional compares two optional values ascending. decided is false
// only when both are missing.
func compareOptional[T cmp.Ordered](a, b *T, unknownFirst bool) (c int, decided bool) {
	switch {
	case a != nil && b != nil:
		return cmp.Compare(*a, *b), true
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		if unknownFirst {
			return -1, true
		}
		return 1, true
	default:
		if unknownFirst {
			return 1, true
		}
		return -1, true
	}
}

// compareRecent puts the more recent day first and missing days last.
func compareRecent(a, b *time.Time) int {
	switch {
	case a != nil && b != nil:
		return cmp.Compare(dayNumber(*b), dayNumber(*a))
	case a != nil:
		return -1
	case b != nil:
		return 1
	default:
		return 0
	}
}

func lastActivity(m *models.Maintenance) *time.Time {
	switch {
	case m.LastDate != nil:
		return m.LastDate
	case m.NextDate != nil:
		return m.NextDate
	default:
		return m.CompletedDate
	}
}

func completion(m *models.Maintenance) *time.Time {
	if m.CompletedDate != nil {
		return m.CompletedDate
	}
	return m.LastDate
}

// Summary holds the per-status counts shown on the dashboard cards.
type Summary struct {
	Total     int `json:"total"`
	Overdue   int `json:"overdue"`
	Upcoming  int `json:"upcoming"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

// Summarize counts records by computed status.
func Summarize(records []models.Maintenance, vehicles VehicleLookup, today time.Time) Summary {
	s := Summary{Total: len(records)}
	for i := range records {
		var v *models.Vehicle
		if vehicles != nil {
			v = vehicles.Vehicle(records[i].VehicleID)
		}
		switch ComputeStatus(&records[i], v, today) {
		case StatusOverdue:
			s.Overdue++
		case StatusUpcoming:
			s.Upcoming++
		case StatusPending:
			s.Pending++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s
}
