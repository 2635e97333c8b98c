package triage

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var today = time.Date(2024, 6, 10, 18, 45, 0, 0, time.UTC)

func oid(n byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = n
	return id
}

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func km(v int64) *int64 { return &v }

func vehicle(n byte, mileage *int64) models.Vehicle {
	return models.Vehicle{ID: oid(100 + n), CurrentMileage: mileage}
}

func ids(records []models.Maintenance) []byte {
	out := make([]byte, len(records))
	for i, r := range records {
		out[i] = r.ID[11]
	}
	return out
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(today, *date("2024-06-10")))
	assert.Equal(t, 2, DaysBetween(today, *date("2024-06-12")))
	assert.Equal(t, -5, DaysBetween(today, *date("2024-06-05")))
	assert.Equal(t, 365, DaysBetween(*date("2023-06-10"), *date("2024-06-09")))
	// time of day is discarded on both sides
	late := time.Date(2024, 6, 11, 23, 59, 0, 0, time.UTC)
	early := time.Date(2024, 6, 12, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(late, early))
	// dates before the epoch
	assert.Equal(t, -1, DaysBetween(*date("1969-12-31"), *date("1969-12-30")))
}

func TestToday(t *testing.T) {
	athens := time.FixedZone("EEST", 3*60*60)
	// 23:30 UTC on the 9th is already the 10th in Athens
	got := Today(time.Date(2024, 6, 9, 23, 30, 0, 0, time.UTC).In(athens))
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, *date("2024-06-10"), Today(today))
}

func TestComputeStatus(t *testing.T) {
	v := vehicle(1, km(50200))
	noOdometer := vehicle(2, nil)

	tests := []struct {
		name    string
		record  models.Maintenance
		vehicle *models.Vehicle
		want    Status
	}{
		{"completed wins over overdue date", models.Maintenance{Status: models.MaintenanceCompleted, NextDate: date("2020-01-01")}, &v, StatusCompleted},
		{"completed wins without targets", models.Maintenance{Status: models.MaintenanceCompleted}, nil, StatusCompleted},
		{"date in the past", models.Maintenance{NextDate: date("2024-06-05"), Status: models.MaintenanceActive}, nil, StatusOverdue},
		{"date in two days", models.Maintenance{NextDate: date("2024-06-12")}, nil, StatusUpcoming},
		{"date today", models.Maintenance{NextDate: date("2024-06-10")}, nil, StatusUpcoming},
		{"date at horizon", models.Maintenance{NextDate: date("2024-06-17")}, nil, StatusUpcoming},
		{"date past horizon", models.Maintenance{NextDate: date("2024-06-18")}, nil, StatusPending},
		{"mileage exceeded", models.Maintenance{NextMileage: km(50000)}, &v, StatusOverdue},
		{"mileage within 500", models.Maintenance{NextMileage: km(50700)}, &v, StatusUpcoming},
		{"mileage exactly reached", models.Maintenance{NextMileage: km(50200)}, &v, StatusUpcoming},
		{"mileage far away", models.Maintenance{NextMileage: km(60000)}, &v, StatusPending},
		{"mileage without vehicle", models.Maintenance{NextMileage: km(50000)}, nil, StatusPending},
		{"mileage without odometer", models.Maintenance{NextMileage: km(50000)}, &noOdometer, StatusPending},
		{"far date but mileage exceeded", models.Maintenance{NextDate: date("2025-01-01"), NextMileage: km(50000)}, &v, StatusOverdue},
		{"no targets", models.Maintenance{Status: models.MaintenancePending}, &v, StatusOverdue},
		{"no targets and no vehicle", models.Maintenance{}, nil, StatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(&tt.record, tt.vehicle, today))
		})
	}
}

func TestComputeStatus_IgnoresNotificationDays(t *testing.T) {
	m := models.Maintenance{NextDate: date("2024-06-20"), NotificationDays: 30}
	assert.Equal(t, StatusPending, ComputeStatus(&m, nil, today))

	m = models.Maintenance{NextDate: date("2024-06-15"), NotificationDays: 1}
	assert.Equal(t, StatusUpcoming, ComputeStatus(&m, nil, today))
}

func TestSortForDisplay_Scenarios(t *testing.T) {
	v := vehicle(1, km(50200))
	vehicles := IndexVehicles([]models.Vehicle{v})

	a := models.Maintenance{ID: oid(1), VehicleID: v.ID.Hex(), NextDate: date("2024-06-05"), Status: models.MaintenanceActive}
	b := models.Maintenance{ID: oid(2), VehicleID: v.ID.Hex(), NextDate: date("2024-06-12")}
	c := models.Maintenance{ID: oid(3), VehicleID: v.ID.Hex(), NextMileage: km(50000)}

	t.Run("undated overdue record goes first", func(t *testing.T) {
		got := SortForDisplay([]models.Maintenance{a, b, c}, vehicles, today)
		assert.Equal(t, []byte{3, 1, 2}, ids(got))
	})

	t.Run("most recent completion first", func(t *testing.T) {
		e := models.Maintenance{ID: oid(5), Status: models.MaintenanceCompleted, CompletedDate: date("2024-05-01")}
		f := models.Maintenance{ID: oid(4), Status: models.MaintenanceCompleted, CompletedDate: date("2024-06-01")}
		got := SortForDisplay([]models.Maintenance{e, f}, vehicles, today)
		assert.Equal(t, []byte{4, 5}, ids(got))
	})
}

func TestSortForDisplay_WithinGroups(t *testing.T) {
	v := vehicle(1, km(10000))
	vehicles := IndexVehicles([]models.Vehicle{v})
	vid := v.ID.Hex()

	t.Run("overdue", func(t *testing.T) {
		records := []models.Maintenance{
			{ID: oid(1), NextDate: date("2024-06-08")},
			{ID: oid(2), NextDate: date("2024-05-01")},
			{ID: oid(3), VehicleID: vid, NextMileage: km(9900)},
			{ID: oid(4), VehicleID: vid, NextMileage: km(9000)},
			{ID: oid(5)},
			{ID: oid(6), NextDate: date("2024-06-08")},
		}
		got := SortForDisplay(records, vehicles, today)
		// no target before known deficits, deficits ascending, then days ascending with id desc on ties
		assert.Equal(t, []byte{5, 4, 3, 2, 6, 1}, ids(got))
	})

	t.Run("upcoming", func(t *testing.T) {
		records := []models.Maintenance{
			{ID: oid(1), NextDate: date("2024-06-15")},
			{ID: oid(2), NextDate: date("2024-06-11")},
			{ID: oid(3), VehicleID: vid, NextMileage: km(10400)},
			{ID: oid(4), VehicleID: vid, NextMileage: km(10100)},
			{ID: oid(5), NextDate: date("2024-06-11")},
		}
		got := SortForDisplay(records, vehicles, today)
		assert.Equal(t, []byte{5, 2, 1, 4, 3}, ids(got))
	})

	t.Run("overdue with one mileage deficit unknown", func(t *testing.T) {
		records := []models.Maintenance{
			{ID: oid(2), VehicleID: vid, NextMileage: km(9000)},
			{ID: oid(1)},
		}
		got := SortForDisplay(records, vehicles, today)
		// the id tie-break alone would put 2 first
		assert.Equal(t, []byte{1, 2}, ids(got))
	})

	t.Run("upcoming with one due day unknown", func(t *testing.T) {
		records := []models.Maintenance{
			{ID: oid(2), VehicleID: vid, NextMileage: km(10300)},
			{ID: oid(1), VehicleID: "missing", NextMileage: km(10300), NextDate: date("2024-06-16")},
		}
		got := SortForDisplay(records, vehicles, today)
		assert.Equal(t, []byte{1, 2}, ids(got))
	})

	t.Run("pending", func(t *testing.T) {
		records := []models.Maintenance{
			{ID: oid(1), NextDate: date("2024-09-01")},
			{ID: oid(2), NextDate: date("2024-12-01"), LastDate: date("2024-01-01")},
			{ID: oid(3), NextDate: date("2024-08-01"), LastDate: date("2024-03-01")},
			{ID: oid(4), VehicleID: "missing", NextMileage: km(90000)},
		}
		got := SortForDisplay(records, vehicles, today)
		// activity: 1→09-01 (next), 3→03-01, 2→01-01, 4 has none
		assert.Equal(t, []byte{1, 3, 2, 4}, ids(got))
	})

	t.Run("completed", func(t *testing.T) {
		records := []models.Maintenance{
			{ID: oid(1), Status: models.MaintenanceCompleted},
			{ID: oid(2), Status: models.MaintenanceCompleted, LastDate: date("2024-06-02")},
			{ID: oid(3), Status: models.MaintenanceCompleted, CompletedDate: date("2024-06-01"), LastDate: date("2024-06-09")},
			{ID: oid(4), Status: models.MaintenanceCompleted},
		}
		got := SortForDisplay(records, vehicles, today)
		assert.Equal(t, []byte{2, 3, 4, 1}, ids(got))
	})
}

func TestCompareDue_UnknownMileage(t *testing.T) {
	known := Item{Maintenance: models.Maintenance{ID: oid(1)}, KmUntilDue: km(-200)}
	unknown := Item{Maintenance: models.Maintenance{ID: oid(2)}}

	// overdue: unknown first
	assert.Equal(t, -1, compareDue(&unknown, &known, true))
	assert.Equal(t, 1, compareDue(&known, &unknown, true))

	// upcoming: unknown last
	known.KmUntilDue = km(200)
	assert.Equal(t, 1, compareDue(&unknown, &known, false))
	assert.Equal(t, -1, compareDue(&known, &unknown, false))
}

func TestSortForDisplay_Empty(t *testing.T) {
	assert.Empty(t, SortForDisplay(nil, nil, today))
	assert.Empty(t, SortForDisplay([]models.Maintenance{}, Vehicles{}, today))
}

func TestSortForDisplay_DoesNotMutateInput(t *testing.T) {
	records := []models.Maintenance{
		{ID: oid(1), Status: models.MaintenanceCompleted},
		{ID: oid(2)},
	}
	_ = SortForDisplay(records, nil, today)
	assert.Equal(t, []byte{1, 2}, ids(records))
}

// mixedFleet exercises every group and every tie-break path.
func mixedFleet() ([]models.Maintenance, Vehicles) {
	v1 := vehicle(1, km(50200))
	v2 := vehicle(2, nil)
	vehicles := IndexVehicles([]models.Vehicle{v1, v2})
	v1id, v2id := v1.ID.Hex(), v2.ID.Hex()

	records := []models.Maintenance{
		{ID: oid(1), VehicleID: v1id, NextDate: date("2024-06-05")},
		{ID: oid(2), VehicleID: v1id, NextDate: date("2024-06-12")},
		{ID: oid(3), VehicleID: v1id, NextMileage: km(50000)},
		{ID: oid(4), VehicleID: v2id},
		{ID: oid(5), VehicleID: v2id, NextMileage: km(1000)},
		{ID: oid(6), VehicleID: v1id, NextMileage: km(50600)},
		{ID: oid(7), VehicleID: v1id, NextDate: date("2024-08-01"), LastDate: date("2024-02-01")},
		{ID: oid(8), VehicleID: v1id, NextDate: date("2024-08-01")},
		{ID: oid(9), VehicleID: "gone", NextMileage: km(1)},
		{ID: oid(10), Status: models.MaintenanceCompleted, CompletedDate: date("2024-05-01")},
		{ID: oid(11), Status: models.MaintenanceCompleted, CompletedDate: date("2024-06-01")},
		{ID: oid(12), Status: models.MaintenanceCompleted},
		{ID: oid(13), VehicleID: v1id, NextDate: date("2024-06-05")},
		{ID: oid(14), VehicleID: v1id, NextMileage: km(49000)},
		{ID: oid(15), VehicleID: v1id, NextDate: date("2024-06-10")},
	}
	return records, vehicles
}

func TestSortForDisplay_GroupingInvariant(t *testing.T) {
	records, vehicles := mixedFleet()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		shuffled := append([]models.Maintenance(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		items := Rank(shuffled, vehicles, today)
		require.Len(t, items, len(records))
		for j := 1; j < len(items); j++ {
			assert.LessOrEqual(t, items[j-1].ComputedStatus.rank(), items[j].ComputedStatus.rank(),
				"group order broken at %d", j)
		}
	}
}

func TestSortForDisplay_DeterministicAcrossPermutations(t *testing.T) {
	records, vehicles := mixedFleet()
	want := ids(SortForDisplay(records, vehicles, today))
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		shuffled := append([]models.Maintenance(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, ids(SortForDisplay(shuffled, vehicles, today)))
	}
}

func TestSortForDisplay_Idempotent(t *testing.T) {
	records, vehicles := mixedFleet()
	once := SortForDisplay(records, vehicles, today)
	twice := SortForDisplay(once, vehicles, today)
	assert.Equal(t, ids(once), ids(twice))
}

func TestRank_Annotations(t *testing.T) {
	v := vehicle(1, km(50200))
	vehicles := IndexVehicles([]models.Vehicle{v})
	records := []models.Maintenance{
		{ID: oid(1), VehicleID: v.ID.Hex(), NextDate: date("2024-06-05"), NextMileage: km(50000)},
		{ID: oid(2), VehicleID: "unknown"},
	}

	items := Rank(records, vehicles, today)
	require.Len(t, items, 2)

	assert.Equal(t, oid(2), items[0].ID)
	assert.Nil(t, items[0].DaysUntilDue)
	assert.Nil(t, items[0].KmUntilDue)

	require.NotNil(t, items[1].DaysUntilDue)
	assert.Equal(t, -5, *items[1].DaysUntilDue)
	require.NotNil(t, items[1].KmUntilDue)
	assert.Equal(t, int64(-200), *items[1].KmUntilDue)
	assert.Equal(t, StatusOverdue, items[1].ComputedStatus)
}

func TestSummarize(t *testing.T) {
	records, vehicles := mixedFleet()
	s := Summarize(records, vehicles, today)

	assert.Equal(t, len(records), s.Total)
	assert.Equal(t, s.Total, s.Overdue+s.Upcoming+s.Pending+s.Completed)
	assert.Equal(t, 3, s.Completed)
	// 1, 3, 4, 13, 14
	assert.Equal(t, 5, s.Overdue)
	// 2, 6, 15
	assert.Equal(t, 3, s.Upcoming)
	// 5, 7, 8, 9
	assert.Equal(t, 4, s.Pending)

	assert.Equal(t, Summary{}, Summarize(nil, nil, today))
}

func TestStatus_IsValid(t *testing.T) {
	assert.True(t, StatusOverdue.IsValid())
	assert.True(t, StatusCompleted.IsValid())
	assert.False(t, Status("active").IsValid())
}
