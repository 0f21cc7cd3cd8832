package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

type stubVisitorStats struct {
	between   int
	inside    int
	signedOut int
	perDay    []models.DayCount
}

func (s *stubVisitorStats) CountBetween(start, end time.Time) (int, error) { return s.between, nil }
func (s *stubVisitorStats) CountInside() (int, error)                      { return s.inside, nil }
func (s *stubVisitorStats) CountSignedOut() (int, error)                   { return s.signedOut, nil }
func (s *stubVisitorStats) CountPerDay(start, end time.Time) ([]models.DayCount, error) {
	return s.perDay, nil
}

type stubRoomVisitStats struct {
	between   int
	topRooms  []models.RoomCount
	lastLimit int
}

func (s *stubRoomVisitStats) CountBetween(start, end time.Time) (int, error) { return s.between, nil }
func (s *stubRoomVisitStats) TopRooms(limit int, start, end time.Time) ([]models.RoomCount, error) {
	s.lastLimit = limit
	if limit < len(s.topRooms) {
		return s.topRooms[:limit], nil
	}
	return s.topRooms, nil
}

func TestDashboardService_Summary(t *testing.T) {
	t.Run("With activity", func(t *testing.T) {
		svc := NewDashboardService(
			&stubVisitorStats{between: 12, inside: 4},
			&stubRoomVisitStats{between: 20, topRooms: []models.RoomCount{
				{RoomName: "Conference Room", Count: 9},
				{RoomName: "Lab 2", Count: 5},
			}},
		)

		summary, err := svc.Summary()
		require.NoError(t, err)
		assert.Equal(t, 12, summary.TotalVisitorsToday)
		assert.Equal(t, 4, summary.CurrentlyInside)
		assert.Equal(t, 20, summary.TotalRoomVisitsToday)
		assert.Equal(t, "Conference Room", summary.TopRoomToday)
	})

	t.Run("Quiet day", func(t *testing.T) {
		svc := NewDashboardService(&stubVisitorStats{}, &stubRoomVisitStats{})

		summary, err := svc.Summary()
		require.NoError(t, err)
		assert.Zero(t, summary.TotalVisitorsToday)
		assert.Equal(t, "N/A", summary.TopRoomToday)
	})
}

func TestDashboardService_VisitorsPerDay(t *testing.T) {
	today := startOfDay(time.Now())
	stats := &stubVisitorStats{perDay: []models.DayCount{
		{Day: today.AddDate(0, 0, -2), Count: 3},
		{Day: today, Count: 7},
	}}
	svc := NewDashboardService(stats, &stubRoomVisitStats{})

	chart, err := svc.VisitorsPerDay(7)
	require.NoError(t, err)

	require.Len(t, chart.Labels, 7)
	require.Len(t, chart.Data, 7)

	assert.Equal(t, today.AddDate(0, 0, -6).Format("2006-01-02"), chart.Labels[0])
	assert.Equal(t, today.Format("2006-01-02"), chart.Labels[6])

	// Days with no arrivals stay in the series as zeros.
	assert.Equal(t, []int{0, 0, 0, 0, 3, 0, 7}, chart.Data)
}

func TestDashboardService_VisitorsPerDayDefault(t *testing.T) {
	svc := NewDashboardService(&stubVisitorStats{}, &stubRoomVisitStats{})

	chart, err := svc.VisitorsPerDay(0)
	require.NoError(t, err)
	assert.Len(t, chart.Labels, 7)
}

func TestDashboardService_VisitorStatus(t *testing.T) {
	svc := NewDashboardService(&stubVisitorStats{inside: 3, signedOut: 11}, &stubRoomVisitStats{})

	chart, err := svc.VisitorStatus()
	require.NoError(t, err)
	assert.Equal(t, []string{"Inside", "Checked Out"}, chart.Labels)
	assert.Equal(t, []int{3, 11}, chart.Data)
}

func TestDashboardService_TopRooms(t *testing.T) {
	rooms := &stubRoomVisitStats{topRooms: []models.RoomCount{
		{RoomName: "Conference Room", Count: 9},
		{RoomName: "Lab 2", Count: 5},
		{RoomName: "Main Office", Count: 2},
	}}
	svc := NewDashboardService(&stubVisitorStats{}, rooms)

	t.Run("Explicit limit", func(t *testing.T) {
		chart, err := svc.TopRooms(2, 30)
		require.NoError(t, err)
		assert.Equal(t, []string{"Conference Room", "Lab 2"}, chart.Labels)
		assert.Equal(t, []int{9, 5}, chart.Data)
	})

	t.Run("Defaults", func(t *testing.T) {
		_, err := svc.TopRooms(0, 0)
		require.NoError(t, err)
		assert.Equal(t, 5, rooms.lastLimit)
	})
}
