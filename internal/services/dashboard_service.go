package services

import (
	"time"

	"github.com/visitorlog/visitorlog-backend/internal/models"
)

// visitorStats is the slice of the visitor repository the dashboard needs
type visitorStats interface {
	CountBetween(start, end time.Time) (int, error)
	CountInside() (int, error)
	CountSignedOut() (int, error)
	CountPerDay(start, end time.Time) ([]models.DayCount, error)
}

// roomVisitStats is the slice of the room visit repository the dashboard needs
type roomVisitStats interface {
	CountBetween(start, end time.Time) (int, error)
	TopRooms(limit int, start, end time.Time) ([]models.RoomCount, error)
}

// DashboardSummary is the headline block on the staff dashboard
type DashboardSummary struct {
	TotalVisitorsToday   int    `json:"total_visitors_today"`
	CurrentlyInside      int    `json:"currently_inside"`
	TotalRoomVisitsToday int    `json:"total_room_visits_today"`
	TopRoomToday         string `json:"top_room_today"`
}

// ChartData is a label/value series for dashboard charts
type ChartData struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// DashboardService aggregates visitor and room statistics
type DashboardService struct {
	visitors   visitorStats
	roomVisits roomVisitStats
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(visitors visitorStats, roomVisits roomVisitStats) *DashboardService {
	return &DashboardService{visitors: visitors, roomVisits: roomVisits}
}

// Summary returns today's headline numbers
func (s *DashboardService) Summary() (*DashboardSummary, error) {
	start := startOfDay(time.Now())
	end := start.AddDate(0, 0, 1)

	visitorsToday, err := s.visitors.CountBetween(start, end)
	if err != nil {
		return nil, err
	}

	inside, err := s.visitors.CountInside()
	if err != nil {
		return nil, err
	}

	roomVisitsToday, err := s.roomVisits.CountBetween(start, end)
	if err != nil {
		return nil, err
	}

	topRoom := "N/A"
	rooms, err := s.roomVisits.TopRooms(1, start, end)
	if err != nil {
		return nil, err
	}
	if len(rooms) > 0 {
		topRoom = rooms[0].RoomName
	}

	return &DashboardSummary{
		TotalVisitorsToday:  visitorsToday,
		CurrentlyInside:     inside,
		TotalRoomVisitsToday: roomVisitsToday,
		TopRoomToday:        topRoom,
	}, nil
}

// VisitorsPerDay returns a zero-filled daily series covering the last
// days calendar days, today included.
func (s *DashboardService) VisitorsPerDay(days int) (*ChartData, error) {
	if days <= 0 {
		days = 7
	}

	end := startOfDay(time.Now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	counts, err := s.visitors.CountPerDay(start, end)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Day.Format("2006-01-02")] = c.Count
	}

	chart := &ChartData{
		Labels: make([]string, 0, days),
		Data:   make([]int, 0, days),
	}
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		label := day.Format("2006-01-02")
		chart.Labels = append(chart.Labels, label)
		chart.Data = append(chart.Data, byDay[label])
	}

	return chart, nil
}

// VisitorStatus returns the inside / checked-out split
func (s *DashboardService) VisitorStatus() (*ChartData, error) {
	inside, err := s.visitors.CountInside()
	if err != nil {
		return nil, err
	}

	signedOut, err := s.visitors.CountSignedOut()
	if err != nil {
		return nil, err
	}

	return &ChartData{
		Labels: []string{"Inside", "Checked Out"},
		Data:   []int{inside, signedOut},
	}, nil
}

// TopRooms returns the busiest rooms over the last days calendar days
func (s *DashboardService) TopRooms(top, days int) (*ChartData, error) {
	if top <= 0 {
		top = 5
	}
	if days <= 0 {
		days = 7
	}

	end := startOfDay(time.Now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	rooms, err := s.roomVisits.TopRooms(top, start, end)
	if err != nil {
		return nil, err
	}

	chart := &ChartData{
		Labels: make([]string, 0, len(rooms)),
		Data:   make([]int, 0, len(rooms)),
	}
	for _, room := range rooms {
		chart.Labels = append(chart.Labels, room.RoomName)
		chart.Data = append(chart.Data, room.Count)
	}

	return chart, nil
}
