package domain

import "time"

const dayLayout = "2006-01-02"

// Stats holds the running totals. Today* counters belong to the calendar
// date stored in LastReset.
type Stats struct {
	TotalSales    int              `json:"totalSales"`
	TodaySales    int              `json:"todaySales"`
	TotalOrders   int              `json:"totalOrders"`
	TodayOrders   int              `json:"todayOrders"`
	TotalLicenses int              `json:"totalLicenses"`
	TodayLicenses int              `json:"todayLicenses"`
	Revenue       map[TierCode]int `json:"revenue"`
	LastReset     string           `json:"lastReset"`
}

func NewStats(now time.Time) Stats {
	return Stats{Revenue: map[TierCode]int{}, LastReset: now.Format(dayLayout)}
}

// Rollover zeroes the Today* counters when now falls on a different date
// than LastReset. It returns true if a reset happened.
func (s *Stats) Rollover(now time.Time) bool {
	today := now.Format(dayLayout)
	if s.LastReset == today {
		return false
	}
	s.TodaySales = 0
	s.TodayOrders = 0
	s.TodayLicenses = 0
	s.LastReset = today
	return true
}

func (s *Stats) RecordOrder() {
	s.TotalOrders++
	s.TodayOrders++
}

func (s *Stats) RecordSale(tier TierCode, amount int) {
	s.TotalSales += amount
	s.TodaySales += amount
	if s.Revenue == nil {
		s.Revenue = map[TierCode]int{}
	}
	s.Revenue[tier] += amount
}

func (s *Stats) RecordLicense() {
	s.TotalLicenses++
	s.TodayLicenses++
}

func (s Stats) Clone() Stats {
	revenue := make(map[TierCode]int, len(s.Revenue))
	for k, v := range s.Revenue {
		revenue[k] = v
	}
	s.Revenue = revenue
	return s
}

// StatsSnapshot is the read-only projection served to the admin collaborator.
type StatsSnapshot struct {
	Stats        Stats   `json:"stats"`
	Orders       int     `json:"orders"`
	Licenses     int     `json:"licenses"`
	Payments     int     `json:"payments"`
	RecentOrders []Order `json:"recentOrders"`
}
