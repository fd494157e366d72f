package service

import (
	"sort"
	"strings"
	"time"

	"swagly-backend/internal/features/analytics/models"
)

const (
	hourBucket = "2006-01-02T15:00:00"
	dayBucket  = "2006-01-02"
)

// span tracks the first and last timestamp of a group.
type span struct {
	first, last time.Time
}

func (s *span) add(t time.Time) {
	if s.first.IsZero() || t.Before(s.first) {
		s.first = t
	}
	if t.After(s.last) {
		s.last = t
	}
}

func (s span) bounds() (*time.Time, *time.Time) {
	if s.first.IsZero() {
		return nil, nil
	}
	first, last := s.first, s.last
	return &first, &last
}

// userKey groups wallet addresses case-insensitively.
func userKey(addr string) string {
	return strings.ToLower(addr)
}

type activityGroup struct {
	stats  models.ActivityStats
	users  map[string]struct{}
	hours  map[string]int
	window span
}

// activityStats groups events by activity, ordered by scan count.
func activityStats(events []models.ScanEvent) []models.ActivityStats {
	groups := map[string]*activityGroup{}
	var order []string

	for _, e := range events {
		g, ok := groups[e.ActivityID]
		if !ok {
			g = &activityGroup{
				stats: models.ActivityStats{ActivityID: e.ActivityID, ActivityName: e.ActivityName},
				users: map[string]struct{}{},
				hours: map[string]int{},
			}
			groups[e.ActivityID] = g
			order = append(order, e.ActivityID)
		}
		g.stats.TotalScans++
		g.stats.TotalTokensDistributed += e.TokensAwarded
		g.users[userKey(e.UserAddress)] = struct{}{}
		g.hours[e.Timestamp.UTC().Format(hourBucket)]++
		g.window.add(e.Timestamp)
	}

	out := make([]models.ActivityStats, 0, len(order))
	for _, id := range order {
		g := groups[id]
		st := g.stats
		st.UniqueUsers = len(g.users)
		st.AverageTokensPerScan = float64(st.TotalTokensDistributed) / float64(st.TotalScans)
		st.FirstScan, st.LastScan = g.window.bounds()

		st.ScansPerHour = make([]models.HourCount, 0, len(g.hours))
		for hour, n := range g.hours {
			st.ScansPerHour = append(st.ScansPerHour, models.HourCount{Hour: hour, Count: n})
		}
		sort.Slice(st.ScansPerHour, func(i, j int) bool { return st.ScansPerHour[i].Hour < st.ScansPerHour[j].Hour })
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScans > out[j].TotalScans })
	return out
}

type userGroup struct {
	stats      models.UserStats
	activities map[string]struct{}
	window     span
}

// userStats ranks users by tokens earned; ties keep first-seen order.
func userStats(events []models.ScanEvent, limit int) []models.UserStats {
	groups := map[string]*userGroup{}
	var order []string

	for _, e := range events {
		key := userKey(e.UserAddress)
		g, ok := groups[key]
		if !ok {
			g = &userGroup{
				stats:      models.UserStats{UserAddress: e.UserAddress, UserNickname: e.UserNickname},
				activities: map[string]struct{}{},
			}
			groups[key] = g
			order = append(order, key)
		}
		g.stats.TotalScans++
		g.stats.TotalTokensEarned += e.TokensAwarded
		g.activities[e.ActivityID] = struct{}{}
		g.window.add(e.Timestamp)
	}

	out := make([]models.UserStats, 0, len(order))
	for _, key := range order {
		g := groups[key]
		st := g.stats
		st.ActivitiesCompleted = len(g.activities)
		st.FirstActivity, st.LastActivity = g.window.bounds()
		out = append(out, st)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalTokensEarned > out[j].TotalTokensEarned })
	for i := range out {
		out[i].Rank = i + 1
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type eventGroup struct {
	stats      models.EventStats
	users      map[string]struct{}
	activities map[string]*models.ActivityCount
	actOrder   []string
	tokens     map[string]*models.TopUser
	userOrder  []string
	days       map[string]*dayGroup
}

type dayGroup struct {
	scans  int
	tokens int64
	users  map[string]struct{}
}

func (d *dayGroup) add(e models.ScanEvent) {
	d.scans++
	d.tokens += e.TokensAwarded
	d.users[userKey(e.UserAddress)] = struct{}{}
}

// eventStats groups events by event with top activities (5), top users (10)
// and a per-day timeline.
func eventStats(events []models.ScanEvent) []models.EventStats {
	groups := map[string]*eventGroup{}
	var order []string

	for _, e := range events {
		g, ok := groups[e.EventID]
		if !ok {
			g = &eventGroup{
				stats:      models.EventStats{EventID: e.EventID, EventName: e.EventName},
				users:      map[string]struct{}{},
				activities: map[string]*models.ActivityCount{},
				tokens:     map[string]*models.TopUser{},
				days:       map[string]*dayGroup{},
			}
			groups[e.EventID] = g
			order = append(order, e.EventID)
		}
		g.stats.TotalScans++
		g.stats.TotalTokensDistributed += e.TokensAwarded

		key := userKey(e.UserAddress)
		g.users[key] = struct{}{}

		act, ok := g.activities[e.ActivityID]
		if !ok {
			act = &models.ActivityCount{Name: e.ActivityName}
			g.activities[e.ActivityID] = act
			g.actOrder = append(g.actOrder, e.ActivityID)
		}
		act.Scans++

		u, ok := g.tokens[key]
		if !ok {
			u = &models.TopUser{Address: e.UserAddress, Nickname: e.UserNickname}
			g.tokens[key] = u
			g.userOrder = append(g.userOrder, key)
		}
		u.Tokens += e.TokensAwarded

		day := e.Timestamp.UTC().Format(dayBucket)
		d, ok := g.days[day]
		if !ok {
			d = &dayGroup{users: map[string]struct{}{}}
			g.days[day] = d
		}
		d.add(e)
	}

	out := make([]models.EventStats, 0, len(order))
	for _, id := range order {
		g := groups[id]
		st := g.stats
		st.TotalParticipants = len(g.users)
		st.ActivitiesCount = len(g.activities)

		st.TopActivities = make([]models.ActivityCount, 0, len(g.actOrder))
		for _, a := range g.actOrder {
			st.TopActivities = append(st.TopActivities, *g.activities[a])
		}
		sort.SliceStable(st.TopActivities, func(i, j int) bool { return st.TopActivities[i].Scans > st.TopActivities[j].Scans })
		st.TopActivities = head(st.TopActivities, 5)

		st.TopUsers = make([]models.TopUser, 0, len(g.userOrder))
		for _, u := range g.userOrder {
			st.TopUsers = append(st.TopUsers, *g.tokens[u])
		}
		sort.SliceStable(st.TopUsers, func(i, j int) bool { return st.TopUsers[i].Tokens > st.TopUsers[j].Tokens })
		st.TopUsers = head(st.TopUsers, 10)

		st.Timeline = make([]models.DayCount, 0, len(g.days))
		for day, d := range g.days {
			st.Timeline = append(st.Timeline, models.DayCount{Date: day, Scans: d.scans, Users: len(d.users)})
		}
		sort.Slice(st.Timeline, func(i, j int) bool { return st.Timeline[i].Date < st.Timeline[j].Date })

		out = append(out, st)
	}
	return out
}

// dashboard builds the overview. events must be ordered newest first.
func dashboard(events []models.ScanEvent, now time.Time) models.Dashboard {
	d := models.Dashboard{
		TotalScans:  len(events),
		RecentScans: head(events, 10),
		GeneratedAt: now.UTC(),
	}

	users := map[string]struct{}{}
	for _, e := range events {
		d.TotalTokens += e.TokensAwarded
		users[userKey(e.UserAddress)] = struct{}{}
	}
	d.TotalUsers = len(users)
	if d.TotalUsers > 0 {
		d.AverageScansPerUser = float64(d.TotalScans) / float64(d.TotalUsers)
	}

	acts := activityStats(events)
	d.TopActivities = make([]models.ActivitySummary, 0, 5)
	for _, a := range head(acts, 5) {
		d.TopActivities = append(d.TopActivities, models.ActivitySummary{
			Name:   a.ActivityName,
			Scans:  a.TotalScans,
			Tokens: a.TotalTokensDistributed,
		})
	}
	d.TopUsers = userStats(events, 5)

	type hourGroup struct {
		scans int
		users map[string]struct{}
	}
	var hours [24]hourGroup
	days := map[string]*dayGroup{}
	for _, e := range events {
		ts := e.Timestamp.UTC()
		h := &hours[ts.Hour()]
		if h.users == nil {
			h.users = map[string]struct{}{}
		}
		h.scans++
		h.users[userKey(e.UserAddress)] = struct{}{}

		day := ts.Format(dayBucket)
		dg, ok := days[day]
		if !ok {
			dg = &dayGroup{users: map[string]struct{}{}}
			days[day] = dg
		}
		dg.add(e)
	}

	d.HourlyActivity = make([]models.HourlyActivity, 24)
	for i, h := range hours {
		d.HourlyActivity[i] = models.HourlyActivity{
			Hour:  time.Date(0, 1, 1, i, 0, 0, 0, time.UTC).Format("15:04"),
			Scans: h.scans,
			Users: len(h.users),
		}
	}

	// Last seven calendar days, today included, with empty days kept.
	today := now.UTC().Truncate(24 * time.Hour)
	d.DailyTimeline = make([]models.DailyActivity, 0, 7)
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayBucket)
		entry := models.DailyActivity{Date: day}
		if dg, ok := days[day]; ok {
			entry.Scans = dg.scans
			entry.Users = len(dg.users)
			entry.Tokens = dg.tokens
		}
		d.DailyTimeline = append(d.DailyTimeline, entry)
	}
	return d
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
