package models

import "time"

// ScanTypeNFC is the only scan type the scans table records today.
const ScanTypeNFC = "nfc"

const (
	OrderByTimestamp     = "timestamp"
	OrderByTokensAwarded = "tokensAwarded"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ScanEvent is one scan joined with its user, activity and event.
type ScanEvent struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	UserAddress   string    `json:"userAddress"`
	UserNickname  *string   `json:"userNickname"`
	ActivityID    string    `json:"activityId"`
	ActivityName  string    `json:"activityName"`
	EventID       string    `json:"eventId"`
	EventName     string    `json:"eventName"`
	TokensAwarded int64     `json:"tokensAwarded"`
	ScanType      string    `json:"scanType"`
}

// ScanQuery selects scan events. Empty filters match everything; a First of
// zero means no limit.
type ScanQuery struct {
	First          int
	Skip           int
	OrderBy        string
	OrderDirection string

	UserAddress string
	ActivityID  string
	EventID     string
	From        *time.Time
	To          *time.Time
}

type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

type ActivityStats struct {
	ActivityID             string      `json:"activityId"`
	ActivityName           string      `json:"activityName"`
	TotalScans             int         `json:"totalScans"`
	UniqueUsers            int         `json:"uniqueUsers"`
	TotalTokensDistributed int64       `json:"totalTokensDistributed"`
	AverageTokensPerScan   float64     `json:"averageTokensPerScan"`
	FirstScan              *time.Time  `json:"firstScan"`
	LastScan               *time.Time  `json:"lastScan"`
	ScansPerHour           []HourCount `json:"scansPerHour"`
}

type UserStats struct {
	UserAddress         string     `json:"userAddress"`
	UserNickname        *string    `json:"userNickname"`
	TotalScans          int        `json:"totalScans"`
	TotalTokensEarned   int64      `json:"totalTokensEarned"`
	ActivitiesCompleted int        `json:"activitiesCompleted"`
	FirstActivity       *time.Time `json:"firstActivity"`
	LastActivity        *time.Time `json:"lastActivity"`
	Rank                int        `json:"rank"`
}

type ActivityCount struct {
	Name  string `json:"name"`
	Scans int    `json:"scans"`
}

type TopUser struct {
	Address  string  `json:"address"`
	Nickname *string `json:"nickname"`
	Tokens   int64   `json:"tokens"`
}

type DayCount struct {
	Date  string `json:"date"`
	Scans int    `json:"scans"`
	Users int    `json:"users"`
}

type EventStats struct {
	EventID                string          `json:"eventId"`
	EventName              string          `json:"eventName"`
	TotalScans             int             `json:"totalScans"`
	TotalParticipants      int             `json:"totalParticipants"`
	TotalTokensDistributed int64           `json:"totalTokensDistributed"`
	ActivitiesCount        int             `json:"activitiesCount"`
	TopActivities          []ActivityCount `json:"topActivities"`
	TopUsers               []TopUser       `json:"topUsers"`
	Timeline               []DayCount      `json:"timeline"`
}

type ActivitySummary struct {
	Name   string `json:"name"`
	Scans  int    `json:"scans"`
	Tokens int64  `json:"tokens"`
}

type HourlyActivity struct {
	Hour  string `json:"hour"`
	Scans int    `json:"scans"`
	Users int    `json:"users"`
}

type DailyActivity struct {
	Date   string `json:"date"`
	Scans  int    `json:"scans"`
	Users  int    `json:"users"`
	Tokens int64  `json:"tokens"`
}

// Dashboard is the overview served by GET /analytics.
type Dashboard struct {
	TotalScans          int               `json:"totalScans"`
	TotalUsers          int               `json:"totalUsers"`
	TotalTokens         int64             `json:"totalTokens"`
	AverageScansPerUser float64           `json:"averageScansPerUser"`
	RecentScans         []ScanEvent       `json:"recentScans"`
	TopActivities       []ActivitySummary `json:"topActivities"`
	TopUsers            []UserStats       `json:"topUsers"`
	HourlyActivity      []HourlyActivity  `json:"hourlyActivity"`
	DailyTimeline       []DailyActivity   `json:"dailyTimeline"`
	GeneratedAt         time.Time         `json:"generatedAt"`
}
