package models

import "time"

// ArtifactVersion is written into every artifact; readers key on it.
const ArtifactVersion = "1.0.0"

// Watermark is the persisted progress of the backup pipeline.
type Watermark struct {
	LastBackupAt      *time.Time `json:"lastBackupAt"`
	LastBackupLocator string     `json:"lastBackupLocator"`
	BackupCount       int64      `json:"backupCount"`
}

type UserRef struct {
	WalletAddress string  `json:"walletAddress"`
	Nickname      *string `json:"nickname"`
}

type EventRef struct {
	Name string `json:"name"`
}

type ScanActivity struct {
	Name    string `json:"name"`
	Tokens  int64  `json:"tokens"`
	EventID string `json:"eventId"`
}

type ScanRecord struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	IsValid   bool         `json:"isValid"`
	User      UserRef      `json:"user"`
	Activity  ScanActivity `json:"activity"`
	Event     EventRef     `json:"event"`
}

type ActivityRef struct {
	Name   string `json:"name"`
	Tokens int64  `json:"tokens"`
}

type ProofRef struct {
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	TokensAwarded int64      `json:"tokensAwarded"`
	ValidatedAt   *time.Time `json:"validatedAt,omitempty"`
}

type ActivityRecord struct {
	Timestamp time.Time   `json:"timestamp"`
	Status    string      `json:"status"`
	User      UserRef     `json:"user"`
	Activity  ActivityRef `json:"activity"`
	Event     EventRef    `json:"event"`
	Proof     *ProofRef   `json:"proof"`
}

type ArtifactData struct {
	Scans               []ScanRecord     `json:"scans"`
	CompletedActivities []ActivityRecord `json:"completedActivities"`
}

type ArtifactStats struct {
	TotalScans      int `json:"totalScans"`
	TotalActivities int `json:"totalActivities"`
	TotalRecords    int `json:"totalRecords"`
}

// Artifact is the self-describing document uploaded by one backup cycle.
type Artifact struct {
	Timestamp           time.Time     `json:"timestamp"`
	Version             string        `json:"version"`
	LastBackupTimestamp *time.Time    `json:"lastBackupTimestamp"`
	Data                ArtifactData  `json:"data"`
	Stats               ArtifactStats `json:"stats"`
}

func NewArtifact(now time.Time, since *time.Time, scans []ScanRecord, activities []ActivityRecord) *Artifact {
	if scans == nil {
		scans = []ScanRecord{}
	}
	if activities == nil {
		activities = []ActivityRecord{}
	}
	return &Artifact{
		Timestamp:           now.UTC(),
		Version:             ArtifactVersion,
		LastBackupTimestamp: since,
		Data: ArtifactData{
			Scans:               scans,
			CompletedActivities: activities,
		},
		Stats: ArtifactStats{
			TotalScans:      len(scans),
			TotalActivities: len(activities),
			TotalRecords:    len(scans) + len(activities),
		},
	}
}

// Result reports one backup cycle.
type Result struct {
	Success         bool   `json:"success"`
	Locator         string `json:"cid,omitempty"`
	ScansCount      int    `json:"scansCount"`
	ActivitiesCount int    `json:"activitiesCount"`
	Error           string `json:"error,omitempty"`
	// Skipped marks a scheduled tick that found a cycle already in flight.
	Skipped bool `json:"skipped,omitempty"`
}

// Status is the scheduler view exposed by GET /backup.
type Status struct {
	IsRunning           bool       `json:"isRunning"`
	LastBackupTimestamp *time.Time `json:"lastBackupTimestamp"`
	LastBackupCid       string     `json:"lastBackupCid,omitempty"`
	BackupCount         int64      `json:"backupCount"`
	PublicURL           string     `json:"ipfsUrl,omitempty"`
	LastResult          *Result    `json:"lastResult,omitempty"`
}
