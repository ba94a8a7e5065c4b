package models

import "time"

type File struct {
	ID         uint   `gorm:"primarykey"`
	Path       string `gorm:"unique"`
	Size       int64
	MTime      int64
	Digest     *string `gorm:"index"`
	Codec      *string
	Container  *string
	Duration   *float64
	Bitrate    *int
	SampleRate *int
	Channels   *int
	HasArt     bool
}

type Fingerprint struct {
	ID          uint `gorm:"primarykey"`
	FileID      uint `gorm:"uniqueIndex"`
	File        File
	Chromaprint string
}

// GroupOverride pins the resolved action for one member of one duplicate
// group. Last write wins per (GroupDigest, Path).
type GroupOverride struct {
	GroupDigest string `gorm:"primaryKey"`
	Path        string `gorm:"primaryKey"`
	Action      string
	Template    *string
	UpdatedAt   time.Time
}

// OperationLog is the audit row recorded once per applied or skipped plan
// operation.
type OperationLog struct {
	OpID    string `gorm:"primarykey"`
	PlanID  string
	OpType  string
	Path    string
	NewPath *string
	Status  string
}
