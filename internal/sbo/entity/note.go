package entity

import (
	"time"
)

// Note is a freeform annotation on a process. Notes are insert-only: they are
// created during stage transitions or directly by users, never edited, and
// removed only in bulk when the owning process is deleted.
type Note struct {
	ID        int64     `json:"id"`
	ProcessID int64     `json:"process_id"`
	Text      string    `json:"text"`
	Author    Person    `json:"author"`
	Modified  time.Time `json:"modified"`
}

// PCREmail status values
const (
	PCREmailInQueue  = "In Queue"
	PCREmailComplete = "Complete"
	PCREmailErrored  = "Errored"
)

// PCREmail tracks one asynchronously-sent notification to the SBA PCR
// reviewer. Title carries the stringified owning-process ID because the
// store has no native foreign key for it; consumers only ever read the
// latest record by Modified descending.
type PCREmail struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	Modified time.Time `json:"modified"`
}

// Document is an attachment owned by the document store; the core treats it
// as an opaque list entry keyed by process.
type Document struct {
	Name     string    `json:"name"`
	Link     string    `json:"link"`
	Modifier string    `json:"modifier"`
	Modified time.Time `json:"modified"`
}

// Org is a Title/ParentOrg reference row used only for Org-field validation
// and pickers.
type Org struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string `json:"title" gorm:"size:128;not null;uniqueIndex:idx_orgs_title_parent"`
	ParentOrg string `json:"parent_org" gorm:"size:16;not null;uniqueIndex:idx_orgs_title_parent"`
}

func (Org) TableName() string {
	return "orgs"
}
