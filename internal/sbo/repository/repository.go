package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced process, note, or email record
// does not exist (or is soft-deleted).
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an update carries a stale concurrency token.
// Callers must distinguish it from other persistence failures so the UI can
// prompt a reload instead of a retry.
var ErrConflict = errors.New("record was modified by someone else")

// Repositories bundles every store the service layer consumes.
type Repositories struct {
	Process  *ProcessRepository
	Note     *NoteRepository
	PCREmail *PCREmailRepository
	Org      *OrgRepository
	User     *UserRepository
}

// NewRepositories wires every repository onto one gorm handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Process:  NewProcessRepository(db),
		Note:     NewNoteRepository(db),
		PCREmail: NewPCREmailRepository(db),
		Org:      NewOrgRepository(db),
		User:     NewUserRepository(db),
	}
}
