package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// NoteRepository is the notes store. Notes are insert-only.
type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByProcess returns the process's notes, newest first.
func (r *NoteRepository) ListByProcess(ctx context.Context, processID int64) ([]entity.Note, error) {
	var records []NoteRecord
	err := r.db.WithContext(ctx).
		Where("process_id = ?", processID).
		Order("modified DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	notes := make([]entity.Note, 0, len(records))
	for i := range records {
		notes = append(notes, records[i].toNote())
	}
	return notes, nil
}

// Create persists a new note and returns it with id and timestamp set.
func (r *NoteRepository) Create(ctx context.Context, processID int64, text string, author entity.Person) (*entity.Note, error) {
	note := entity.Note{
		ProcessID: processID,
		Text:      text,
		Author:    author,
		Modified:  time.Now().UTC(),
	}
	rec := newNoteRecord(&note)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	n := rec.toNote()
	return &n, nil
}

// DeleteAllForProcess removes every note owned by the process, used when the
// process itself is deleted.
func (r *NoteRepository) DeleteAllForProcess(ctx context.Context, processID int64) error {
	return r.db.WithContext(ctx).
		Where("process_id = ?", processID).
		Delete(&NoteRecord{}).Error
}
