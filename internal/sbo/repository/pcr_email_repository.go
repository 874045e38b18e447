package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// PCREmailRepository is the store backing the SBA PCR notification queue.
// Records correlate to their process through Title (the stringified process
// id) — the store has no native foreign key here.
type PCREmailRepository struct {
	db *gorm.DB
}

func NewPCREmailRepository(db *gorm.DB) *PCREmailRepository {
	return &PCREmailRepository{db: db}
}

// LatestForProcess returns the newest record for the process by Modified
// descending, or nil when none exists (not an error).
func (r *PCREmailRepository) LatestForProcess(ctx context.Context, processID int64) (*entity.PCREmail, error) {
	var rec PCREmailRecord
	err := r.db.WithContext(ctx).
		Where("title = ?", strconv.FormatInt(processID, 10)).
		Order("modified DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	email := rec.toPCREmail()
	return &email, nil
}

// Enqueue creates a new record with status "In Queue" for the email worker
// to drain.
func (r *PCREmailRepository) Enqueue(ctx context.Context, processID int64) (*entity.PCREmail, error) {
	rec := PCREmailRecord{
		Title:    strconv.FormatInt(processID, 10),
		Status:   entity.PCREmailInQueue,
		Modified: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	email := rec.toPCREmail()
	return &email, nil
}

// ListQueued returns every record still "In Queue", oldest first.
func (r *PCREmailRepository) ListQueued(ctx context.Context) ([]entity.PCREmail, error) {
	var records []PCREmailRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.PCREmailInQueue).
		Order("modified ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	emails := make([]entity.PCREmail, 0, len(records))
	for i := range records {
		emails = append(emails, records[i].toPCREmail())
	}
	return emails, nil
}

// SetStatus moves a record to a terminal state.
func (r *PCREmailRepository) SetStatus(ctx context.Context, id int64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&PCREmailRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   status,
			"modified": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForProcess removes every record correlated to the process.
func (r *PCREmailRepository) DeleteAllForProcess(ctx context.Context, processID int64) error {
	return r.db.WithContext(ctx).
		Where("title = ?", strconv.FormatInt(processID, 10)).
		Delete(&PCREmailRecord{}).Error
}
