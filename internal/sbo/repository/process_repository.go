package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/paging"
)

// sortColumns whitelists the fields the listing may sort by. Anything else
// falls back to the default order (created DESC).
var sortColumns = map[string]string{
	"created":             "created",
	"modified":            "modified",
	"solicitation_number": "solicitation_number",
	"program_name":        "program_name",
	"current_stage":       "current_stage",
	"process_type":        "process_type",
	"parent_org":          "parent_org",
	"current_assignee":    "current_assignee_name",
}

// ProcessRepository is the processes store: paged reads, optimistic-
// concurrency writes, soft deletes.
type ProcessRepository struct {
	db *gorm.DB
}

func NewProcessRepository(db *gorm.DB) *ProcessRepository {
	return &ProcessRepository{db: db}
}

// FetchPage returns one page of live processes for the query. cursor is the
// opaque cursor from the previous page ("" for the first); next is "" when
// the result set is exhausted. Sorting is applied here — server order is
// authoritative for the pager.
func (r *ProcessRepository) FetchPage(ctx context.Context, q paging.Query, cursor string, size int) ([]entity.Process, string, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", errors.New("invalid page cursor")
		}
		offset = n
	}
	if size <= 0 {
		size = 10
	}

	query := r.db.WithContext(ctx).Model(&ProcessRecord{}).Where("deleted = false")

	for field, value := range q.Filters {
		if value == "" {
			continue
		}
		switch field {
		case "process_type":
			query = query.Where("process_type = ?", value)
		case "parent_org":
			query = query.Where("parent_org = ?", value)
		case "org":
			query = query.Where("org = ?", value)
		case "current_stage":
			query = query.Where("current_stage = ?", value)
		case "solicitation_number":
			query = query.Where("solicitation_number ILIKE ?", "%"+value+"%")
		case "program_name":
			query = query.Where("program_name ILIKE ?", "%"+value+"%")
		case "buyer":
			query = query.Where("buyer_name ILIKE ?", "%"+value+"%")
		case "current_assignee":
			query = query.Where("current_assignee_name ILIKE ?", "%"+value+"%")
		case "keyword":
			kw := "%" + value + "%"
			query = query.Where("solicitation_number ILIKE ? OR program_name ILIKE ?", kw, kw)
		}
	}

	order := "created DESC"
	if col, ok := sortColumns[q.SortField]; ok && q.SortField != "" {
		dir := "DESC"
		if q.SortAscending {
			dir = "ASC"
		}
		order = col + " " + dir
	}

	// Fetch one extra row to learn whether a further page exists.
	var records []ProcessRecord
	err := query.
		Order(order).
		Offset(offset).
		Limit(size + 1).
		Find(&records).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(records) > size {
		records = records[:size]
		next = strconv.Itoa(offset + size)
	}

	items := make([]entity.Process, 0, len(records))
	for i := range records {
		items = append(items, *records[i].ToProcess())
	}
	return items, next, nil
}

// FindByID returns the live process with the given id.
func (r *ProcessRepository) FindByID(ctx context.Context, id int64) (*entity.Process, error) {
	var rec ProcessRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted = false", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.ToProcess(), nil
}

// Create persists a new process, assigning its id, timestamps, and a fresh
// concurrency token.
func (r *ProcessRepository) Create(ctx context.Context, p *entity.Process) (*entity.Process, error) {
	now := time.Now().UTC()
	p.Created = now
	p.Modified = now
	p.Etag = uuid.New().String()
	rec := NewProcessRecord(p)
	rec.ID = 0
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return rec.ToProcess(), nil
}

// Update persists changes to an existing process. The write succeeds only
// when the supplied etag still matches the stored row; a mismatch on a live
// row is ErrConflict, distinct from every other failure. On success the
// returned process carries the replacement etag.
func (r *ProcessRepository) Update(ctx context.Context, p *entity.Process) (*entity.Process, error) {
	if !p.Saved() {
		return nil, errors.New("cannot update an unsaved process")
	}
	priorEtag := p.Etag
	p.Modified = time.Now().UTC()
	p.Etag = uuid.New().String()
	rec := NewProcessRecord(p)

	res := r.db.WithContext(ctx).
		Model(&ProcessRecord{}).
		Where("id = ? AND etag = ? AND deleted = false", p.ID, priorEtag).
		Select("*").
		Omit("id", "created", "deleted").
		Updates(&rec)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&ProcessRecord{}).
			Where("id = ? AND deleted = false", p.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrConflict
		}
		return nil, ErrNotFound
	}
	return rec.ToProcess(), nil
}

// SoftDelete marks the process deleted; reads exclude it from then on.
func (r *ProcessRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&ProcessRecord{}).
		Where("id = ? AND deleted = false", id).
		Updates(map[string]interface{}{
			"deleted":  true,
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
