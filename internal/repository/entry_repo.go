package repository

import (
	"context"
	"time"

	"photojournal/internal/domain"

	"gorm.io/gorm"
)

type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

type entryModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;index"`
	Title     string    `gorm:"column:title"`
	Body      string    `gorm:"column:body"`
	Rating    *int      `gorm:"column:rating"`
	ImagePath string    `gorm:"column:image_path"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (entryModel) TableName() string { return "entries" }

func toDomainEntry(m entryModel) domain.Entry {
	return domain.Entry{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Body:      m.Body,
		Rating:    m.Rating,
		ImagePath: m.ImagePath,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toEntryModel(e *domain.Entry) entryModel {
	return entryModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Body:      e.Body,
		Rating:    e.Rating,
		ImagePath: e.ImagePath,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (r *EntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	m := toEntryModel(e)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*e = toDomainEntry(m)
	return nil
}

// GetByOwner fetches an entry only if it belongs to ownerID. Callers
// cannot distinguish "absent" from "owned by someone else"; both come
// back as gorm.ErrRecordNotFound.
func (r *EntryRepository) GetByOwner(ctx context.Context, id, ownerID int64) (*domain.Entry, error) {
	var m entryModel
	tx := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	e := toDomainEntry(m)
	return &e, nil
}

// ListByOwner returns the owner's entries, newest first. IDs break ties
// for rows created within the same timestamp granularity.
func (r *EntryRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Entry, error) {
	var rows []entryModel
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Entry, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainEntry(m))
	}
	return out, nil
}

type entryWithAuthorRow struct {
	Entry    entryModel `gorm:"embedded"`
	Username string     `gorm:"column:username"`
}

// ListAll returns every entry joined with its author's username,
// newest first. Used by the public listing variant.
func (r *EntryRepository) ListAll(ctx context.Context) ([]domain.Entry, error) {
	var rows []entryWithAuthorRow
	tx := r.db.WithContext(ctx).
		Table("entries").
		Select("entries.*, users.username AS username").
		Joins("JOIN users ON users.id = entries.user_id").
		Order("entries.created_at DESC, entries.id DESC").
		Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Entry, 0, len(rows))
	for _, m := range rows {
		e := toDomainEntry(m.Entry)
		e.Author = m.Username
		out = append(out, e)
	}
	return out, nil
}

// Update persists title/body/rating/image for an entry, scoped to its
// owner. Zero rows affected means the entry vanished between the
// ownership check and the write.
func (r *EntryRepository) Update(ctx context.Context, e *domain.Entry) error {
	updates := map[string]any{
		"title":      e.Title,
		"body":       e.Body,
		"rating":     e.Rating,
		"image_path": e.ImagePath,
		"updated_at": time.Now().UTC(),
	}
	tx := r.db.WithContext(ctx).
		Table("entries").
		Where("id = ? AND user_id = ?", e.ID, e.UserID).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an entry scoped to its owner.
func (r *EntryRepository) Delete(ctx context.Context, id, ownerID int64) error {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&entryModel{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Migrate creates the entries table.
func (r *EntryRepository) Migrate() error {
	return r.db.AutoMigrate(&entryModel{})
}
