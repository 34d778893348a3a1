package journal

import (
	"context"
	"errors"
	"log"
	"mime/multipart"

	"photojournal/internal/config"
	"photojournal/internal/domain"

	"gorm.io/gorm"
)

type EntryRepository interface {
	Create(ctx context.Context, e *domain.Entry) error
	GetByOwner(ctx context.Context, id, ownerID int64) (*domain.Entry, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Entry, error)
	ListAll(ctx context.Context) ([]domain.Entry, error)
	Update(ctx context.Context, e *domain.Entry) error
	Delete(ctx context.Context, id, ownerID int64) error
}

type ImageStore interface {
	Save(fileHeader *multipart.FileHeader) (string, error)
	Remove(relPath string) error
}

// Notifier receives entry lifecycle events for the live feed. May be
// nil when the feed is disabled.
type Notifier interface {
	EntryCreated(e domain.Entry)
	EntryUpdated(e domain.Entry)
	EntryDeleted(ownerID, entryID int64)
}

// Service mediates every entry mutation behind the ownership check and
// keeps the image store and the entries table in step. File and row
// writes are not one atomic unit; the ordering (write new file, commit
// row, then delete the old file) guarantees a failure can only leave an
// orphaned file on disk, never a row pointing at a missing image.
type Service struct {
	entries    EntryRepository
	images     ImageStore
	visibility config.Visibility
	notifier   Notifier
}

func NewService(entries EntryRepository, images ImageStore, visibility config.Visibility, notifier Notifier) *Service {
	return &Service{entries: entries, images: images, visibility: visibility, notifier: notifier}
}

func (s *Service) Visibility() config.Visibility { return s.visibility }

// List returns the entries visible to userID under the deployment's
// visibility policy, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.Entry, error) {
	if s.visibility == config.VisibilityPublic {
		return s.entries.ListAll(ctx)
	}
	return s.entries.ListByOwner(ctx, userID)
}

// Create stores the image, then inserts the entry row. If the insert
// fails the fresh file is removed again so a rejected create leaves no
// trace.
func (s *Service) Create(ctx context.Context, userID int64, form EntryForm, file *multipart.FileHeader) (*domain.Entry, error) {
	imagePath, err := s.images.Save(file)
	if err != nil {
		return nil, err
	}

	entry := &domain.Entry{
		UserID:    userID,
		Title:     form.Title,
		Body:      form.Body,
		Rating:    form.Rating,
		ImagePath: imagePath,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		if rmErr := s.images.Remove(imagePath); rmErr != nil {
			log.Printf("imagestore: failed to roll back %s: %v", imagePath, rmErr)
		}
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.EntryCreated(*entry)
	}
	return entry, nil
}

// Update edits an owned entry. A replacement image that fails
// validation rejects the whole update, field changes included. With a
// valid replacement the old file is only removed after the row commit,
// and its loss is tolerated.
func (s *Service) Update(ctx context.Context, userID, entryID int64, form EntryForm, file *multipart.FileHeader) (*domain.Entry, error) {
	entry, err := s.entries.GetByOwner(ctx, entryID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	oldImage := entry.ImagePath
	replacingImage := file != nil

	if replacingImage {
		newImage, err := s.images.Save(file)
		if err != nil {
			return nil, err
		}
		entry.ImagePath = newImage
	}

	entry.Title = form.Title
	entry.Body = form.Body
	entry.Rating = form.Rating

	if err := s.entries.Update(ctx, entry); err != nil {
		if replacingImage {
			if rmErr := s.images.Remove(entry.ImagePath); rmErr != nil {
				log.Printf("imagestore: failed to roll back %s: %v", entry.ImagePath, rmErr)
			}
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if replacingImage && oldImage != "" {
		if rmErr := s.images.Remove(oldImage); rmErr != nil {
			log.Printf("imagestore: failed to delete superseded image %s: %v", oldImage, rmErr)
		}
	}

	if s.notifier != nil {
		s.notifier.EntryUpdated(*entry)
	}
	return entry, nil
}

// Delete removes an owned entry, then its image. The row goes first so
// a file-delete failure can only orphan a file, and a repeated delete
// of the same id is a clean not-found with no side effects.
func (s *Service) Delete(ctx context.Context, userID, entryID int64) error {
	entry, err := s.entries.GetByOwner(ctx, entryID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}

	if err := s.entries.Delete(ctx, entryID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}

	if entry.ImagePath != "" {
		if rmErr := s.images.Remove(entry.ImagePath); rmErr != nil {
			log.Printf("imagestore: failed to delete image %s: %v", entry.ImagePath, rmErr)
		}
	}

	if s.notifier != nil {
		s.notifier.EntryDeleted(userID, entryID)
	}
	return nil
}
