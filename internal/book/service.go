package book

import (
	"context"

	"go.uber.org/zap"
)

// Service provides book-related business logic.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns every book in the catalog.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

// Get returns a book by its id.
func (s *Service) Get(ctx context.Context, id int64) (Book, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a new book and returns it with the assigned id.
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	b, err := s.repo.Create(ctx, in)
	if err != nil {
		return Book{}, err
	}
	s.logger.Info("book created", zap.Int64("book.id", b.ID))
	return b, nil
}

// Update replaces all fields of an existing book.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Book, error) {
	b, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Book{}, err
	}
	s.logger.Info("book updated", zap.Int64("book.id", id))
	return b, nil
}

// Delete removes a book.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("book deleted", zap.Int64("book.id", id))
	return nil
}

// Search returns books whose title or author contains term, ignoring case.
func (s *Service) Search(ctx context.Context, term string) ([]Book, error) {
	return s.repo.Search(ctx, term)
}

// Filter returns books published within the given year range.
func (s *Service) Filter(ctx context.Context, years YearRange) ([]Book, error) {
	return s.repo.Filter(ctx, years)
}
