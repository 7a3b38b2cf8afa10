package store

import (
	"bitwise74/blog/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Create(ctx context.Context, p *model.Post) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create post, %w", err)
	}

	return nil
}

// ByAuthor returns one page of the posts written by userID, newest first.
// Pages past the end are returned empty
func (s *PostStore) ByAuthor(ctx context.Context, userID uint, page, perPage int) (*Page, error) {
	return s.paginate(s.db.WithContext(ctx).Where("user_id = ?", userID), page, perPage)
}

// All returns one page of every post, newest first
func (s *PostStore) All(ctx context.Context, page, perPage int) (*Page, error) {
	return s.paginate(s.db.WithContext(ctx), page, perPage)
}

func (s *PostStore) paginate(q *gorm.DB, page, perPage int) (*Page, error) {
	page = normalizePage(page)
	if perPage <= 0 {
		perPage = PostsPerPage
	}

	p := &Page{
		Items:   []model.Post{},
		Page:    page,
		PerPage: perPage,
	}

	if err := q.Session(&gorm.Session{}).Model(&model.Post{}).Count(&p.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count posts, %w", err)
	}

	// Compare page numbers, the offset of a huge page overflows int
	if int64(page) > int64(p.Pages()) {
		return p, nil
	}

	err := q.Session(&gorm.Session{}).
		Preload("Author").
		Order("date_posted desc").
		Order("id desc").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&p.Items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts, %w", err)
	}

	return p, nil
}
