package database

import (
	"context"

	"github.com/inkwell-blog/inkwell/database/model"

	"gorm.io/gorm"
)

// UserRepository persists users. Lookups that match nothing return (nil, nil).
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).
		Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.WithContext(ctx).
		Model(model.User{}).
		Where("id = ?", id).
		First(user).
		Error
	if IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// List returns all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Model(model.User{}).
		Order("username ASC").
		Find(&users).
		Error
	return users, err
}

// PostRepository persists posts.
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.WithContext(ctx).
		Model(model.Post{}).
		Where("id = ?", id).
		First(post).
		Error
	if IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return post, nil
}

// ListRecent returns at most limit posts, newest first.
func (r *PostRepository) ListRecent(ctx context.Context, limit int) ([]model.Post, error) {
	posts := make([]model.Post, 0, limit)
	err := r.db.WithContext(ctx).
		Model(model.Post{}).
		Order("created_at DESC").
		Order("rowid DESC").
		Limit(limit).
		Find(&posts).
		Error
	return posts, err
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// DeleteByID removes one post; ErrNoRows means it did not exist (or was already deleted).
func (r *PostRepository) DeleteByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}
