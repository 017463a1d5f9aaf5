package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"drivebox/app/exceptions"
	"drivebox/app/models"
	"drivebox/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, exceptions.NotFound("User not found")
	}
	return user, err
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, exceptions.NotFound("User not found")
	}
	return user, err
}

// EmailTaken reports whether an account already uses the address.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&n).Error
	return n > 0, err
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// All returns one page of users plus pagination metadata.
func (r *UserRepository) All(ctx context.Context, page, perPage int) ([]models.User, orm.Pagination, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, orm.Pagination{}, err
	}

	var users []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Order("id").
		Scopes(orm.Paginate(page, perPage)).
		Find(&users).Error
	return users, orm.NewPagination(page, perPage, total), err
}
