package repository

import (
	"context"

	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	// Create stores the user and its profile in one transaction.
	Create(ctx context.Context, user *entity.User, profile *entity.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	SearchByUsername(ctx context.Context, text string, limit int) ([]entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// EnsureProfile returns the profile of the user, creating an empty one when it is missing.
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	SaveProfile(ctx context.Context, profile *entity.Profile) error
	// DeleteAccount removes the user with everything it owns or references.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		if profile == nil {
			profile = &entity.Profile{}
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile

		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := database.Conn(ctx, r.db).
		Preload("Profile").
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := database.Conn(ctx, r.db).
		Preload("Profile").
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := database.Conn(ctx, r.db).
		Preload("Profile").
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	var users []entity.User
	if len(ids) == 0 {
		return users, nil
	}
	err := database.Conn(ctx, r.db).
		Preload("Profile").
		Where("id IN ?", ids).
		Find(&users).Error
	return users, err
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&entity.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) SearchByUsername(ctx context.Context, text string, limit int) ([]entity.User, error) {
	var users []entity.User
	pattern := database.ContainsPattern(text)
	err := database.Conn(ctx, r.db).
		Preload("Profile").
		Where(`LOWER(username) LIKE LOWER(?) ESCAPE '\' OR LOWER(first_name) LIKE LOWER(?) ESCAPE '\' OR LOWER(last_name) LIKE LOWER(?) ESCAPE '\'`, pattern, pattern, pattern).
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return database.Conn(ctx, r.db).
		Model(&entity.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		}).Error
}

func (r *userRepository) EnsureProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	db := database.Conn(ctx, r.db)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Profile{UserID: userID}).Error; err != nil {
		return nil, err
	}

	var profile entity.Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) SaveProfile(ctx context.Context, profile *entity.Profile) error {
	return database.Conn(ctx, r.db).Save(profile).Error
}

func (r *userRepository) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		ownPosts := tx.Model(&entity.Post{}).Select("id").Where("user_id = ?", userID)
		doomedComments := tx.Model(&entity.Comment{}).Select("id").
			Where("user_id = ? OR post_id IN (?)", userID, ownPosts)

		steps := []func() *gorm.DB{
			func() *gorm.DB {
				return tx.Where("user_id = ? OR actor_id = ? OR post_id IN (?) OR comment_id IN (?)", userID, userID, ownPosts, doomedComments).
					Delete(&entity.Notification{})
			},
			func() *gorm.DB { return tx.Where("user_id = ?", userID).Delete(&entity.Like{}) },
			func() *gorm.DB {
				return tx.Where("reference_type = ? AND reference_id IN (?)", entity.ReferencePost, ownPosts).Delete(&entity.Like{})
			},
			func() *gorm.DB {
				return tx.Where("reference_type = ? AND reference_id IN (?)", entity.ReferenceComment, doomedComments).Delete(&entity.Like{})
			},
			func() *gorm.DB { return tx.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&entity.Follow{}) },
			func() *gorm.DB { return tx.Where("user_id = ? OR post_id IN (?)", userID, ownPosts).Delete(&entity.Comment{}) },
			func() *gorm.DB { return tx.Where("post_id IN (?)", ownPosts).Delete(&entity.PostHashtag{}) },
			func() *gorm.DB { return tx.Where("user_id = ?", userID).Delete(&entity.Post{}) },
			func() *gorm.DB { return tx.Where("user_id = ?", userID).Delete(&entity.Profile{}) },
			func() *gorm.DB { return tx.Where("id = ?", userID).Delete(&entity.User{}) },
		}
		for _, step := range steps {
			if err := step().Error; err != nil {
				return err
			}
		}
		return nil
	})
}
