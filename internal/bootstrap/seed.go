package bootstrap

import (
	"log"

	"anoa.com/photoshare/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&entity.Post{}, "Hashtags", &entity.PostHashtag{}); err != nil {
		return err
	}

	return db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Post{},
		&entity.Hashtag{},
		&entity.PostHashtag{},
		&entity.Comment{},
		&entity.Follow{},
		&entity.Like{},
		&entity.Notification{},
	)
}

// SeedDemoUser creates a demo account for local development.
func SeedDemoUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", "demo@photoshare.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Demo user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte("demo12345"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		demo := entity.User{
			Username:     "demo",
			FirstName:    "Demo",
			LastName:     "User",
			Email:        "demo@photoshare.local",
			PasswordHash: string(hashedPasswordBytes),
		}
		if err := tx.Create(&demo).Error; err != nil {
			return err
		}
		if err := tx.Create(&entity.Profile{UserID: demo.ID}).Error; err != nil {
			return err
		}

		log.Println("✅ Demo user seeded successfully")
		log.Println("   Email: demo@photoshare.local")
		log.Println("   Password: demo12345")
		return nil
	})
}
