package database

import (
	"fmt"
	"log"

	"dealdesk/internal/models"
)

func Migrate() error {
	log.Println("Running database migrations...")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Deal{},
		&models.Bid{},
		&models.Escrow{},
		&models.Wallet{},
		&models.Transaction{},
		&models.Dispute{},
		&models.DealmakerRequest{},
		&models.Review{},
		&models.Notification{},
	)

	if err != nil {
		log.Printf("Error migrating database: %v", err)
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database migration completed successfully")
	return nil
}
