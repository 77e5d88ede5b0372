package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/auth"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/utils"
)

// InitializeSystemData ensures the system actor and the initial admin
// account exist. Runs on every startup before the server accepts requests.
func InitializeSystemData(db *database.Connection) error {
	log.Println("🔧 Initializing system data...")
	ctx := context.Background()
	users := persistence.NewUserRepository(db.DB())

	// System actor: owns scheduler-generated records. Deactivated so it can
	// never log in.
	system, err := users.FindByID(ctx, constants.SystemUserID)
	if err != nil {
		return fmt.Errorf("failed to look up system user: %w", err)
	}
	if system == nil {
		err := users.Insert(ctx, &models.User{
			ID:       constants.SystemUserID,
			Name:     constants.SystemUserName,
			Email:    "system@chatterfix.local",
			Role:     constants.RoleAdmin,
			IsActive: false,
		}, "")
		if err != nil {
			return fmt.Errorf("failed to create system user: %w", err)
		}
		log.Println("   ✅ Created system user")
	}

	// Initial admin, credentials from the environment
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@chatterfix.local"
	}
	exists, err := users.CheckUserExistsByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}
	if !exists {
		adminPassword := os.Getenv("ADMIN_PASSWORD")
		if adminPassword == "" {
			adminPassword = "ChangeMe123"
			log.Printf("   ⚠️ ADMIN_PASSWORD not set, using default for %s", adminEmail)
		}
		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		err = users.Insert(ctx, &models.User{
			ID:       utils.GenerateID(),
			Name:     "Administrator",
			Email:    adminEmail,
			Role:     constants.RoleAdmin,
			IsActive: true,
		}, hash)
		if err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Printf("   ✅ Created admin user %s", adminEmail)
	}

	return nil
}
