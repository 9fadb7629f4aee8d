package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gr8monk3ys/rategate/internal/config"
	"github.com/gr8monk3ys/rategate/internal/models"
	"github.com/gr8monk3ys/rategate/internal/security"
	internalsettings "github.com/gr8monk3ys/rategate/internal/settings"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate runs database migrations and seeds defaults.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errSeed := ensureRedisPrefixSetting(conn); errSeed != nil {
		return errSeed
	}
	return ensureBootstrapAdmin(conn)
}

// ensureRedisPrefixSetting seeds the default counter key prefix once.
func ensureRedisPrefixSetting(conn *gorm.DB) error {
	var existing models.Setting
	errFind := conn.Where("key = ?", internalsettings.RedisPrefixKey).Take(&existing).Error
	if errFind == nil {
		return nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: read prefix setting: %w", errFind)
	}

	payload, errMarshal := json.Marshal(internalsettings.DefaultRedisPrefix)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal prefix setting: %w", errMarshal)
	}
	now := time.Now().UTC()
	record := models.Setting{
		Key:       internalsettings.RedisPrefixKey,
		Value:     datatypes.JSON(payload),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&record).Error; errCreate != nil {
		return fmt.Errorf("db: seed prefix setting: %w", errCreate)
	}
	return nil
}

// ensureBootstrapAdmin creates the initial operator account from environment
// variables when the admins table is empty. Without credentials in the
// environment the management API simply has no account yet.
func ensureBootstrapAdmin(conn *gorm.DB) error {
	username := strings.TrimSpace(os.Getenv(config.EnvAdminUser))
	password := os.Getenv(config.EnvAdminPassword)
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if errCount := conn.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	hashed, errHash := security.HashPassword(password)
	if errHash != nil {
		return fmt.Errorf("db: hash admin password: %w", errHash)
	}
	now := time.Now().UTC()
	admin := models.Admin{
		Username:  username,
		Password:  hashed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		return fmt.Errorf("db: seed admin: %w", errCreate)
	}
	return nil
}
