package main

import (
	"fmt"
	"log"

	"social-graph/config"
	"social-graph/internal/model"
	"social-graph/pkg/db"

	"gorm.io/gorm"
)

// 子表在前
var tables = []string{"relationship", "user"}

func main() {
	// Load configuration (config/config.yaml + env overrides)
	cfg := config.LoadConfig()

	orm, err := db.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer func() { _ = db.CloseDB(orm) }()

	fmt.Println("Database connected successfully")
	fmt.Printf("Driver: %s\n", cfg.Database.Driver)
	if cfg.Database.Driver == db.DriverSQLite {
		fmt.Printf("Database: %s\n", cfg.Database.SQLitePath)
	} else {
		fmt.Printf("Database: %s\n", cfg.Database.Database)
	}

	// Confirm
	fmt.Printf("\nWARNING: This operation will CLEAR ALL DATA in tables %v!\n", tables)
	fmt.Print("Type 'YES' to confirm: ")
	var confirm string
	_, _ = fmt.Scanln(&confirm)
	if confirm != "YES" {
		fmt.Println("Operation cancelled")
		return
	}

	// Make sure tables exist so DELETE does not fail on a fresh database
	if err := db.AutoMigrate(orm, model.AutoMigrateModels()...); err != nil {
		log.Fatalf("Auto migrate failed: %v", err)
	}

	if cfg.Database.Driver == db.DriverSQLite {
		resetSQLite(orm)
	} else {
		resetMySQL(orm)
	}

	fmt.Println("\nDatabase reset completed!")
	fmt.Println("All table data cleared, table structure preserved")
	fmt.Println("Auto-increment IDs reset to 1")
}

func clearTables(orm *gorm.DB) {
	for _, table := range tables {
		fmt.Printf("Clearing table %s... ", table)
		if err := orm.Exec(fmt.Sprintf("DELETE FROM `%s`", table)).Error; err != nil {
			fmt.Printf("Failed: %v\n", err)
		} else {
			fmt.Println("Success")
		}
	}
}

func resetMySQL(orm *gorm.DB) {
	// Disable FK checks to avoid constraint issues
	_ = orm.Exec("SET FOREIGN_KEY_CHECKS=0").Error
	defer func() { _ = orm.Exec("SET FOREIGN_KEY_CHECKS=1").Error }()

	clearTables(orm)

	fmt.Println("\nResetting auto-increment IDs...")
	for _, table := range tables {
		fmt.Printf("Resetting %s auto-increment... ", table)
		if err := orm.Exec(fmt.Sprintf("ALTER TABLE `%s` AUTO_INCREMENT = 1", table)).Error; err != nil {
			fmt.Printf("Failed: %v\n", err)
		} else {
			fmt.Println("Success")
		}
	}
}

func resetSQLite(orm *gorm.DB) {
	clearTables(orm)

	fmt.Println("\nResetting auto-increment IDs...")
	for _, table := range tables {
		fmt.Printf("Resetting %s auto-increment... ", table)
		if err := orm.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table).Error; err != nil {
			fmt.Printf("Failed: %v\n", err)
		} else {
			fmt.Println("Success")
		}
	}
}
