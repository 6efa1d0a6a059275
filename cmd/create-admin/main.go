package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/societyvoice/backend/internal/auth"
	"github.com/societyvoice/backend/internal/config"
	"github.com/societyvoice/backend/internal/database"
	"github.com/societyvoice/backend/internal/models"
)

func main() {
	name := flag.String("name", "Administrator", "display name of the admin")
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email (or ADMIN_EMAIL)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (or ADMIN_PASSWORD)")
	flag.Parse()

	if *email == "" || len(*password) < 6 {
		fmt.Fprintln(os.Stderr, "usage: create-admin -email admin@example.com -password <at least 6 chars> [-name Administrator]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := models.User{
		Name:     *name,
		Email:    strings.ToLower(strings.TrimSpace(*email)),
		Password: hash,
		Role:     models.RoleAdmin,
	}

	if err := db.GetDB().Create(&admin).Error; err != nil {
		if database.IsUniqueViolation(err) {
			log.Fatalf("A user with email %s already exists", admin.Email)
		}
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Println("✅ Admin created successfully!")
	fmt.Printf("📧 Email: %s\n", admin.Email)
	fmt.Printf("ID: %s, Role: %s\n", admin.ID, admin.Role)
}
