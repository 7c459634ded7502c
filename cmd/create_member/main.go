package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"memberhub/models"

	"golang.org/x/crypto/sha3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// local copy of the server's digest; must stay in sync with HashPassword
func digest(plain, salt string) string {
	sum := sha3.Sum256([]byte(plain + salt))
	return hex.EncodeToString(sum[:])
}

func main() {
	if len(os.Args) < 3 {
		fmt.Println("usage: go run ./cmd/create_member <student_number> <password> [admin]")
		os.Exit(2)
	}
	studentNumber, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Fatalf("student number must be numeric: %v", err)
	}
	password := os.Args[2]
	admin := len(os.Args) > 3 && os.Args[3] == "admin"

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	salt := os.Getenv("HASH_SALT")
	if salt == "" {
		salt = "dev-salt"
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	// check existing
	var existing models.Member
	if err := db.Where("student_number = ?", studentNumber).First(&existing).Error; err == nil {
		fmt.Printf("member %d already exists (id=%d)\n", studentNumber, existing.ID)
		os.Exit(0)
	}

	m := models.Member{
		StudentNumber: studentNumber,
		PasswordHash:  digest(password, salt),
	}
	roles := []models.Role{models.RoleMember}
	perms := []models.Permission{models.PermMember}
	if admin {
		roles = append(roles, models.RoleAdmin)
		perms = append(perms, models.PermAdmin)
	}
	m.SetRoles(roles)
	m.SetPermissions(perms)
	if err := db.Create(&m).Error; err != nil {
		log.Fatalf("failed to create member: %v", err)
	}
	fmt.Printf("created member %d id=%d\n", studentNumber, m.ID)
}
