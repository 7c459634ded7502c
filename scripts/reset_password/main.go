package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/sha3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Member struct {
	ID            uint
	StudentNumber int64
	PasswordHash  string
}

func main() {
	studentNumber := flag.Int64("student-number", 0, "student number of the member to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *studentNumber == 0 || *password == "" {
		log.Fatal("--student-number and --password are required")
	}
	if len(*password) < 6 {
		log.Fatal("password too short (min 6)")
	}
	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	salt := os.Getenv("HASH_SALT")
	if salt == "" {
		salt = "dev-salt"
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	var m Member
	if err := db.Where("student_number = ?", *studentNumber).First(&m).Error; err != nil {
		log.Fatalf("member not found: %v", err)
	}
	sum := sha3.Sum256([]byte(*password + salt))
	if err := db.Model(&m).Update("password_hash", hex.EncodeToString(sum[:])).Error; err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Printf("Password reset for member %d\n", m.StudentNumber)
}
