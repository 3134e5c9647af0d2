package utils

import (
  "fmt"
  "regexp"
  "strings"
  "golang.org/x/crypto/bcrypt"
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func NormalizeEmail(email string) string {
  return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
  if !emailRE.MatchString(email) {
    return fmt.Errorf("Invalid email address")
  }
  return nil
}

func ValidatePassword(password string) error {
  if len(password) < 8 {
    return fmt.Errorf("Password must be at least 8 characters")
  }
  return nil
}

func HashPassword(password string) (string, error) {
  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return "", fmt.Errorf("Failed to hash password: %w", err)
  }
  return string(hashed), nil
}

func CheckPassword(hashed, password string) error {
  return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
}
