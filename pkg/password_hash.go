package pkg

import "golang.org/x/crypto/bcrypt"

// PasswordHashCost is kept at the bcrypt default, registration and login both pay it once.
const PasswordHashCost = bcrypt.DefaultCost

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
