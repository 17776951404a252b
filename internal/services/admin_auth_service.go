package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordRequired    = errors.New("password is required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAdminHashNotSet     = errors.New("admin password hash is not configured")
	ErrInvalidPasswordHash = errors.New("invalid bcrypt hash")
)

// AdminAuthService checks the single shared admin password.
type AdminAuthService struct {
	passwordHash []byte
}

func NewAdminAuthService(passwordHash string) (*AdminAuthService, error) {
	passwordHash = strings.TrimSpace(passwordHash)
	if passwordHash == "" {
		return nil, ErrAdminHashNotSet
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, ErrInvalidPasswordHash
	}
	return &AdminAuthService{passwordHash: []byte(passwordHash)}, nil
}

func (service *AdminAuthService) Verify(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if bcrypt.CompareHashAndPassword(service.passwordHash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func HashAdminPassword(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
