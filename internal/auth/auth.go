package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
)

// Service handles authentication-related operations
type Service struct {
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
}

// NewService creates a new authentication service
func NewService(jwtSecret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		jwtSecret: jwtSecret,
		ttl:       ttl,
		now:       time.Now,
	}
}

// HashPassword creates a password hash
func (s *Service) HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

// CheckPassword verifies a password against a hash
func (s *Service) CheckPassword(password, hash string) error {
	if hash == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateToken creates a new JWT token for an account
func (s *Service) GenerateToken(id models.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": id.Email,
		"name":  id.Name,
		"role":  id.Role,
		"exp":   s.now().Add(s.ttl).Unix(),
	})

	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyToken validates a JWT token and returns the identity it carries
func (s *Service) VerifyToken(tokenString string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return models.Identity{}, err
	}

	if !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, errors.New("invalid token claims")
	}

	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	if email == "" || (role != models.RoleUser && role != models.RoleMunicipality) {
		return models.Identity{}, errors.New("invalid token claims")
	}
	return models.Identity{Email: email, Name: name, Role: role}, nil
}
