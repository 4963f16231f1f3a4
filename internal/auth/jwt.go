package auth

import (
	"errors"
	"time"

	"clinic-backend/internal/config"
	"clinic-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in tokens
const (
	RoleAdmin   = "admin"   // platform operator, any clinic, settings and reconciliation
	RoleService = "service" // scheduling backend posting payments for any clinic
	RoleClinic  = "clinic"  // clinic staff, scoped to ClinicID
)

type Claims struct {
	ClinicID string `json:"clinic_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// CanAccessClinic reports whether the caller may act on behalf of clinicID
func (c *Claims) CanAccessClinic(clinicID string) bool {
	if c.Role == RoleAdmin || c.Role == RoleService {
		return true
	}
	return c.ClinicID != "" && c.ClinicID == clinicID
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// GenerateToken creates a new JWT token. clinicID is empty for admin and service tokens.
func (j *JWTManager) GenerateToken(subject, clinicID, role string) (string, error) {
	if role == RoleClinic && clinicID == "" {
		return "", errors.New("clinic tokens need a clinic_id")
	}

	now := timeutil.Now()
	hours := j.cfg.JWT.ExpirationHours
	if hours <= 0 {
		hours = 24
	}
	expirationTime := now.Add(time.Duration(hours) * time.Hour)

	claims := &Claims{
		ClinicID: clinicID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

// ValidateToken verifies a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	}, jwt.WithIssuer(j.cfg.JWT.Issuer))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	switch claims.Role {
	case RoleAdmin, RoleService:
	case RoleClinic:
		if claims.ClinicID == "" {
			return nil, errors.New("clinic token without clinic_id")
		}
	default:
		return nil, errors.New("unknown role")
	}

	return claims, nil
}
