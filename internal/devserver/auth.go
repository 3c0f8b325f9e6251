package devserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mediahub/pkg/models"
)

// AuthService issues and checks access tokens
type AuthService interface {
	CreateUser(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
	Refresh(ctx context.Context, tokenString string) (string, error)
	Revoke(ctx context.Context, userID string)
}

type authService struct {
	store         *memoryStore
	jwtSecret     []byte
	jwtIssuer     string
	jwtExpiry     time.Duration
	refreshWindow time.Duration
	bcryptCost    int
	revokedBefore map[string]time.Time
}

// JWT claims structure
type jwtClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func newAuthService(store *memoryStore, secret, issuer string, expiry, refreshWindow time.Duration, cost int) *authService {
	return &authService{
		store:         store,
		jwtSecret:     []byte(secret),
		jwtIssuer:     issuer,
		jwtExpiry:     expiry,
		refreshWindow: refreshWindow,
		bcryptCost:    cost,
		revokedBefore: make(map[string]time.Time),
	}
}

// CreateUser adds an account with a bcrypt-hashed password
func (s *authService) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	if len(username) < 3 || len(username) > 50 {
		return nil, fmt.Errorf("%w: username must be between 3 and 50 characters", models.ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", models.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, taken := s.store.byUsername[username]; taken {
		return nil, fmt.Errorf("%w: username already taken", models.ErrInvalidInput)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashed),
		CreatedAt:    s.store.now(),
	}
	s.store.users[user.ID] = user
	s.store.byUsername[username] = user.ID

	out := *user
	out.PasswordHash = ""
	return &out, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.store.mu.RLock()
	id, ok := s.store.byUsername[req.Username]
	var user models.User
	if ok {
		user = *s.store.users[id]
	}
	s.store.mu.RUnlock()
	if !ok {
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User: models.UserProfile{
			ID:        user.ID,
			Username:  user.Username,
			CreatedAt: user.CreatedAt,
		},
		ExpiresIn: int(expiresAt.Sub(s.store.now()).Seconds()),
	}, nil
}

// ValidateToken verifies a JWT token and returns the user.
// Expired tokens yield models.ErrTokenExpired.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.parse(tokenString, true)
	if err != nil {
		return nil, err
	}
	return s.userFor(claims)
}

// Refresh exchanges a token, expired or not, for a new one while it is
// within the refresh window
func (s *authService) Refresh(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.parse(tokenString, false)
	if err != nil {
		return "", err
	}
	if claims.IssuedAt == nil || s.store.now().Sub(claims.IssuedAt.Time) > s.refreshWindow {
		return "", models.ErrInvalidToken
	}

	user, err := s.userFor(claims)
	if err != nil {
		return "", err
	}

	token, _, err := s.generateToken(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Revoke invalidates every token issued to userID so far
func (s *authService) Revoke(ctx context.Context, userID string) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.revokedBefore[userID] = s.store.now()
}

func (s *authService) parse(tokenString string, validateClaims bool) (*jwtClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwtClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrInvalidToken
	}
	if !token.Valid || claims.Issuer != s.jwtIssuer {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) userFor(claims *jwtClaims) (*models.User, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	user, ok := s.store.users[claims.UserID]
	if !ok {
		return nil, models.ErrInvalidToken
	}
	if cutoff, revoked := s.revokedBefore[user.ID]; revoked && claims.IssuedAt != nil && !claims.IssuedAt.Time.After(cutoff) {
		return nil, models.ErrInvalidToken
	}

	out := *user
	out.PasswordHash = ""
	return &out, nil
}

// generateToken creates a new JWT token for a user
func (s *authService) generateToken(user *models.User) (string, time.Time, error) {
	now := s.store.now()
	expiresAt := now.Add(s.jwtExpiry)

	claims := &jwtClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.jwtIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}
