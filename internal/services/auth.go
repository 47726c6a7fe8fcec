package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/logger"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/normalization"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/repos"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/requestdata"
	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/types"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*types.User, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

func (as *authService) Register(ctx context.Context, username, password string) (*types.User, error) {
	username = normalization.ParseInputString(username)
	if len(username) < 3 {
		return nil, fmt.Errorf("%w: username must be at least 3 characters", apperr.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", apperr.ErrValidation)
	}
	exists, err := as.userRepo.UsernameExists(ctx, nil, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username is already taken", apperr.ErrConflict)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &types.User{
		ID:       uuid.New(),
		Username: username,
		Password: string(hashed),
	}
	if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	as.log.Info("User registered", "username", username)
	return user, nil
}

func (as *authService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	username = normalization.ParseInputString(username)
	users, err := as.userRepo.GetByUsernames(ctx, nil, []string{username})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)
	}

	var accessToken string
	expiresAt := time.Now().Add(as.accessTTL)
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.DeleteExpired(ctx, tx, time.Now()); err != nil {
			return fmt.Errorf("failed to delete expired tokens: %w", err)
		}
		tok, genErr := as.generateAccessToken(user, expiresAt)
		if genErr != nil {
			return fmt.Errorf("failed to generate access token: %w", genErr)
		}
		accessToken = tok
		userToken := types.UserToken{
			ID:          uuid.New(),
			UserID:      user.ID,
			AccessToken: accessToken,
			ExpiresAt:   expiresAt,
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
		return nil
	}); err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiresAt, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return fmt.Errorf("%w: no token in request context", apperr.ErrUnauthorized)
	}
	return as.userTokenRepo.DeleteByAccessTokens(ctx, nil, []string{rd.TokenString})
}

// SetContextFromToken validates the JWT, checks the persisted token row and
// stores the caller identity in the request context.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return ctx, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return ctx, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return ctx, fmt.Errorf("%w: malformed token subject", apperr.ErrUnauthorized)
	}

	tokens, err := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("failed to look up token: %w", err)
	}
	if len(tokens) == 0 || tokens[0].ExpiresAt.Before(time.Now()) {
		return ctx, fmt.Errorf("%w: token revoked or expired", apperr.ErrUnauthorized)
	}

	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return ctx, fmt.Errorf("%w: user no longer exists", apperr.ErrUnauthorized)
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Username:    users[0].Username,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) generateAccessToken(user *types.User, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
