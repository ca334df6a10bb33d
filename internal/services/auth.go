package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/repos"
  "github.com/yungbote/lessonforge-backend/internal/types"
  "github.com/yungbote/lessonforge-backend/internal/utils"
)

var (
  ErrEmailTaken         = errors.New("email already registered")
  ErrInvalidCredentials = errors.New("invalid email or password")
)

type AuthService interface {
  Register(ctx context.Context, email, password, firstName, lastName string) (*types.User, string, error)
  Login(ctx context.Context, email, password string) (*types.User, string, error)
  ParseToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
  log       *logger.Logger
  userRepo  repos.UserRepo
  jwtSecret []byte
  tokenTTL  time.Duration
}

func NewAuthService(baseLog *logger.Logger, userRepo repos.UserRepo) (AuthService, error) {
  secret := utils.GetEnv("JWT_SECRET", "", baseLog)
  if secret == "" {
    return nil, fmt.Errorf("missing JWT_SECRET")
  }
  ttlHours := utils.GetEnvAsInt("JWT_TTL_HOURS", 72, baseLog)
  return &authService{
    log:       baseLog.With("service", "AuthService"),
    userRepo:  userRepo,
    jwtSecret: []byte(secret),
    tokenTTL:  time.Duration(ttlHours) * time.Hour,
  }, nil
}

func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string) (*types.User, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" || password == "" {
    return nil, "", ErrInvalidCredentials
  }

  exists, err := s.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, "", fmt.Errorf("check email: %w", err)
  }
  if exists {
    return nil, "", ErrEmailTaken
  }

  hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, "", fmt.Errorf("hash password: %w", err)
  }

  user := &types.User{
    ID:        uuid.New(),
    Email:     email,
    Password:  string(hash),
    FirstName: firstName,
    LastName:  lastName,
  }
  created, err := s.userRepo.Create(ctx, nil, []*types.User{user})
  if err != nil {
    return nil, "", fmt.Errorf("create user: %w", err)
  }

  token, err := s.issueToken(created[0].ID)
  if err != nil {
    return nil, "", err
  }
  return created[0], token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))

  user, err := s.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    return nil, "", fmt.Errorf("load user: %w", err)
  }
  if user == nil {
    return nil, "", ErrInvalidCredentials
  }
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return nil, "", ErrInvalidCredentials
  }

  token, err := s.issueToken(user.ID)
  if err != nil {
    return nil, "", err
  }
  return user, token, nil
}

func (s *authService) issueToken(userID uuid.UUID) (string, error) {
  now := time.Now()
  claims := jwt.RegisteredClaims{
    Subject:   userID.String(),
    IssuedAt:  jwt.NewNumericDate(now),
    ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString(s.jwtSecret)
  if err != nil {
    return "", fmt.Errorf("sign token: %w", err)
  }
  return signed, nil
}

func (s *authService) ParseToken(tokenString string) (uuid.UUID, error) {
  token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
    }
    return s.jwtSecret, nil
  })
  if err != nil || !token.Valid {
    return uuid.Nil, ErrInvalidCredentials
  }
  claims, ok := token.Claims.(*jwt.RegisteredClaims)
  if !ok {
    return uuid.Nil, ErrInvalidCredentials
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return uuid.Nil, ErrInvalidCredentials
  }
  return userID, nil
}
