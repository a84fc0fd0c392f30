package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/repos"
  "github.com/yungbote/reelforge-backend/internal/requestdata"
  "github.com/yungbote/reelforge-backend/internal/types"
)

type JWTClaims struct {
  Email string `json:"email"`
  Role  string `json:"role"`
  jwt.RegisteredClaims
}

type AuthService interface {
  RegisterUser(ctx context.Context, email, password, name string) (*types.UserAccount, string, error)
  LoginUser(ctx context.Context, email, password string) (*types.UserAccount, string, error)
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  avatarService AvatarService
  jwtSecretKey  string
  accessTTL     time.Duration
}

func NewAuthService(
  db *gorm.DB,
  log *logger.Logger,
  userRepo repos.UserRepo,
  avatarService AvatarService,
  jwtSecretKey string,
  accessTTL time.Duration,
) AuthService {
  return &authService{
    db:            db,
    log:           log.With("service", "AuthService"),
    userRepo:      userRepo,
    avatarService: avatarService,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, email, password, name string) (*types.UserAccount, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  if email == "" || !strings.Contains(email, "@") {
    return nil, "", fmt.Errorf("%w: valid email required", ErrValidation)
  }
  if len(password) < 8 {
    return nil, "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
  }

  exists, err := as.userRepo.EmailExists(ctx, nil, email)
  if err != nil {
    return nil, "", fmt.Errorf("check email: %w", err)
  }
  if exists {
    return nil, "", fmt.Errorf("%w: email already registered", ErrValidation)
  }

  hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
  if err != nil {
    return nil, "", fmt.Errorf("hash password: %w", err)
  }

  now := time.Now()
  user := &types.UserAccount{
    ID:        uuid.New(),
    Email:     email,
    Password:  string(hashed),
    Name:      strings.TrimSpace(name),
    Role:      types.UserRoleUser,
    Coins:     types.DefaultCoins,
    CreatedAt: now,
    UpdatedAt: now,
  }

  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if as.avatarService != nil {
      if aErr := as.avatarService.CreateAndUploadUserAvatar(ctx, user); aErr != nil {
        as.log.Warn("initials avatar generation failed (ignored)", "error", aErr)
      }
    }
    if _, cErr := as.userRepo.Create(ctx, tx, []*types.UserAccount{user}); cErr != nil {
      return fmt.Errorf("create user: %w", cErr)
    }
    return nil
  })
  if err != nil {
    return nil, "", err
  }

  token, err := as.generateAccessToken(user)
  if err != nil {
    return nil, "", err
  }
  return user, token, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.UserAccount, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))

  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return nil, "", fmt.Errorf("load user: %w", err)
  }
  if len(users) == 0 || users[0] == nil {
    return nil, "", fmt.Errorf("%w: invalid email or password", ErrAuth)
  }
  user := users[0]

  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return nil, "", fmt.Errorf("%w: invalid email or password", ErrAuth)
  }

  token, err := as.generateAccessToken(user)
  if err != nil {
    return nil, "", err
  }
  return user, token, nil
}

func (as *authService) generateAccessToken(user *types.UserAccount) (string, error) {
  claims := JWTClaims{
    Email: user.Email,
    Role:  user.Role,
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  signed, err := token.SignedString([]byte(as.jwtSecretKey))
  if err != nil {
    return "", fmt.Errorf("sign token: %w", err)
  }
  return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, fmt.Errorf("%w: missing token", ErrAuth)
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("%w: parse token: %v", ErrAuth, err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("%w: invalid or expired token", ErrAuth)
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("%w: invalid user id in token", ErrAuth)
  }

  rd := &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
    UserEmail:   claims.Email,
    UserRole:    claims.Role,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
