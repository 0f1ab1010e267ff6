package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/trustcircles/backend/internal/models"
)

// ErrDuplicateEmail is returned when registering with an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned on a failed login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AccountStore is the minimal account persistence interface for auth.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Funder credits a freshly registered account so it can stake
// immediately; backed by the token ledger's deposit path.
type Funder interface {
	Deposit(ctx context.Context, to uuid.UUID, amount, feePercent uint64) error
}

type Service interface {
	Register(ctx context.Context, email, password, name string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
}

type service struct {
	accounts   AccountStore
	funder     Funder
	secret     []byte
	grantUnits uint64
	feePercent uint64
}

// NewService creates the auth service. grantUnits is the signup faucet
// deposit; zero disables it.
func NewService(accounts AccountStore, funder Funder, secret string, grantUnits, feePercent uint64) Service {
	return &service{
		accounts:   accounts,
		funder:     funder,
		secret:     []byte(secret),
		grantUnits: grantUnits,
		feePercent: feePercent,
	}
}

var _ Service = (*service)(nil)

func (s *service) Register(ctx context.Context, email, password, name string) (*models.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acc := &models.Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	if s.grantUnits > 0 && s.funder != nil {
		if err := s.funder.Deposit(ctx, acc.ID, s.grantUnits, s.feePercent); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(acc.ID)
}

func (s *service) issueToken(accountID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(_ context.Context, token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	return uuid.Parse(claims.Subject)
}
