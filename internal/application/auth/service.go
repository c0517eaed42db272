package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/leaftown/property-api/internal/domain"
	jwtinfra "github.com/leaftown/property-api/internal/infrastructure/jwt"
	"github.com/leaftown/property-api/internal/pkg/id"
	"github.com/leaftown/property-api/internal/pkg/otp"
)

type SendOTPRequest struct {
	Identity string `json:"identity" validate:"required"`
}

type VerifyOTPRequest struct {
	Identity string `json:"identity" validate:"required"`
	Code     string `json:"code" validate:"required,len=6"`
}

// TokenPair is the result of a successful OTP verification or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	SendOTP(ctx context.Context, req SendOTPRequest) (role string, err error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User, profile *domain.SellerProfile) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByIdentity(ctx context.Context, identity string) (*domain.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, presented, next string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

type otpStore interface {
	Put(ctx context.Context, rec *domain.OtpRecord) error
	Get(ctx context.Context, userID string) (*domain.OtpRecord, error)
	Consume(ctx context.Context, userID, code string) error
}

type tokenProvider interface {
	SignAccess(userID, role string) (string, error)
	SignRefresh(userID, role string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

type ServiceDeps struct {
	UserRepo    userStore
	OtpRepo     otpStore
	JWTProvider tokenProvider
	SMSSender   smsSender
	Mailer      mailSender
	OTPTTL      time.Duration
}

type service struct {
	userRepo    userStore
	otpRepo     otpStore
	jwtProvider tokenProvider
	smsSender   smsSender
	mailer      mailSender
	otpTTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:    deps.UserRepo,
		otpRepo:     deps.OtpRepo,
		jwtProvider: deps.JWTProvider,
		smsSender:   deps.SMSSender,
		mailer:      deps.Mailer,
		otpTTL:      deps.OTPTTL,
	}
}

var phoneRE = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// normalizeIdentity lowercases emails and validates phone numbers as E.164.
func normalizeIdentity(identity string) (string, error) {
	identity = strings.TrimSpace(identity)
	if strings.Contains(identity, "@") {
		return strings.ToLower(identity), nil
	}
	if !phoneRE.MatchString(identity) {
		return "", fmt.Errorf("identity must be an email or E.164 phone number: %w", domain.ErrValidation)
	}
	return identity, nil
}

func isEmail(identity string) bool {
	return strings.Contains(identity, "@")
}

// Register creates a user account. Sellers also get a SellerProfile, written in
// the same transaction as the user row so a seller account never exists without
// its profile.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	identity, err := normalizeIdentity(req.Identity)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:      id.New(),
		Identity:    identity,
		Role:        req.Role,
		DisplayName: req.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var profile *domain.SellerProfile
	if req.Role == domain.RoleSeller {
		if req.FirmName == nil || *req.FirmName == "" ||
			req.Address == nil || *req.Address == "" ||
			req.GSTNumber == nil || *req.GSTNumber == "" {
			return nil, fmt.Errorf("seller registration requires firm_name, address and gst_number: %w", domain.ErrValidation)
		}
		profile = &domain.SellerProfile{
			UserID:    u.UserID,
			FirmName:  *req.FirmName,
			Address:   *req.Address,
			GSTNumber: *req.GSTNumber,
			CreatedAt: now,
		}
	}

	if err := s.userRepo.Create(ctx, u, profile); err != nil {
		return nil, err
	}
	return u, nil
}

// SendOTP issues a fresh one-time code for the account and delivers it over
// SMS or email depending on the identity. Issuing a new code supersedes any
// previous one for the same account.
func (s *service) SendOTP(ctx context.Context, req SendOTPRequest) (string, error) {
	identity, err := normalizeIdentity(req.Identity)
	if err != nil {
		return "", err
	}
	u, err := s.userRepo.GetByIdentity(ctx, identity)
	if err != nil {
		return "", err
	}

	code, err := otp.NewCode()
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	rec := &domain.OtpRecord{
		UserID:    u.UserID,
		Code:      code,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.otpTTL).Unix(),
	}
	if err := s.otpRepo.Put(ctx, rec); err != nil {
		return "", err
	}

	if isEmail(identity) {
		if err := s.mailer.SendEmail(identity, "Your login code", "Your login code: "+code); err != nil {
			return "", err
		}
	} else {
		if err := s.smsSender.SendSMS(ctx, identity, "Your login code: "+code); err != nil {
			return "", err
		}
	}
	return u.Role, nil
}

// VerifyOTP checks and consumes the pending code for the account. The consume
// is a conditional write, so a code that verifies twice concurrently only
// succeeds once. On success a new token pair is issued and the refresh token
// is bound to the account.
func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*TokenPair, error) {
	identity, err := normalizeIdentity(req.Identity)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	rec, err := s.otpRepo.Get(ctx, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("no pending code: %w", domain.ErrInvalidOtp)
	}
	if rec.Consumed {
		return nil, fmt.Errorf("code already used: %w", domain.ErrInvalidOtp)
	}
	if rec.Code != req.Code {
		return nil, fmt.Errorf("code mismatch: %w", domain.ErrInvalidOtp)
	}
	if rec.ExpiresAt < time.Now().Unix() {
		return nil, fmt.Errorf("code expired: %w", domain.ErrExpiredOtp)
	}
	if err := s.otpRepo.Consume(ctx, u.UserID, req.Code); err != nil {
		return nil, err
	}

	access, err := s.jwtProvider.SignAccess(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtProvider.SignRefresh(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetRefreshToken(ctx, u.UserID, refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = &refresh
	return &TokenPair{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

// Refresh rotates the refresh token. The presented token must be valid,
// unexpired, and byte-equal to the one bound to the account; the swap is a
// compare-and-set on the stored value, so of two concurrent refreshes with
// the same token exactly one wins.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtProvider.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("account not found for token: %w", domain.ErrInvalidToken)
	}
	if u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		return nil, fmt.Errorf("refresh token not current: %w", domain.ErrInvalidToken)
	}

	access, err := s.jwtProvider.SignAccess(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	next, err := s.jwtProvider.SignRefresh(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SwapRefreshToken(ctx, u.UserID, refreshToken, next); err != nil {
		return nil, err
	}
	u.RefreshToken = &next
	return &TokenPair{AccessToken: access, RefreshToken: next, User: u}, nil
}

// Logout unbinds the stored refresh token, invalidating it regardless of its
// remaining lifetime. Outstanding access tokens stay valid until they expire.
func (s *service) Logout(ctx context.Context, userID string) error {
	return s.userRepo.ClearRefreshToken(ctx, userID)
}
