package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leaftown/property-api/internal/domain"
	jwtinfra "github.com/leaftown/property-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User, profile *domain.SellerProfile) error {
	return m.Called(ctx, u, profile).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	args := m.Called(ctx, identity)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) SetRefreshToken(ctx context.Context, userID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}
func (m *mockUserStore) SwapRefreshToken(ctx context.Context, userID, presented, next string) error {
	return m.Called(ctx, userID, presented, next).Error(0)
}
func (m *mockUserStore) ClearRefreshToken(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockOtpStore struct{ mock.Mock }

func (m *mockOtpStore) Put(ctx context.Context, rec *domain.OtpRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *mockOtpStore) Get(ctx context.Context, userID string) (*domain.OtpRecord, error) {
	args := m.Called(ctx, userID)
	if rec, _ := args.Get(0).(*domain.OtpRecord); rec != nil {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockOtpStore) Consume(ctx context.Context, userID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}

type mockTokenProvider struct{ mock.Mock }

func (m *mockTokenProvider) SignAccess(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}
func (m *mockTokenProvider) SignRefresh(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}
func (m *mockTokenProvider) Verify(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

// --- builder ---

func newService(us userStore, os otpStore, tp tokenProvider, sms smsSender, ml mailSender) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		OtpRepo:     os,
		JWTProvider: tp,
		SMSSender:   sms,
		Mailer:      ml,
		OTPTTL:      5 * time.Minute,
	})
}

func strPtr(s string) *string { return &s }

func claimsFor(userID, role string) *jwtinfra.Claims {
	return &jwtinfra.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}
}

// --- Register ---

func TestRegister_Buyer_NoProfile(t *testing.T) {
	us := &mockUserStore{}
	us.On("Create", mock.Anything, mock.Anything, (*domain.SellerProfile)(nil)).Return(nil)

	svc := newService(us, nil, nil, nil, nil)
	u, err := svc.Register(context.Background(), domain.RegisterRequest{
		Identity:    "Buyer@Example.COM",
		Role:        domain.RoleBuyer,
		DisplayName: "Buyer One",
	})

	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", u.Identity)
	assert.Equal(t, domain.RoleBuyer, u.Role)
	assert.NotEmpty(t, u.UserID)
	us.AssertExpectations(t)
}

func TestRegister_Seller_CreatesProfile(t *testing.T) {
	us := &mockUserStore{}
	us.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.SellerProfile) bool {
		return p != nil && p.FirmName == "Leaf Homes" && p.GSTNumber == "36AABCL1234F1Z5"
	})).Return(nil)

	svc := newService(us, nil, nil, nil, nil)
	u, err := svc.Register(context.Background(), domain.RegisterRequest{
		Identity:    "+919876543210",
		Role:        domain.RoleSeller,
		DisplayName: "Seller One",
		FirmName:    strPtr("Leaf Homes"),
		Address:     strPtr("12 Jubilee Hills"),
		GSTNumber:   strPtr("36AABCL1234F1Z5"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, u.Role)
	us.AssertExpectations(t)
}

func TestRegister_Seller_MissingFirmFields(t *testing.T) {
	us := &mockUserStore{}

	svc := newService(us, nil, nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Identity:    "+919876543210",
		Role:        domain.RoleSeller,
		DisplayName: "Seller One",
		FirmName:    strPtr("Leaf Homes"),
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	us.AssertNotCalled(t, "Create")
}

func TestRegister_BadPhoneIdentity(t *testing.T) {
	svc := newService(&mockUserStore{}, nil, nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Identity:    "9876543210", // missing +country prefix
		Role:        domain.RoleBuyer,
		DisplayName: "Buyer",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister_DuplicateIdentity(t *testing.T) {
	us := &mockUserStore{}
	us.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(
		fmt.Errorf("identity already registered: %w", domain.ErrConflict))

	svc := newService(us, nil, nil, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Identity:    "dupe@example.com",
		Role:        domain.RoleBuyer,
		DisplayName: "Dupe",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// --- SendOTP ---

func TestSendOTP_UnknownIdentity(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByIdentity", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil, nil, nil)
	_, err := svc.SendOTP(context.Background(), SendOTPRequest{Identity: "nobody@example.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendOTP_Email_DeliversAndReturnsRole(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	ml := &mockMailer{}
	us.On("GetByIdentity", mock.Anything, "seller@example.com").Return(
		&domain.User{UserID: "u1", Identity: "seller@example.com", Role: domain.RoleSeller}, nil)
	os.On("Put", mock.Anything, mock.MatchedBy(func(rec *domain.OtpRecord) bool {
		return rec.UserID == "u1" && len(rec.Code) == 6 && !rec.Consumed &&
			rec.ExpiresAt > rec.IssuedAt
	})).Return(nil)
	ml.On("SendEmail", "seller@example.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(us, os, nil, nil, ml)
	role, err := svc.SendOTP(context.Background(), SendOTPRequest{Identity: "Seller@Example.com"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleSeller, role)
	os.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func TestSendOTP_Phone_DeliversViaSMS(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	sms := &mockSMSSender{}
	us.On("GetByIdentity", mock.Anything, "+919876543210").Return(
		&domain.User{UserID: "u1", Identity: "+919876543210", Role: domain.RoleBuyer}, nil)
	os.On("Put", mock.Anything, mock.Anything).Return(nil)
	sms.On("SendSMS", mock.Anything, "+919876543210", mock.Anything).Return(nil)

	svc := newService(us, os, nil, sms, nil)
	role, err := svc.SendOTP(context.Background(), SendOTPRequest{Identity: "+919876543210"})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleBuyer, role)
	sms.AssertExpectations(t)
}

// --- VerifyOTP ---

func validOtpRecord(code string) *domain.OtpRecord {
	now := time.Now().Unix()
	return &domain.OtpRecord{
		UserID:    "u1",
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now + 300,
	}
}

func TestVerifyOTP_Success(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	tp := &mockTokenProvider{}
	us.On("GetByIdentity", mock.Anything, "buyer@example.com").Return(
		&domain.User{UserID: "u1", Identity: "buyer@example.com", Role: domain.RoleBuyer}, nil)
	os.On("Get", mock.Anything, "u1").Return(validOtpRecord("123456"), nil)
	os.On("Consume", mock.Anything, "u1", "123456").Return(nil)
	tp.On("SignAccess", "u1", domain.RoleBuyer).Return("access-1", nil)
	tp.On("SignRefresh", "u1", domain.RoleBuyer).Return("refresh-1", nil)
	us.On("SetRefreshToken", mock.Anything, "u1", "refresh-1").Return(nil)

	svc := newService(us, os, tp, nil, nil)
	pair, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Identity: "buyer@example.com",
		Code:     "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-1", pair.AccessToken)
	assert.Equal(t, "refresh-1", pair.RefreshToken)
	require.NotNil(t, pair.User)
	assert.Equal(t, "u1", pair.User.UserID)
	us.AssertExpectations(t)
	os.AssertExpectations(t)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	us.On("GetByIdentity", mock.Anything, "buyer@example.com").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer}, nil)
	os.On("Get", mock.Anything, "u1").Return(validOtpRecord("123456"), nil)

	svc := newService(us, os, nil, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Identity: "buyer@example.com",
		Code:     "654321",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidOtp)
	os.AssertNotCalled(t, "Consume")
}

func TestVerifyOTP_Expired(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	us.On("GetByIdentity", mock.Anything, "buyer@example.com").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer}, nil)
	rec := validOtpRecord("123456")
	rec.ExpiresAt = time.Now().Unix() - 1
	os.On("Get", mock.Anything, "u1").Return(rec, nil)

	svc := newService(us, os, nil, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Identity: "buyer@example.com",
		Code:     "123456",
	})

	assert.ErrorIs(t, err, domain.ErrExpiredOtp)
	os.AssertNotCalled(t, "Consume")
}

func TestVerifyOTP_AlreadyConsumed(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	us.On("GetByIdentity", mock.Anything, "buyer@example.com").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer}, nil)
	rec := validOtpRecord("123456")
	rec.Consumed = true
	os.On("Get", mock.Anything, "u1").Return(rec, nil)

	svc := newService(us, os, nil, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Identity: "buyer@example.com",
		Code:     "123456",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidOtp)
}

func TestVerifyOTP_NoPendingCode(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	us.On("GetByIdentity", mock.Anything, "buyer@example.com").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer}, nil)
	os.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	svc := newService(us, os, nil, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Identity: "buyer@example.com",
		Code:     "123456",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidOtp)
}

func TestVerifyOTP_ConsumeRaceLoses(t *testing.T) {
	us := &mockUserStore{}
	os := &mockOtpStore{}
	us.On("GetByIdentity", mock.Anything, "buyer@example.com").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer}, nil)
	os.On("Get", mock.Anything, "u1").Return(validOtpRecord("123456"), nil)
	// Another verification consumed the code between Get and Consume.
	os.On("Consume", mock.Anything, "u1", "123456").Return(
		fmt.Errorf("otp already consumed or mismatched: %w", domain.ErrInvalidOtp))

	svc := newService(us, os, nil, nil, nil)
	_, err := svc.VerifyOTP(context.Background(), VerifyOTPRequest{
		Identity: "buyer@example.com",
		Code:     "123456",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidOtp)
	us.AssertNotCalled(t, "SetRefreshToken")
}

// --- Refresh ---

func TestRefresh_Success_Rotates(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "refresh-old").Return(claimsFor("u1", domain.RoleBuyer), nil)
	us.On("Get", mock.Anything, "u1").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer, RefreshToken: strPtr("refresh-old")}, nil)
	tp.On("SignAccess", "u1", domain.RoleBuyer).Return("access-2", nil)
	tp.On("SignRefresh", "u1", domain.RoleBuyer).Return("refresh-new", nil)
	us.On("SwapRefreshToken", mock.Anything, "u1", "refresh-old", "refresh-new").Return(nil)

	svc := newService(us, nil, tp, nil, nil)
	pair, err := svc.Refresh(context.Background(), "refresh-old")

	require.NoError(t, err)
	assert.Equal(t, "access-2", pair.AccessToken)
	assert.Equal(t, "refresh-new", pair.RefreshToken)
	us.AssertExpectations(t)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	tp := &mockTokenProvider{}
	tp.On("Verify", "refresh-old").Return(claimsFor("u1", domain.RoleBuyer),
		fmt.Errorf("token expired: %w", domain.ErrExpiredToken))

	svc := newService(&mockUserStore{}, nil, tp, nil, nil)
	_, err := svc.Refresh(context.Background(), "refresh-old")

	assert.ErrorIs(t, err, domain.ErrExpiredToken)
}

func TestRefresh_StoredTokenMismatch(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "refresh-old").Return(claimsFor("u1", domain.RoleBuyer), nil)
	// A newer token has been issued; the presented one is stale.
	us.On("Get", mock.Anything, "u1").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer, RefreshToken: strPtr("refresh-newer")}, nil)

	svc := newService(us, nil, tp, nil, nil)
	_, err := svc.Refresh(context.Background(), "refresh-old")

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	us.AssertNotCalled(t, "SwapRefreshToken")
}

func TestRefresh_NoStoredToken(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "refresh-old").Return(claimsFor("u1", domain.RoleBuyer), nil)
	// Logged out: no refresh token bound to the account.
	us.On("Get", mock.Anything, "u1").Return(
		&domain.User{UserID: "u1", Role: domain.RoleBuyer}, nil)

	svc := newService(us, nil, tp, nil, nil)
	_, err := svc.Refresh(context.Background(), "refresh-old")

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefresh_UnknownUser(t *testing.T) {
	us := &mockUserStore{}
	tp := &mockTokenProvider{}
	tp.On("Verify", "refresh-old").Return(claimsFor("gone", domain.RoleBuyer), nil)
	us.On("Get", mock.Anything, "gone").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, tp, nil, nil)
	_, err := svc.Refresh(context.Background(), "refresh-old")

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

// --- concurrent rotation ---

// fakeUserStore implements the compare-and-set semantics of the real store in
// memory, so two concurrent Refresh calls race against a genuine CAS.
type fakeUserStore struct {
	mu   sync.Mutex
	user domain.User
}

func (f *fakeUserStore) Create(context.Context, *domain.User, *domain.SellerProfile) error {
	return nil
}
func (f *fakeUserStore) Get(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.user
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		u.RefreshToken = &token
	}
	return &u, nil
}
func (f *fakeUserStore) GetByIdentity(_ context.Context, identity string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.RefreshToken = &token
	return nil
}
func (f *fakeUserStore) SwapRefreshToken(_ context.Context, userID, presented, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user.RefreshToken == nil || *f.user.RefreshToken != presented {
		return fmt.Errorf("refresh token superseded: %w", domain.ErrInvalidToken)
	}
	f.user.RefreshToken = &next
	return nil
}
func (f *fakeUserStore) ClearRefreshToken(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.RefreshToken = nil
	return nil
}

// countingTokenProvider issues unique refresh tokens and accepts any token.
type countingTokenProvider struct {
	mu sync.Mutex
	n  int
}

func (c *countingTokenProvider) SignAccess(userID, role string) (string, error) {
	return "access", nil
}
func (c *countingTokenProvider) SignRefresh(userID, role string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return fmt.Sprintf("refresh-%d", c.n), nil
}
func (c *countingTokenProvider) Verify(token string) (*jwtinfra.Claims, error) {
	return claimsFor("u1", domain.RoleBuyer), nil
}

func TestRefresh_ConcurrentRotation_ExactlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		old := "refresh-0"
		store := &fakeUserStore{user: domain.User{UserID: "u1", Role: domain.RoleBuyer, RefreshToken: &old}}
		svc := newService(store, nil, &countingTokenProvider{}, nil, nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, errs[j] = svc.Refresh(context.Background(), old)
			}(j)
		}
		wg.Wait()

		winners := 0
		for _, err := range errs {
			if err == nil {
				winners++
			} else {
				require.ErrorIs(t, err, domain.ErrInvalidToken)
			}
		}
		require.Equal(t, 1, winners, "exactly one concurrent refresh must win")
	}
}

// --- Logout ---

func TestLogout_ClearsRefreshToken(t *testing.T) {
	us := &mockUserStore{}
	us.On("ClearRefreshToken", mock.Anything, "u1").Return(nil)

	svc := newService(us, nil, nil, nil, nil)
	require.NoError(t, svc.Logout(context.Background(), "u1"))
	us.AssertExpectations(t)
}
