package listing

import (
	"context"
	"testing"

	"github.com/leaftown/property-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockApartmentStore struct{ mock.Mock }

func (m *mockApartmentStore) Put(ctx context.Context, a *domain.Apartment) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockApartmentStore) Get(ctx context.Context, id string) (*domain.Apartment, error) {
	args := m.Called(ctx, id)
	if a, _ := args.Get(0).(*domain.Apartment); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockApartmentStore) List(ctx context.Context) ([]domain.Apartment, error) {
	args := m.Called(ctx)
	if items, _ := args.Get(0).([]domain.Apartment); items != nil {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockApartmentStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}
func (m *mockApartmentStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPlotStore struct{ mock.Mock }

func (m *mockPlotStore) Put(ctx context.Context, p *domain.Plot) error {
	return m.Called(ctx, p).Error(0)
}
func (m *mockPlotStore) Get(ctx context.Context, id string) (*domain.Plot, error) {
	args := m.Called(ctx, id)
	if p, _ := args.Get(0).(*domain.Plot); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPlotStore) List(ctx context.Context) ([]domain.Plot, error) {
	args := m.Called(ctx)
	if items, _ := args.Get(0).([]domain.Plot); items != nil {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockPlotStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}
func (m *mockPlotStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) Get(ctx context.Context, userID string) (*domain.SellerProfile, error) {
	args := m.Called(ctx, userID)
	if p, _ := args.Get(0).(*domain.SellerProfile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func newService(as *mockApartmentStore, ps *mockPlotStore, pr *mockProfileStore) Service {
	return NewService(ServiceDeps{
		ApartmentRepo: as,
		PlotRepo:      ps,
		ProfileRepo:   pr,
	})
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

var sellerProfile = &domain.SellerProfile{UserID: "s1", FirmName: "Leaf Homes"}

// --- apartments ---

func TestCreateApartment_NoSellerProfile(t *testing.T) {
	pr := &mockProfileStore{}
	pr.On("Get", mock.Anything, "s1").Return(nil, domain.ErrNotFound)
	as := &mockApartmentStore{}

	svc := newService(as, nil, pr)
	_, err := svc.CreateApartment(context.Background(), "s1", domain.CreateApartmentRequest{
		Name:     "Green Towers",
		Location: "Kondapur",
		Sqft:     1450,
		BHK:      3,
		Price:    9500000,
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	as.AssertNotCalled(t, "Put")
}

func TestCreateApartment_Success(t *testing.T) {
	pr := &mockProfileStore{}
	pr.On("Get", mock.Anything, "s1").Return(sellerProfile, nil)
	as := &mockApartmentStore{}
	as.On("Put", mock.Anything, mock.MatchedBy(func(a *domain.Apartment) bool {
		return a.SellerID == "s1" && a.Status == domain.ListingAvailable &&
			a.ApartmentID != "" && !a.DateListed.IsZero()
	})).Return(nil)

	svc := newService(as, nil, pr)
	a, err := svc.CreateApartment(context.Background(), "s1", domain.CreateApartmentRequest{
		Name:     "Green Towers",
		Location: "Kondapur",
		Sqft:     1450,
		BHK:      3,
		Price:    9500000,
	})

	require.NoError(t, err)
	assert.Equal(t, "Green Towers", a.Name)
	as.AssertExpectations(t)
}

func TestUpdateApartment_OwnershipEnforced(t *testing.T) {
	as := &mockApartmentStore{}
	as.On("Get", mock.Anything, "a1").Return(
		&domain.Apartment{ApartmentID: "a1", SellerID: "other"}, nil)

	svc := newService(as, nil, &mockProfileStore{})
	_, err := svc.UpdateApartment(context.Background(), "s1", "a1", domain.UpdateApartmentRequest{
		Price: int64Ptr(8000000),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	as.AssertNotCalled(t, "Update")
}

func TestUpdateApartment_BuildsAllowListedMap(t *testing.T) {
	as := &mockApartmentStore{}
	as.On("Get", mock.Anything, "a1").Return(
		&domain.Apartment{ApartmentID: "a1", SellerID: "s1"}, nil)
	as.On("Update", mock.Anything, "a1", map[string]interface{}{
		"price":  int64(8000000),
		"status": domain.ListingSold,
	}).Return(nil)

	svc := newService(as, nil, &mockProfileStore{})
	_, err := svc.UpdateApartment(context.Background(), "s1", "a1", domain.UpdateApartmentRequest{
		Price:  int64Ptr(8000000),
		Status: strPtr(domain.ListingSold),
	})

	require.NoError(t, err)
	as.AssertExpectations(t)
}

func TestUpdateApartment_BadStatus(t *testing.T) {
	as := &mockApartmentStore{}
	as.On("Get", mock.Anything, "a1").Return(
		&domain.Apartment{ApartmentID: "a1", SellerID: "s1"}, nil)

	svc := newService(as, nil, &mockProfileStore{})
	_, err := svc.UpdateApartment(context.Background(), "s1", "a1", domain.UpdateApartmentRequest{
		Status: strPtr("pending"),
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateApartment_NoFields(t *testing.T) {
	as := &mockApartmentStore{}
	as.On("Get", mock.Anything, "a1").Return(
		&domain.Apartment{ApartmentID: "a1", SellerID: "s1"}, nil)

	svc := newService(as, nil, &mockProfileStore{})
	_, err := svc.UpdateApartment(context.Background(), "s1", "a1", domain.UpdateApartmentRequest{})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteApartment_OwnershipEnforced(t *testing.T) {
	as := &mockApartmentStore{}
	as.On("Get", mock.Anything, "a1").Return(
		&domain.Apartment{ApartmentID: "a1", SellerID: "other"}, nil)

	svc := newService(as, nil, &mockProfileStore{})
	err := svc.DeleteApartment(context.Background(), "s1", "a1")

	assert.ErrorIs(t, err, domain.ErrForbidden)
	as.AssertNotCalled(t, "Delete")
}

// --- plots ---

func TestCreatePlot_NoSellerProfile(t *testing.T) {
	pr := &mockProfileStore{}
	pr.On("Get", mock.Anything, "s1").Return(nil, domain.ErrNotFound)
	ps := &mockPlotStore{}

	svc := newService(nil, ps, pr)
	_, err := svc.CreatePlot(context.Background(), "s1", domain.CreatePlotRequest{
		PlotNumber: "P-42",
		Location:   "Shadnagar",
		SizeSqft:   2400,
		Price:      3600000,
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	ps.AssertNotCalled(t, "Put")
}

func TestUpdatePlot_MarkSold(t *testing.T) {
	ps := &mockPlotStore{}
	ps.On("Get", mock.Anything, "p1").Return(
		&domain.Plot{PlotID: "p1", SellerID: "s1", Status: domain.ListingAvailable}, nil)
	ps.On("Update", mock.Anything, "p1", map[string]interface{}{
		"status": domain.ListingSold,
	}).Return(nil)

	svc := newService(nil, ps, &mockProfileStore{})
	_, err := svc.UpdatePlot(context.Background(), "s1", "p1", domain.UpdatePlotRequest{
		Status: strPtr(domain.ListingSold),
	})

	require.NoError(t, err)
	ps.AssertExpectations(t)
}

func TestGetPlot_NotFoundPassesThrough(t *testing.T) {
	ps := &mockPlotStore{}
	ps.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	svc := newService(nil, ps, &mockProfileStore{})
	_, err := svc.GetPlot(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
