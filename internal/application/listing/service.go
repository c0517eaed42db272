package listing

import (
	"context"
	"fmt"
	"time"

	"github.com/leaftown/property-api/internal/domain"
	"github.com/leaftown/property-api/internal/pkg/id"
)

type Service interface {
	CreateApartment(ctx context.Context, sellerID string, req domain.CreateApartmentRequest) (*domain.Apartment, error)
	ListApartments(ctx context.Context) ([]domain.Apartment, error)
	GetApartment(ctx context.Context, apartmentID string) (*domain.Apartment, error)
	UpdateApartment(ctx context.Context, sellerID, apartmentID string, req domain.UpdateApartmentRequest) (*domain.Apartment, error)
	DeleteApartment(ctx context.Context, sellerID, apartmentID string) error

	CreatePlot(ctx context.Context, sellerID string, req domain.CreatePlotRequest) (*domain.Plot, error)
	ListPlots(ctx context.Context) ([]domain.Plot, error)
	GetPlot(ctx context.Context, plotID string) (*domain.Plot, error)
	UpdatePlot(ctx context.Context, sellerID, plotID string, req domain.UpdatePlotRequest) (*domain.Plot, error)
	DeletePlot(ctx context.Context, sellerID, plotID string) error
}

type apartmentStore interface {
	Put(ctx context.Context, a *domain.Apartment) error
	Get(ctx context.Context, apartmentID string) (*domain.Apartment, error)
	List(ctx context.Context) ([]domain.Apartment, error)
	Update(ctx context.Context, apartmentID string, updates map[string]interface{}) error
	Delete(ctx context.Context, apartmentID string) error
}

type plotStore interface {
	Put(ctx context.Context, p *domain.Plot) error
	Get(ctx context.Context, plotID string) (*domain.Plot, error)
	List(ctx context.Context) ([]domain.Plot, error)
	Update(ctx context.Context, plotID string, updates map[string]interface{}) error
	Delete(ctx context.Context, plotID string) error
}

type profileStore interface {
	Get(ctx context.Context, userID string) (*domain.SellerProfile, error)
}

type ServiceDeps struct {
	ApartmentRepo apartmentStore
	PlotRepo      plotStore
	ProfileRepo   profileStore
}

type service struct {
	apartmentRepo apartmentStore
	plotRepo      plotStore
	profileRepo   profileStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		apartmentRepo: deps.ApartmentRepo,
		plotRepo:      deps.PlotRepo,
		profileRepo:   deps.ProfileRepo,
	}
}

// requireSeller verifies the caller has a seller profile. Role claims alone
// are not enough; the profile row must exist.
func (s *service) requireSeller(ctx context.Context, sellerID string) error {
	if _, err := s.profileRepo.Get(ctx, sellerID); err != nil {
		return fmt.Errorf("no seller profile for account: %w", domain.ErrForbidden)
	}
	return nil
}

func (s *service) CreateApartment(ctx context.Context, sellerID string, req domain.CreateApartmentRequest) (*domain.Apartment, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	a := &domain.Apartment{
		ApartmentID:     id.New(),
		SellerID:        sellerID,
		Name:            req.Name,
		TotalBlocks:     req.TotalBlocks,
		Location:        req.Location,
		Facing:          req.Facing,
		Floor:           req.Floor,
		FlatNumber:      req.FlatNumber,
		Sqft:            req.Sqft,
		BHK:             req.BHK,
		FurnishedStatus: req.FurnishedStatus,
		Price:           req.Price,
		Status:          domain.ListingAvailable,
		DateListed:      time.Now().UTC(),
	}
	if err := s.apartmentRepo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) ListApartments(ctx context.Context) ([]domain.Apartment, error) {
	return s.apartmentRepo.List(ctx)
}

func (s *service) GetApartment(ctx context.Context, apartmentID string) (*domain.Apartment, error) {
	return s.apartmentRepo.Get(ctx, apartmentID)
}

func (s *service) UpdateApartment(ctx context.Context, sellerID, apartmentID string, req domain.UpdateApartmentRequest) (*domain.Apartment, error) {
	a, err := s.apartmentRepo.Get(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	if a.SellerID != sellerID {
		return nil, fmt.Errorf("listing belongs to another seller: %w", domain.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Facing != nil {
		updates["facing"] = *req.Facing
	}
	if req.Floor != nil {
		updates["floor"] = *req.Floor
	}
	if req.FlatNumber != nil {
		updates["flat_number"] = *req.FlatNumber
	}
	if req.Sqft != nil {
		updates["sqft"] = *req.Sqft
	}
	if req.BHK != nil {
		updates["bhk"] = *req.BHK
	}
	if req.FurnishedStatus != nil {
		updates["furnished_status"] = *req.FurnishedStatus
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Status != nil {
		if *req.Status != domain.ListingAvailable && *req.Status != domain.ListingSold {
			return nil, fmt.Errorf("status must be available or sold: %w", domain.ErrValidation)
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrValidation)
	}

	if err := s.apartmentRepo.Update(ctx, apartmentID, updates); err != nil {
		return nil, err
	}
	return s.apartmentRepo.Get(ctx, apartmentID)
}

func (s *service) DeleteApartment(ctx context.Context, sellerID, apartmentID string) error {
	a, err := s.apartmentRepo.Get(ctx, apartmentID)
	if err != nil {
		return err
	}
	if a.SellerID != sellerID {
		return fmt.Errorf("listing belongs to another seller: %w", domain.ErrForbidden)
	}
	return s.apartmentRepo.Delete(ctx, apartmentID)
}

func (s *service) CreatePlot(ctx context.Context, sellerID string, req domain.CreatePlotRequest) (*domain.Plot, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	p := &domain.Plot{
		PlotID:     id.New(),
		SellerID:   sellerID,
		PlotNumber: req.PlotNumber,
		Location:   req.Location,
		Facing:     req.Facing,
		SizeSqft:   req.SizeSqft,
		Price:      req.Price,
		Status:     domain.ListingAvailable,
		DateListed: time.Now().UTC(),
	}
	if err := s.plotRepo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ListPlots(ctx context.Context) ([]domain.Plot, error) {
	return s.plotRepo.List(ctx)
}

func (s *service) GetPlot(ctx context.Context, plotID string) (*domain.Plot, error) {
	return s.plotRepo.Get(ctx, plotID)
}

func (s *service) UpdatePlot(ctx context.Context, sellerID, plotID string, req domain.UpdatePlotRequest) (*domain.Plot, error) {
	p, err := s.plotRepo.Get(ctx, plotID)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, fmt.Errorf("listing belongs to another seller: %w", domain.ErrForbidden)
	}

	updates := map[string]interface{}{}
	if req.PlotNumber != nil {
		updates["plot_number"] = *req.PlotNumber
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Facing != nil {
		updates["facing"] = *req.Facing
	}
	if req.SizeSqft != nil {
		updates["size_sqft"] = *req.SizeSqft
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Status != nil {
		if *req.Status != domain.ListingAvailable && *req.Status != domain.ListingSold {
			return nil, fmt.Errorf("status must be available or sold: %w", domain.ErrValidation)
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrValidation)
	}

	if err := s.plotRepo.Update(ctx, plotID, updates); err != nil {
		return nil, err
	}
	return s.plotRepo.Get(ctx, plotID)
}

func (s *service) DeletePlot(ctx context.Context, sellerID, plotID string) error {
	p, err := s.plotRepo.Get(ctx, plotID)
	if err != nil {
		return err
	}
	if p.SellerID != sellerID {
		return fmt.Errorf("listing belongs to another seller: %w", domain.ErrForbidden)
	}
	return s.plotRepo.Delete(ctx, plotID)
}
