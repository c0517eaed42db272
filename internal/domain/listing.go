package domain

import "time"

const (
	ListingAvailable = "available"
	ListingSold      = "sold"
)

type Apartment struct {
	ApartmentID     string    `json:"id" dynamodbav:"apartment_id"`
	SellerID        string    `json:"seller_id" dynamodbav:"seller_id"`
	Name            string    `json:"name" dynamodbav:"name"`
	TotalBlocks     int       `json:"total_blocks" dynamodbav:"total_blocks"`
	Location        string    `json:"location" dynamodbav:"location"`
	Facing          string    `json:"facing" dynamodbav:"facing"`
	Floor           int       `json:"floor" dynamodbav:"floor"`
	FlatNumber      string    `json:"flat_number" dynamodbav:"flat_number"`
	Sqft            int       `json:"sqft" dynamodbav:"sqft"`
	BHK             int       `json:"bhk" dynamodbav:"bhk"`
	FurnishedStatus string    `json:"furnished_status" dynamodbav:"furnished_status"`
	Price           int64     `json:"price" dynamodbav:"price"`
	Status          string    `json:"status" dynamodbav:"status"`
	DateListed      time.Time `json:"date_listed" dynamodbav:"date_listed"`
}

type Plot struct {
	PlotID     string    `json:"id" dynamodbav:"plot_id"`
	SellerID   string    `json:"seller_id" dynamodbav:"seller_id"`
	PlotNumber string    `json:"plot_number" dynamodbav:"plot_number"`
	Location   string    `json:"location" dynamodbav:"location"`
	Facing     string    `json:"facing" dynamodbav:"facing"`
	SizeSqft   int       `json:"size_sqft" dynamodbav:"size_sqft"`
	Price      int64     `json:"price" dynamodbav:"price"`
	Status     string    `json:"status" dynamodbav:"status"`
	DateListed time.Time `json:"date_listed" dynamodbav:"date_listed"`
}

type CreateApartmentRequest struct {
	Name            string `json:"name" validate:"required"`
	TotalBlocks     int    `json:"total_blocks"`
	Location        string `json:"location" validate:"required"`
	Facing          string `json:"facing"`
	Floor           int    `json:"floor"`
	FlatNumber      string `json:"flat_number"`
	Sqft            int    `json:"sqft" validate:"gt=0"`
	BHK             int    `json:"bhk" validate:"gt=0"`
	FurnishedStatus string `json:"furnished_status"`
	Price           int64  `json:"price" validate:"gt=0"`
}

// UpdateApartmentRequest carries an explicit allow-listed field set.
// Persisted updates are built from these pointers, never from a request-shaped map.
type UpdateApartmentRequest struct {
	Name            *string `json:"name"`
	Location        *string `json:"location"`
	Facing          *string `json:"facing"`
	Floor           *int    `json:"floor"`
	FlatNumber      *string `json:"flat_number"`
	Sqft            *int    `json:"sqft"`
	BHK             *int    `json:"bhk"`
	FurnishedStatus *string `json:"furnished_status"`
	Price           *int64  `json:"price"`
	Status          *string `json:"status"`
}

type CreatePlotRequest struct {
	PlotNumber string `json:"plot_number" validate:"required"`
	Location   string `json:"location" validate:"required"`
	Facing     string `json:"facing"`
	SizeSqft   int    `json:"size_sqft" validate:"gt=0"`
	Price      int64  `json:"price" validate:"gt=0"`
}

type UpdatePlotRequest struct {
	PlotNumber *string `json:"plot_number"`
	Location   *string `json:"location"`
	Facing     *string `json:"facing"`
	SizeSqft   *int    `json:"size_sqft"`
	Price      *int64  `json:"price"`
	Status     *string `json:"status"`
}
