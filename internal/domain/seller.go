package domain

import "time"

// SellerProfile is the 1:1 extension of a User with role "seller".
// It is created inside the registration transaction; a seller-gated operation
// performed by a user without a profile is a hard authorization failure.
type SellerProfile struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	FirmName  string    `json:"firm_name" dynamodbav:"firm_name"`
	Address   string    `json:"address" dynamodbav:"address"`
	GSTNumber string    `json:"gst_number" dynamodbav:"gst_number"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
