package domain

import "time"

// ListingImage records an uploaded listing photo stored in S3.
type ListingImage struct {
	ImageID     string    `json:"id" dynamodbav:"image_id"`
	SellerID    string    `json:"seller_id" dynamodbav:"seller_id"`
	Object      string    `json:"object" dynamodbav:"object"`
	Name        string    `json:"name" dynamodbav:"name"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	Size        int64     `json:"size" dynamodbav:"size"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}
