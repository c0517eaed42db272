package domain

import "time"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// User is an identity record. Identity is a phone number in E.164 form or an
// email address; exactly one user may own a given identity.
//
// RefreshToken mirrors the currently valid refresh credential and is the single
// source of truth for whether a presented refresh token is still live. It is
// mutated only on issue, rotation, and logout.
type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Identity     string    `json:"identity" dynamodbav:"identity"`
	Role         string    `json:"role" dynamodbav:"role"`
	DisplayName  string    `json:"display_name" dynamodbav:"display_name"`
	RefreshToken *string   `json:"-" dynamodbav:"refresh_token"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Identity    string  `json:"identity" validate:"required"`
	Role        string  `json:"role" validate:"required,oneof=buyer seller"`
	DisplayName string  `json:"display_name" validate:"required"`
	FirmName    *string `json:"firm_name"`
	Address     *string `json:"address"`
	GSTNumber   *string `json:"gst_number"`
}
