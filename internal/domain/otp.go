package domain

// OtpRecord is the ephemeral credential-verification artifact for one user.
// Keyed by user_id: issuing a new code overwrites the record, superseding any
// prior unconsumed code, so at most one code per user is ever live.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OtpRecord struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Code      string `json:"-" dynamodbav:"code"`
	IssuedAt  int64  `json:"issued_at" dynamodbav:"issued_at"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
	Consumed  bool   `json:"consumed" dynamodbav:"consumed"`
}
