package dynamo

// DynamoDB attribute names used in update and condition expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldRefreshToken = "refresh_token"
	fieldConsumed     = "consumed"
	fieldUpdatedAt    = "updated_at"
	fieldCode         = "code"
)
