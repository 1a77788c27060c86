package dynamo

// DynamoDB attribute names used in key and condition expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	attrOwnerID   = "owner_id"
	attrValue     = "value"
	attrConsumed  = "consumed"
	attrExpiresAt = "expires_at"
	attrCreatedAt = "created_at"
)
