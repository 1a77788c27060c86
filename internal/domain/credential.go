package domain

// Credential is one outstanding verification attempt.
// PK: owner_id, SK: value. ExpiresAt is a Unix timestamp used as DynamoDB TTL,
// so dead documents are garbage-collected by the store itself.
//
// CredentialID is an issuance ULID carried for log and metric correlation;
// the secret Value must never appear in logs.
type Credential struct {
	OwnerID      string `json:"owner_id" dynamodbav:"owner_id"`
	Value        string `json:"value" dynamodbav:"value"`
	CredentialID string `json:"credential_id" dynamodbav:"credential_id"`
	Email        string `json:"email" dynamodbav:"email"`
	ExpiresAt    int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt    int64  `json:"created_at" dynamodbav:"created_at"` // Unix seconds, immutable
	Consumed     bool   `json:"consumed" dynamodbav:"consumed"`     // set exactly once on redemption
}
