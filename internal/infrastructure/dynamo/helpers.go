package dynamo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// credentialKey builds the composite primary key for a credential document
// (PK owner_id + SK value).
func credentialKey(ownerID, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrOwnerID: &types.AttributeValueMemberS{Value: ownerID},
		attrValue:   &types.AttributeValueMemberS{Value: value},
	}
}
