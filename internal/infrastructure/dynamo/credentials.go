package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/verimail/internal/domain"
)

// CredentialRepo provides typed DynamoDB operations for the credentials table.
// PK: owner_id, SK: value.
type CredentialRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCredentialRepo(client *dynamodb.Client, tableName string) *CredentialRepo {
	return &CredentialRepo{client: client, tableName: tableName}
}

func (r *CredentialRepo) Put(ctx context.Context, c *domain.Credential) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetNewestByOwner queries the owner's partition and returns the credential
// with the greatest created_at. The partition holds at most a handful of
// outstanding credentials, so the linear pass is fine.
func (r *CredentialRepo) GetNewestByOwner(ctx context.Context, ownerID string) (*domain.Credential, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("owner_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no credentials for owner: %w", domain.ErrNotFound)
	}
	var creds []domain.Credential
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &creds); err != nil {
		return nil, err
	}
	newest := &creds[0]
	for i := range creds {
		if creds[i].CreatedAt > newest.CreatedAt {
			newest = &creds[i]
		}
	}
	return newest, nil
}

// Consume marks the credential consumed in a single conditional UpdateItem.
// The condition checks existence, consumed=false and expiry in the same
// operation, so two concurrent callers can never both observe an
// unconsumed credential: DynamoDB serializes the writes and the loser's
// condition fails. The failed-check item is returned by the store itself
// (ReturnValuesOnConditionCheckFailure), so classifying the failure needs
// no second round trip that could race.
func (r *CredentialRepo) Consume(ctx context.Context, ownerID, value string, now time.Time) (*domain.Credential, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 credentialKey(ownerID, value),
		UpdateExpression:    aws.String("SET consumed = :true"),
		ConditionExpression: aws.String("attribute_exists(owner_id) AND consumed = :false AND expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":now":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Unix())},
		},
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, classifyFailedConsume(ccf.Item, now)
		}
		return nil, err
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// classifyFailedConsume distinguishes the terminal redemption outcomes from
// the item state at the moment the condition failed.
func classifyFailedConsume(item map[string]types.AttributeValue, now time.Time) error {
	if len(item) == 0 {
		return fmt.Errorf("credential not found: %w", domain.ErrNotFound)
	}
	var c domain.Credential
	if err := attributevalue.UnmarshalMap(item, &c); err != nil {
		return err
	}
	if c.Consumed {
		return fmt.Errorf("credential already consumed: %w", domain.ErrAlreadyConsumed)
	}
	if c.ExpiresAt <= now.Unix() {
		return fmt.Errorf("credential expired: %w", domain.ErrExpired)
	}
	return fmt.Errorf("credential not found: %w", domain.ErrNotFound)
}

// DeleteByOwner removes the owner's credentials except exceptValue. TTL
// would reclaim them eventually; this is the eager path for the
// invalidate-prior policy.
func (r *CredentialRepo) DeleteByOwner(ctx context.Context, ownerID, exceptValue string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("owner_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: ownerID},
		},
		ProjectionExpression:     aws.String("#v"),
		ExpressionAttributeNames: map[string]string{"#v": attrValue}, // "value" is a DynamoDB reserved word
	})
	if err != nil {
		return err
	}
	var firstErr error
	for _, item := range out.Items {
		attr, ok := item[attrValue].(*types.AttributeValueMemberS)
		if !ok || attr.Value == exceptValue {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key:       credentialKey(ownerID, attr.Value),
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
