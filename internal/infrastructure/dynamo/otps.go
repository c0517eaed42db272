package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/leaftown/property-api/internal/domain"
)

// OtpRepo manages one-time codes. PK: user_id, a single live record per user,
// so issuing a new code supersedes any prior unconsumed one by overwrite.
// ExpiresAt doubles as the table's TTL attribute for background cleanup;
// correctness never depends on it, expiry is always checked on read.
type OtpRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOtpRepo(client *dynamodb.Client, tableName string) *OtpRepo {
	return &OtpRepo{client: client, tableName: tableName}
}

func (r *OtpRepo) Put(ctx context.Context, rec *domain.OtpRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put otp record: %w", err)
	}
	return nil
}

func (r *OtpRepo) Get(ctx context.Context, userID string) (*domain.OtpRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get otp record: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("otp record not found: %w", domain.ErrNotFound)
	}
	var rec domain.OtpRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Consume marks the record consumed iff the stored code matches and it has not
// been consumed yet. This is one conditional update, so two concurrent
// verifications of the same code cannot both succeed. A failed condition
// (raced, replayed, or superseded code) is domain.ErrInvalidOtp.
func (r *OtpRepo) Consume(ctx context.Context, userID, code string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		UpdateExpression:    aws.String("SET #c = :t"),
		ConditionExpression: aws.String("#code = :code AND #c = :f"),
		ExpressionAttributeNames: map[string]string{
			"#c":    fieldConsumed,
			"#code": fieldCode,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":    &types.AttributeValueMemberBOOL{Value: true},
			":f":    &types.AttributeValueMemberBOOL{Value: false},
			":code": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("otp already consumed or mismatched: %w", domain.ErrInvalidOtp)
		}
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}
