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
	"github.com/leaftown/property-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
//
// Identity uniqueness is enforced through a guard item in the identities table
// (PK: identity -> user_id) written in the same transaction as the user row, so
// a duplicate registration can never slip through between a read and a write.
type UserRepo struct {
	client        *dynamodb.Client
	tableName     string
	identityTable string
	profilesTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, identityTable, profilesTable string) *UserRepo {
	return &UserRepo{
		client:        client,
		tableName:     tableName,
		identityTable: identityTable,
		profilesTable: profilesTable,
	}
}

// Create writes the user row, the identity guard item, and (for sellers) the
// seller profile as one TransactWriteItems call. Either everything is persisted
// or nothing is; a taken identity fails the transaction with domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User, profile *domain.SellerProfile) error {
	userItem, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName: aws.String(r.identityTable),
				Item: map[string]types.AttributeValue{
					"identity": &types.AttributeValueMemberS{Value: u.Identity},
					"user_id":  &types.AttributeValueMemberS{Value: u.UserID},
				},
				ConditionExpression: aws.String("attribute_not_exists(identity)"),
			},
		},
		{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                userItem,
				ConditionExpression: aws.String("attribute_not_exists(user_id)"),
			},
		},
	}
	if profile != nil {
		profileItem, err := attributevalue.MarshalMap(profile)
		if err != nil {
			return fmt.Errorf("marshal seller profile: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(r.profilesTable),
				Item:      profileItem,
			},
		})
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for _, reason := range tce.CancellationReasons {
				if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return fmt.Errorf("identity already registered: %w", domain.ErrConflict)
				}
			}
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIdentity looks up a user by phone number or email via GSI.
func (r *UserRepo) GetByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("identity-index"),
		KeyConditionExpression:   aws.String("#a = :v"),
		ExpressionAttributeNames: map[string]string{"#a": "identity"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: identity},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query user by identity: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetRefreshToken unconditionally overwrites the stored refresh credential.
// Used at issue time; any previously issued refresh token becomes unusable.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("user_id", userID),
		UpdateExpression: aws.String("SET #rt = :t, #ua = :now"),
		ExpressionAttributeNames: map[string]string{
			"#rt": fieldRefreshToken,
			"#ua": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":   &types.AttributeValueMemberS{Value: token},
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// SwapRefreshToken replaces the stored refresh credential with next, conditioned
// on the stored value still equaling presented. Of two concurrent rotations
// presenting the same old token, exactly one wins; the loser observes the
// changed stored value and gets domain.ErrInvalidToken.
func (r *UserRepo) SwapRefreshToken(ctx context.Context, userID, presented, next string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		UpdateExpression:    aws.String("SET #rt = :next, #ua = :now"),
		ConditionExpression: aws.String("#rt = :presented"),
		ExpressionAttributeNames: map[string]string{
			"#rt": fieldRefreshToken,
			"#ua": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":next":      &types.AttributeValueMemberS{Value: next},
			":presented": &types.AttributeValueMemberS{Value: presented},
			":now":       &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("refresh token superseded: %w", domain.ErrInvalidToken)
		}
		return fmt.Errorf("swap refresh token: %w", err)
	}
	return nil
}

// ClearRefreshToken removes the stored refresh credential, making any
// outstanding refresh token permanently unusable regardless of its expiry.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("user_id", userID),
		UpdateExpression: aws.String("REMOVE #rt SET #ua = :now"),
		ExpressionAttributeNames: map[string]string{
			"#rt": fieldRefreshToken,
			"#ua": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}
