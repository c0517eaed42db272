package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/leaftown/property-api/internal/domain"
)

// SellerProfileRepo provides typed DynamoDB operations for the seller_profiles
// table. Profiles are created inside the registration transaction (see
// UserRepo.Create); this repo only reads them.
type SellerProfileRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSellerProfileRepo(client *dynamodb.Client, tableName string) *SellerProfileRepo {
	return &SellerProfileRepo{client: client, tableName: tableName}
}

func (r *SellerProfileRepo) Get(ctx context.Context, userID string) (*domain.SellerProfile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, fmt.Errorf("get seller profile: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("seller profile not found: %w", domain.ErrNotFound)
	}
	var p domain.SellerProfile
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
