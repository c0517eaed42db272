package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/leaftown/property-api/internal/domain"
)

// ImageRepo provides typed DynamoDB operations for the listing_images table.
type ImageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewImageRepo(client *dynamodb.Client, tableName string) *ImageRepo {
	return &ImageRepo{client: client, tableName: tableName}
}

func (r *ImageRepo) Put(ctx context.Context, img *domain.ListingImage) error {
	item, err := attributevalue.MarshalMap(img)
	if err != nil {
		return fmt.Errorf("marshal listing image: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put listing image: %w", err)
	}
	return nil
}

func (r *ImageRepo) Get(ctx context.Context, imageID string) (*domain.ListingImage, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("image_id", imageID),
	})
	if err != nil {
		return nil, fmt.Errorf("get listing image: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing image not found: %w", domain.ErrNotFound)
	}
	var img domain.ListingImage
	if err := attributevalue.UnmarshalMap(out.Item, &img); err != nil {
		return nil, err
	}
	return &img, nil
}
