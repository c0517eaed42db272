package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/leaftown/property-api/internal/domain"
)

// ApartmentRepo provides typed DynamoDB operations for the apartments table.
type ApartmentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewApartmentRepo(client *dynamodb.Client, tableName string) *ApartmentRepo {
	return &ApartmentRepo{client: client, tableName: tableName}
}

func (r *ApartmentRepo) Put(ctx context.Context, a *domain.Apartment) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal apartment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put apartment: %w", err)
	}
	return nil
}

func (r *ApartmentRepo) Get(ctx context.Context, apartmentID string) (*domain.Apartment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("apartment_id", apartmentID),
	})
	if err != nil {
		return nil, fmt.Errorf("get apartment: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("apartment not found: %w", domain.ErrNotFound)
	}
	var a domain.Apartment
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all apartments, newest first.
func (r *ApartmentRepo) List(ctx context.Context) ([]domain.Apartment, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("scan apartments: %w", err)
	}
	var items []domain.Apartment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].DateListed.After(items[j].DateListed)
	})
	return items, nil
}

func (r *ApartmentRepo) Update(ctx context.Context, apartmentID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("apartment_id", apartmentID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update apartment: %w", err)
	}
	return nil
}

func (r *ApartmentRepo) Delete(ctx context.Context, apartmentID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("apartment_id", apartmentID),
	})
	if err != nil {
		return fmt.Errorf("delete apartment: %w", err)
	}
	return nil
}
