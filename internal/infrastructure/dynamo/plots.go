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

// PlotRepo provides typed DynamoDB operations for the open_plots table.
type PlotRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPlotRepo(client *dynamodb.Client, tableName string) *PlotRepo {
	return &PlotRepo{client: client, tableName: tableName}
}

func (r *PlotRepo) Put(ctx context.Context, p *domain.Plot) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal plot: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put plot: %w", err)
	}
	return nil
}

func (r *PlotRepo) Get(ctx context.Context, plotID string) (*domain.Plot, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("plot_id", plotID),
	})
	if err != nil {
		return nil, fmt.Errorf("get plot: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("plot not found: %w", domain.ErrNotFound)
	}
	var p domain.Plot
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all plots, newest first.
func (r *PlotRepo) List(ctx context.Context) ([]domain.Plot, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("scan plots: %w", err)
	}
	var items []domain.Plot
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].DateListed.After(items[j].DateListed)
	})
	return items, nil
}

func (r *PlotRepo) Update(ctx context.Context, plotID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("plot_id", plotID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update plot: %w", err)
	}
	return nil
}

func (r *PlotRepo) Delete(ctx context.Context, plotID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("plot_id", plotID),
	})
	if err != nil {
		return fmt.Errorf("delete plot: %w", err)
	}
	return nil
}
