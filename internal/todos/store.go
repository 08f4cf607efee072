package todos

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/todo-list-api/internal/aws"
)

// Store is the collection contract the Service depends on.
// Every lookup is keyed on the record id.
type Store interface {
	Insert(ctx context.Context, rec Record) (string, error)
	FindOne(ctx context.Context, id string) (*Record, error)
	FindAll(ctx context.Context, limit int) ([]Record, error)
	DeleteOne(ctx context.Context, id string) (int, error)
	UpdateOne(ctx context.Context, id string, rec Record) (int, error)
}

// listProjection keeps contents out of scans.
const listProjection = "#id, #title, #description, #document.#filename, #timestamp, #done"

var listProjectionNames = map[string]string{
	"#id":          "id",
	"#title":       "title",
	"#description": "description",
	"#document":    "document",
	"#filename":    "filename",
	"#timestamp":   "timestamp",
	"#done":        "done",
}

// DynamoStore encapsulates operations on the records table.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewDynamoStore creates a new records store.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// Ping checks that the records table is reachable.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dyn.DescribeTableInput{TableName: &s.tableName})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.tableName, err)
	}
	return nil
}

// Insert writes a new record. It refuses to overwrite an existing id.
func (s *DynamoStore) Insert(ctx context.Context, rec Record) (string, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      awsString("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return "", fmt.Errorf("record %s already exists: %w", rec.ID, err)
		}
		return "", fmt.Errorf("put item: %w", err)
	}
	return rec.ID, nil
}

// FindOne fetches a record by id. Returns (nil, nil) if not found.
func (s *DynamoStore) FindOne(ctx context.Context, id string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key:       recordKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// FindAll scans up to limit records projected without attachment contents.
// Scan pages are capped at 1MB before projection, so it keeps paging until
// limit records are collected or the table is exhausted.
func (s *DynamoStore) FindAll(ctx context.Context, limit int) ([]Record, error) {
	out := make([]Record, 0, limit)
	var startKey map[string]types.AttributeValue

	for len(out) < limit {
		page, err := s.client.Scan(ctx, &dyn.ScanInput{
			TableName:                &s.tableName,
			ProjectionExpression:     awsString(listProjection),
			ExpressionAttributeNames: listProjectionNames,
			Limit:                    awsInt32(int32(limit - len(out))),
			ExclusiveStartKey:        startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		var recs []Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("unmarshal records: %w", err)
		}
		out = append(out, recs...)

		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		startKey = page.LastEvaluatedKey
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteOne removes the record with id and returns how many were deleted (0 or 1).
func (s *DynamoStore) DeleteOne(ctx context.Context, id string) (int, error) {
	out, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName:    &s.tableName,
		Key:          recordKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, fmt.Errorf("delete item: %w", err)
	}
	if len(out.Attributes) == 0 {
		return 0, nil
	}
	return 1, nil
}

// UpdateOne overwrites the whole item at id and reports how many records changed.
// Writing a value identical to the stored one, or writing to a missing id, reports 0.
func (s *DynamoStore) UpdateOne(ctx context.Context, id string, rec Record) (int, error) {
	rec.ID = id
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return 0, fmt.Errorf("marshal record: %w", err)
	}

	out, err := s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:                &s.tableName,
		Item:                     item,
		ConditionExpression:      awsString("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
		ReturnValues:             types.ReturnValueAllOld,
	})
	if err != nil {
		var cf *types.ConditionalCheckFailedException
		if errors.As(err, &cf) {
			return 0, nil
		}
		return 0, fmt.Errorf("put item: %w", err)
	}

	if reflect.DeepEqual(out.Attributes, item) {
		return 0, nil
	}
	return 1, nil
}

func recordKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func awsString(s string) *string { return &s }

func awsInt32(n int32) *int32 { return &n }
