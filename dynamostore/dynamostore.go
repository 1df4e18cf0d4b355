// Package dynamostore implements a resource store backed by a DynamoDB table.
package dynamostore

import (
	"context"
	"fmt"
	"strings"

	"github.com/advdv/restone"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Client is the subset of the DynamoDB API the store uses, satisfied by
// *dynamodb.Client.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store exposes one DynamoDB table as a [restone.Store]. The configured key fields must
// match the table's key schema.
type Store struct {
	client    Client
	table     string
	keyFields []string
}

// New inits a store on the given table, addressing items by "id" when no key fields are
// given.
func New(client Client, table string, keyFields ...string) *Store {
	if len(keyFields) == 0 {
		keyFields = []string{"id"}
	}

	return &Store{client: client, table: table, keyFields: keyFields}
}

// FetchOne implements [restone.Store].
func (s *Store) FetchOne(ctx context.Context, key map[string]any) (restone.Resource, error) {
	avKey, err := s.marshalKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       avKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get item")
	}

	if out.Item == nil {
		return nil, errors.Wrapf(restone.ErrNotFound, "no item for key %v", key)
	}

	var res restone.Resource
	if err := attributevalue.UnmarshalMap(out.Item, &res); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal item")
	}

	return res, nil
}

// FetchMany implements [restone.Store] by scanning the whole table, following
// pagination until the scan is exhausted.
func (s *Store) FetchMany(ctx context.Context) (restone.Set, error) {
	var (
		items []restone.Resource
		start map[string]types.AttributeValue
	)

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan table")
		}

		var page []restone.Resource
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal scanned items")
		}

		items = append(items, page...)

		if out.LastEvaluatedKey == nil {
			break
		}

		start = out.LastEvaluatedKey
	}

	return restone.Items(items), nil
}

// Create implements [restone.Store]. A put that collides with an existing key reports
// [restone.ErrConflict].
func (s *Store) Create(ctx context.Context, res restone.Resource) (restone.Resource, error) {
	item, err := attributevalue.MarshalMap(res)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal item")
	}

	cond, names := s.keyCondition("attribute_not_exists")

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String(cond),
		ExpressionAttributeNames: names,
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return nil, errors.Wrap(restone.ErrConflict, "item with that key already exists")
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to put item")
	}

	return res, nil
}

// Update implements [restone.Store]. Updating an item that doesn't exist reports
// [restone.ErrNotFound].
func (s *Store) Update(ctx context.Context, res restone.Resource) (restone.Resource, error) {
	item, err := attributevalue.MarshalMap(res)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal item")
	}

	cond, names := s.keyCondition("attribute_exists")

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ConditionExpression:      aws.String(cond),
		ExpressionAttributeNames: names,
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return nil, errors.Wrap(restone.ErrNotFound, "no item to update")
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to put item")
	}

	return res, nil
}

// Delete implements [restone.Store]. Deleting an item that doesn't exist reports
// [restone.ErrNotFound].
func (s *Store) Delete(ctx context.Context, key map[string]any) error {
	avKey, err := s.marshalKey(key)
	if err != nil {
		return err
	}

	cond, names := s.keyCondition("attribute_exists")

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(s.table),
		Key:                      avKey,
		ConditionExpression:      aws.String(cond),
		ExpressionAttributeNames: names,
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return errors.Wrapf(restone.ErrNotFound, "no item for key %v", key)
	} else if err != nil {
		return errors.Wrap(err, "failed to delete item")
	}

	return nil
}

// marshalKey validates the key against the configured key fields and marshals it into
// attribute values.
func (s *Store) marshalKey(key map[string]any) (map[string]types.AttributeValue, error) {
	if len(key) == 0 {
		return nil, errors.Wrap(restone.ErrBadKey, "empty key")
	}

	for field := range key {
		if !lo.Contains(s.keyFields, field) {
			return nil, errors.Wrapf(restone.ErrBadKey, "%q is not a key field", field)
		}
	}

	avKey, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, errors.Wrapf(restone.ErrBadKey, "failed to marshal key: %v", err)
	}

	return avKey, nil
}

// keyCondition builds "<fn>(#k0) AND <fn>(#k1) ..." over the key fields, with the field
// names passed as expression attribute names so reserved words stay safe.
func (s *Store) keyCondition(fn string) (string, map[string]string) {
	parts := make([]string, len(s.keyFields))
	names := make(map[string]string, len(s.keyFields))

	for i, field := range s.keyFields {
		ph := fmt.Sprintf("#k%d", i)
		parts[i] = fmt.Sprintf("%s(%s)", fn, ph)
		names[ph] = field
	}

	return strings.Join(parts, " AND "), names
}

var _ restone.Store = &Store{}
