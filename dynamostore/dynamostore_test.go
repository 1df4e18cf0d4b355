package dynamostore_test

import (
	"context"
	"sort"
	"testing"

	"github.com/advdv/restone"
	"github.com/advdv/restone/dynamostore"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements the store's client interface on a map, simulating the
// conditional semantics the store relies on.
type fakeClient struct {
	items    map[string]map[string]types.AttributeValue
	pageSize int
	scans    int
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue, key map[string]types.AttributeValue) string {
	out := ""
	for field := range key {
		if av, ok := item[field].(*types.AttributeValueMemberS); ok {
			out += field + "=" + av.Value + ";"
		}
	}

	return out
}

func (f *fakeClient) put(item map[string]types.AttributeValue, key string) {
	f.items[key] = item
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	item, ok := f.items[itemKey(in.Key, in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans++

	keys := make([]string, 0, len(f.items))
	for key := range f.items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	all := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, key := range keys {
		all = append(all, f.items[key])
	}

	if f.pageSize > 0 && f.scans == 1 && len(all) > f.pageSize {
		return &dynamodb.ScanOutput{
			Items:            all[:f.pageSize],
			LastEvaluatedKey: all[f.pageSize-1],
		}, nil
	}

	if f.pageSize > 0 && f.scans > 1 {
		return &dynamodb.ScanOutput{Items: all[f.pageSize:]}, nil
	}

	return &dynamodb.ScanOutput{Items: all}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := ""
	for _, field := range in.ExpressionAttributeNames {
		if av, ok := in.Item[field].(*types.AttributeValueMemberS); ok {
			key = field + "=" + av.Value + ";"
		}
	}

	_, exists := f.items[key]

	switch {
	case in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(#k0)" && exists:
		return nil, &types.ConditionalCheckFailedException{}
	case in.ConditionExpression != nil && *in.ConditionExpression == "attribute_exists(#k0)" && !exists:
		return nil, &types.ConditionalCheckFailedException{}
	}

	f.put(in.Item, key)

	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := itemKey(in.Key, in.Key)
	if _, ok := f.items[key]; !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	delete(f.items, key)

	return &dynamodb.DeleteItemOutput{}, nil
}

func seed(t *testing.T, client *fakeClient, items ...restone.Resource) {
	t.Helper()

	for _, res := range items {
		item, err := attributevalue.MarshalMap(res)
		require.NoError(t, err)

		key := itemKey(item, map[string]types.AttributeValue{"id": nil})
		client.put(item, key)
	}
}

func TestFetchOne(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	seed(t, client,
		restone.Resource{"id": "1", "name": "foo"},
		restone.Resource{"id": "2", "name": "bar"},
	)

	store := dynamostore.New(client, "resources")

	t.Run("found", func(t *testing.T) {
		res, err := store.FetchOne(ctx, map[string]any{"id": "2"})
		require.NoError(t, err)
		assert.Equal(t, "bar", res["name"])
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.FetchOne(ctx, map[string]any{"id": "99"})
		require.ErrorIs(t, err, restone.ErrNotFound)
	})

	t.Run("bad key field", func(t *testing.T) {
		_, err := store.FetchOne(ctx, map[string]any{"name": "foo"})
		require.ErrorIs(t, err, restone.ErrBadKey)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := store.FetchOne(ctx, map[string]any{})
		require.ErrorIs(t, err, restone.ErrBadKey)
	})
}

func TestFetchManyPaginates(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	client.pageSize = 2
	seed(t, client,
		restone.Resource{"id": "1"},
		restone.Resource{"id": "2"},
		restone.Resource{"id": "3"},
	)

	store := dynamostore.New(client, "resources")

	set, err := store.FetchMany(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Count())
	assert.Equal(t, 2, client.scans, "should follow the scan pagination")
}

func TestCreateConflict(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := dynamostore.New(client, "resources")

	_, err := store.Create(ctx, restone.Resource{"id": "1", "name": "foo"})
	require.NoError(t, err)

	_, err = store.Create(ctx, restone.Resource{"id": "1", "name": "dup"})
	require.ErrorIs(t, err, restone.ErrConflict)
}

func TestUpdateMissing(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := dynamostore.New(client, "resources")

	_, err := store.Update(ctx, restone.Resource{"id": "9", "name": "ghost"})
	require.ErrorIs(t, err, restone.ErrNotFound)

	_, err = store.Create(ctx, restone.Resource{"id": "1", "name": "foo"})
	require.NoError(t, err)

	res, err := store.Update(ctx, restone.Resource{"id": "1", "name": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", res["name"])
}

func TestDeleteMissing(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := dynamostore.New(client, "resources")

	require.ErrorIs(t, store.Delete(ctx, map[string]any{"id": "9"}), restone.ErrNotFound)

	_, err := store.Create(ctx, restone.Resource{"id": "1"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, map[string]any{"id": "1"}))
}
