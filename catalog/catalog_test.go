package catalog

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/aaclust/blobstore"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
	// stale makes Query ignore committed items.
	stale bool
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if aws.ToString(params.ConditionExpression) == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}
	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stale {
		return &dynamodb.QueryOutput{}, nil
	}
	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}
	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	sort.Slice(items, func(i, j int) bool { return version(items[i]) > version(items[j]) })

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func sampleManifest(k int) Manifest {
	m := NewManifest()
	m.K = k
	m.Threshold = 20
	m.Distance = "halperin"
	m.Files["prototypes"] = "protos.fa.zst"
	return m
}

func TestStoreCatalog(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := NewStoreCatalog(store, "pfam")

	_, _, err := c.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoManifest)

	v, err := c.Publish(ctx, sampleManifest(30))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	second := sampleManifest(31)
	v, err = c.Publish(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)

	m, v, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, 31, m.K)
	assert.Equal(t, second.RunID, m.RunID)
	assert.Equal(t, "protos.fa.zst", m.Files["prototypes"])

	versions, err := c.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, versions)

	current, err := blobstore.ReadAll(ctx, store, "pfam/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000002.json", string(current))
}

func TestStoreCatalogRejectsUnknownFormat(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "MANIFEST-000001.json", []byte(`{"format": 99}`)))
	require.NoError(t, store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.json\n")))

	_, _, err := NewStoreCatalog(store, "").Latest(ctx)
	assert.ErrorContains(t, err, "unsupported manifest format")
}

func TestDynamoCatalog(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ddb := newMockDDBClient()
	c := NewDynamoCatalog(store, ddb, "catalog", "s3://bkt/pfam")

	_, _, err := c.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoManifest)

	for i := 1; i <= 3; i++ {
		v, err := c.Publish(ctx, sampleManifest(29+i))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), v)
	}

	m, v, err := c.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
	assert.Equal(t, uint64(3), m.Version)
	assert.Equal(t, 32, m.K)

	// Another base URI is an independent history.
	other := NewDynamoCatalog(store, ddb, "catalog", "s3://bkt/other")
	v, err = other.Publish(ctx, sampleManifest(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestDynamoCatalogConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	ddb := newMockDDBClient()
	c := NewDynamoCatalog(store, ddb, "catalog", "base")

	_, err := c.Publish(ctx, sampleManifest(30))
	require.NoError(t, err)

	// A writer with a stale view claims version 1 again.
	ddb.stale = true
	_, err = c.Publish(ctx, sampleManifest(31))
	assert.ErrorIs(t, err, ErrConcurrentPublish)

	// The losing manifest blob is removed.
	names, err := store.List(ctx, ManifestFileName)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}
