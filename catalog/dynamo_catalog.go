package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/hupe1980/aaclust/blobstore"
)

// DDBClient is the subset of the DynamoDB API used by DynamoCatalog.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoCatalog stores manifest content in a blob store and uses DynamoDB
// conditional writes for the version pointer, which makes publishing safe
// across processes.
//
// Table schema:
//   - Partition key: base_uri (string)
//   - Sort key: version (number)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name aaclust-catalog \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DynamoCatalog struct {
	store     blobstore.Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// NewDynamoCatalog returns a catalog whose versions are partitioned by
// baseURI.
func NewDynamoCatalog(store blobstore.Store, ddbClient DDBClient, tableName, baseURI string) *DynamoCatalog {
	return &DynamoCatalog{
		store:     store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Publish writes the manifest blob and then claims the next version. When
// another writer claims it first the blob is removed and
// ErrConcurrentPublish is returned.
func (c *DynamoCatalog) Publish(ctx context.Context, m Manifest) (uint64, error) {
	current, _, err := c.latestVersion(ctx)
	if err != nil {
		return 0, err
	}
	version := current + 1

	// The run id keeps competing writers from overwriting each other.
	if m.RunID == "" {
		m.RunID = uuid.NewString()
	}
	data, err := encode(m, version)
	if err != nil {
		return 0, err
	}
	name := manifestName(version, m.RunID)
	if err := c.store.Put(ctx, name, data); err != nil {
		return 0, fmt.Errorf("catalog: write manifest: %w", err)
	}

	_, err = c.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":      &types.AttributeValueMemberS{Value: c.baseURI},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"manifest_path": &types.AttributeValueMemberS{Value: name},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		_ = c.store.Delete(ctx, name)
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrConcurrentPublish
		}
		return 0, fmt.Errorf("catalog: commit version to DynamoDB: %w", err)
	}
	return version, nil
}

// Latest returns the manifest with the highest committed version.
func (c *DynamoCatalog) Latest(ctx context.Context) (Manifest, uint64, error) {
	version, name, err := c.latestVersion(ctx)
	if err != nil {
		return Manifest{}, 0, err
	}
	if version == 0 {
		return Manifest{}, 0, ErrNoManifest
	}
	data, err := blobstore.ReadAll(ctx, c.store, name)
	if err != nil {
		return Manifest{}, 0, err
	}
	m, err := decode(data)
	if err != nil {
		return Manifest{}, 0, err
	}
	return m, version, nil
}

func (c *DynamoCatalog) latestVersion(ctx context.Context) (uint64, string, error) {
	resp, err := c.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: c.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("catalog: query DynamoDB: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("catalog: invalid version attribute in DynamoDB")
	}
	pathAttr, ok := item["manifest_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("catalog: invalid manifest_path attribute in DynamoDB")
	}
	version, err := strconv.ParseUint(strings.TrimSpace(versionAttr.Value), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("catalog: parse version: %w", err)
	}
	return version, pathAttr.Value, nil
}
