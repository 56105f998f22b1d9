// Package dynamodb provides a DynamoDB implementation of ports.KV.
//
// The table needs a string hash key named "key"; blobs live in the "value" attribute.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Config holds configuration for the Store.
type Config struct {
	// Table is the DynamoDB table name.
	// Default: "relstore_kv"
	Table string

	// ConsistentRead requests strongly consistent reads, so a Get observes the
	// preceding Set of the same process.
	// Default: true
	ConsistentRead *bool
}

// DefaultConfig returns the default table settings.
func DefaultConfig() Config {
	return Config{
		Table:          "relstore_kv",
		ConsistentRead: aws.Bool(true),
	}
}

// validate fills unset values with defaults.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "relstore_kv"
	}
	if c.ConsistentRead == nil {
		c.ConsistentRead = aws.Bool(true)
	}
}

type item struct {
	Key   string `dynamodbav:"key"`
	Value string `dynamodbav:"value"`
}

type itemKey struct {
	Key string `dynamodbav:"key"`
}

// Store provides DynamoDB persistence for table blobs.
type Store struct {
	client API
	config Config
}

// New creates a new Store instance.
func New(client API, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// NewFromEnv builds a client from the default AWS configuration chain.
// A non-empty endpoint targets DynamoDB Local or another compatible service.
func NewFromEnv(ctx context.Context, region, endpoint string, config Config) (*Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return New(client, config), nil
}

// Get retrieves the blob stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	k, err := attributevalue.MarshalMap(itemKey{Key: key})
	if err != nil {
		return "", false, fmt.Errorf("marshal key: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.Table),
		Key:            k,
		ConsistentRead: s.config.ConsistentRead,
	})
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	if result.Item == nil {
		return "", false, nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		return "", false, fmt.Errorf("unmarshal item %q: %w", key, err)
	}
	return it.Value, true, nil
}

// Set writes the blob under key, replacing the previous item.
func (s *Store) Set(ctx context.Context, key, value string) error {
	av, err := attributevalue.MarshalMap(item{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.Table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("put item %q: %w", key, err)
	}
	return nil
}
