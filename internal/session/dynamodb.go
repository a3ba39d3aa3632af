package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"intake-agent/internal/domain"
)

const (
	skSession = "SESSION"

	// Abandoned sessions (typically stuck in awaiting_resume) expire after a
	// day via the table's TTL attribute.
	sessionTTL = 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore persists sessions in a DynamoDB table so in-flight
// conversations survive process restarts.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
}

// NewDynamoStore creates a DynamoStore on the given table.
func NewDynamoStore(api dynamodbAPI, tableName string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("session: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("session: table name must not be empty")
	}
	return &DynamoStore{api: api, tableName: tableName}, nil
}

// convPK returns the partition key for a conversation.
func convPK(conversationID string) string {
	return "CONV#" + conversationID
}

func sessionKey(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: convPK(conversationID)},
		"SK": &types.AttributeValueMemberS{Value: skSession},
	}
}

func (s *DynamoStore) Get(ctx context.Context, conversationID string) (*domain.Session, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            sessionKey(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("session: Get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}

	state, err := strAttr(out.Item, "state")
	if err != nil {
		return nil, fmt.Errorf("session: Get decode: %w", err)
	}
	email, _ := strAttr(out.Item, "email") // absent until captured

	return &domain.Session{
		ConversationID: conversationID,
		State:          domain.State(state),
		Email:          email,
	}, nil
}

func (s *DynamoStore) Put(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.ConversationID == "" {
		return errors.New("session: session with conversation ID required")
	}
	item := map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: convPK(sess.ConversationID)},
		"SK":             &types.AttributeValueMemberS{Value: skSession},
		"conversationId": &types.AttributeValueMemberS{Value: sess.ConversationID},
		"state":          &types.AttributeValueMemberS{Value: string(sess.State)},
		"email":          &types.AttributeValueMemberS{Value: sess.Email},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Add(sessionTTL).Unix(), 10)},
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("session: Put item: %w", err)
	}
	return nil
}

func (s *DynamoStore) Delete(ctx context.Context, conversationID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       sessionKey(conversationID),
	})
	if err != nil {
		return fmt.Errorf("session: Delete item: %w", err)
	}
	return nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("session: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("session: attribute %q is not a string", key)
	}
	return s.Value, nil
}
