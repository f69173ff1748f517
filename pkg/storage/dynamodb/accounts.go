package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

// CreateAccount creates a new account record in DynamoDB.
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	item := toAccountItem(account)
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Accounts),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"), // Prevent overwriting existing accounts.
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("account %s: %w", account.Id, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create account in DynamoDB: %w", err)
	}

	return item.model(), nil
}

// GetAccount retrieves an account and its journal.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	item, err := s.getAccountItem(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := s.ListEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	acc := item.model()
	acc.Transactions = entries
	return acc, nil
}

func (s *Store) getAccountItem(ctx context.Context, accountID string) (*accountItem, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Accounts),
		Key:            idKey(accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}

	var item accountItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &item, nil
}

// ListAccounts retrieves all accounts from DynamoDB.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	raw, err := s.scanAll(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Accounts),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan accounts table: %w", err)
	}

	var items []accountItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}

	accounts := make([]models.Account, 0, len(items))
	for _, item := range items {
		accounts = append(accounts, *item.model())
	}
	return accounts, nil
}

// ToggleFavorite adds or removes spotID in the account's favorites string set.
func (s *Store) ToggleFavorite(ctx context.Context, accountID, spotID string) ([]string, error) {
	item, err := s.getAccountItem(ctx, accountID)
	if err != nil {
		return nil, err
	}

	action := "ADD"
	if item.model().HasFavorite(spotID) {
		action = "DELETE"
	}

	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Accounts),
		Key:                 idKey(accountID),
		UpdateExpression:    aws.String(action + " favorites :spot"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":spot": &types.AttributeValueMemberSS{Value: []string{spotID}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update favorites: %w", err)
	}

	var updated accountItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return updated.model().Favorites, nil
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// RenameAccount sets the account's name if the account exists.
func (s *Store) RenameAccount(ctx context.Context, accountID, name string) (*models.Account, error) {
	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Accounts),
		Key:                 idKey(accountID),
		UpdateExpression:    aws.String("SET #name = :name"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":name": &types.AttributeValueMemberS{Value: name},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to rename account: %w", err)
	}

	var updated accountItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return updated.model(), nil
}

// DeleteAccount removes the account item. Ledger items live in their own
// table and are left in place.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.Tables.Accounts),
		Key:                 idKey(accountID),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to delete account from DynamoDB: %w", err)
	}
	return nil
}
