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
	"github.com/shopspring/decimal"
)

// AppendEntry writes the ledger entry and applies its delta to the account
// balance in a single DynamoDB transaction.
func (s *Store) AppendEntry(ctx context.Context, entry *models.Transaction) (decimal.Decimal, error) {
	entryAV, err := attributevalue.MarshalMap(toLedgerItem(entry))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	deltaAV, err := attributevalue.Marshal(number(entry.Delta()))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to marshal delta: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Apply the delta to the account balance.
				Update: &types.Update{
					TableName:           aws.String(s.Tables.Accounts),
					Key:                 idKey(entry.AccountId),
					UpdateExpression:    aws.String("SET wallet_balance = wallet_balance + :delta, version = version + :inc"),
					ConditionExpression: aws.String("attribute_exists(id)"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":delta": deltaAV,
						":inc":   &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
			{
				// Operation 2: Append the journal entry.
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Ledger),
					Item:                entryAV,
					ConditionExpression: aws.String("attribute_not_exists(sk)"),
				},
			},
		},
	}

	_, err = s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			if len(tce.CancellationReasons) > 0 && aws.ToString(tce.CancellationReasons[0].Code) == conditionalFailed {
				return decimal.Zero, fmt.Errorf("account %s: %w", entry.AccountId, storage.ErrNotFound)
			}
		}
		return decimal.Zero, fmt.Errorf("failed to execute ledger transaction: %w", err)
	}

	item, err := s.getAccountItem(ctx, entry.AccountId)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance after append: %w", err)
	}
	return item.WalletBalance.value(), nil
}

// ListEntries returns an account's journal in append order.
func (s *Store) ListEntries(ctx context.Context, accountID string) ([]models.Transaction, error) {
	raw, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		KeyConditionExpression: aws.String("account_id = :account"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":account": &types.AttributeValueMemberS{Value: accountID},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	var items []ledgerItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}

	entries := make([]models.Transaction, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.model())
	}
	return entries, nil
}

// ListLedgerEntries returns the most recent entries across all accounts.
func (s *Store) ListLedgerEntries(ctx context.Context, limit int32) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		IndexName:              aws.String(ledgerGSI),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: ledgerPartition},
		},
		ScanIndexForward: aws.Bool(false), // Sort by timestamp in descending order
		Limit:            aws.Int32(limit),
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for ledger entries: %w", err)
	}

	var items []ledgerItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}

	entries := make([]models.Transaction, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.model())
	}
	return entries, nil
}
