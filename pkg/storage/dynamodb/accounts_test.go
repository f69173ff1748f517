package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
	"github.com/chris/spot-booking-ledger/pkg/storage/dynamodb/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testTables = TableNames{Accounts: "accounts", Ledger: "ledger", Spots: "spots", Bookings: "bookings"}

func accountAV(t *testing.T, id string, balance string, favorites ...string) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(accountItem{
		Id:            id,
		Name:          "Test",
		Role:          string(models.RoleDriver),
		WalletBalance: number(decimal.RequireFromString(balance)),
		Favorites:     favorites,
		CreatedAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return av
}

func TestCreateAccount(t *testing.T) {
	account := &models.Account{Id: "acc1", Name: "Asha", Role: models.RoleDriver, WalletBalance: decimal.Zero}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			_, hasVersion := in.Item["version"]
			bal, ok := in.Item["wallet_balance"].(*types.AttributeValueMemberN)
			return *in.TableName == "accounts" && hasVersion && ok && bal.Value == "0"
		})).Return(&dynamodb.PutItemOutput{}, nil)

		store := New(mockClient, testTables)
		created, err := store.CreateAccount(context.Background(), account)

		assert.NoError(t, err)
		assert.Equal(t, "acc1", created.Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := New(mockClient, testTables)
		_, err := store.CreateAccount(context.Background(), account)

		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, testTables)
		_, err := store.CreateAccount(context.Background(), account)

		assert.ErrorContains(t, err, "failed to create account in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestGetAccount(t *testing.T) {
	t.Run("Success With Journal", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV(t, "acc1", "39.5")}, nil).Once()

		entry, err := attributevalue.MarshalMap(toLedgerItem(&models.Transaction{
			Id: "tx1", AccountId: "acc1", Kind: models.DEBIT, Amount: decimal.RequireFromString("10.5"),
			Description: "Booking for Lot A", Status: models.TransactionCompleted,
			Timestamp: time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC),
		}))
		require.NoError(t, err)
		mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return *in.TableName == "ledger" && *in.ScanIndexForward
		})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{entry}}, nil).Once()

		store := New(mockClient, testTables)
		acc, err := store.GetAccount(context.Background(), "acc1")

		require.NoError(t, err)
		assert.True(t, acc.WalletBalance.Equal(decimal.RequireFromString("39.5")))
		require.Len(t, acc.Transactions, 1)
		assert.True(t, acc.Transactions[0].Amount.Equal(decimal.RequireFromString("10.5")))
		assert.Equal(t, models.DEBIT, acc.Transactions[0].Kind)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, testTables)
		_, err := store.GetAccount(context.Background(), "ghost")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListAccountsFollowsPages(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "acc1"}}
	mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool { return in.ExclusiveStartKey == nil })).
		Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{accountAV(t, "acc1", "1")}, LastEvaluatedKey: lastKey}, nil).Once()
	mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool { return in.ExclusiveStartKey != nil })).
		Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{accountAV(t, "acc2", "2")}}, nil).Once()

	store := New(mockClient, testTables)
	accounts, err := store.ListAccounts(context.Background())

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc2", accounts[1].Id)
	mockClient.AssertExpectations(t)
}

func TestToggleFavorite(t *testing.T) {
	t.Run("Adds Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV(t, "acc1", "0")}, nil).Once()
		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return *in.UpdateExpression == "ADD favorites :spot"
		})).Return(&dynamodb.UpdateItemOutput{Attributes: accountAV(t, "acc1", "0", "spot1")}, nil).Once()

		store := New(mockClient, testTables)
		favs, err := store.ToggleFavorite(context.Background(), "acc1", "spot1")

		require.NoError(t, err)
		assert.Equal(t, []string{"spot1"}, favs)
		mockClient.AssertExpectations(t)
	})

	t.Run("Removes Present", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: accountAV(t, "acc1", "0", "spot1")}, nil).Once()
		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			return *in.UpdateExpression == "DELETE favorites :spot"
		})).Return(&dynamodb.UpdateItemOutput{Attributes: accountAV(t, "acc1", "0")}, nil).Once()

		store := New(mockClient, testTables)
		favs, err := store.ToggleFavorite(context.Background(), "acc1", "spot1")

		require.NoError(t, err)
		assert.Empty(t, favs)
		mockClient.AssertExpectations(t)
	})
}

func TestRenameAccount(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		name := in.ExpressionAttributeValues[":name"].(*types.AttributeValueMemberS)
		return *in.TableName == "accounts" && *in.UpdateExpression == "SET #name = :name" && name.Value == "Asha R"
	})).Return(&dynamodb.UpdateItemOutput{Attributes: accountAV(t, "acc1", "0")}, nil).Once()

	store := New(mockClient, testTables)
	acc, err := store.RenameAccount(context.Background(), "acc1", "Asha R")

	require.NoError(t, err)
	assert.Equal(t, "acc1", acc.Id)
	mockClient.AssertExpectations(t)
}

func TestDeleteAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
			return *in.TableName == "accounts"
		})).Return(&dynamodb.DeleteItemOutput{}, nil).Once()

		store := New(mockClient, testTables)
		require.NoError(t, store.DeleteAccount(context.Background(), "acc1"))
		mockClient.AssertExpectations(t)
	})

	t.Run("Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("DeleteItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{}).Once()

		store := New(mockClient, testTables)
		assert.ErrorIs(t, store.DeleteAccount(context.Background(), "ghost"), storage.ErrNotFound)
	})
}
