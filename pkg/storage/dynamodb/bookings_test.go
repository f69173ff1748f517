package dynamodb

import (
	"context"
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

func testBooking() *models.Booking {
	return &models.Booking{
		Id: "b1", DriverId: "driver", SpotId: "spot1", Date: "2024-05-01", Time: "12:00 - 14:00",
		BaseAmount:     decimal.NewFromInt(11),
		Status:         models.BookingActive,
		ScheduledStart: time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC),
		OvertimeFee:    decimal.Zero,
		CreatedAt:      time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC),
	}
}

func TestBookingItemRoundTrip(t *testing.T) {
	b := testBooking()
	end := time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC)
	total := decimal.RequireFromString("21.00")
	b.Status = models.BookingCompleted
	b.ActualEnd = &end
	b.OvertimeFee = decimal.NewFromInt(10)
	b.TotalAmount = &total

	av, err := attributevalue.MarshalMap(toBookingItem(b))
	require.NoError(t, err)

	scheduledEnd, ok := av["scheduled_end"].(*types.AttributeValueMemberN)
	require.True(t, ok)
	assert.Equal(t, "1714552200", scheduledEnd.Value)

	var item bookingItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &item))
	got := item.model()

	assert.Equal(t, b.ScheduledEnd, got.ScheduledEnd)
	require.NotNil(t, got.TotalAmount)
	assert.True(t, got.TotalAmount.Equal(total))
	require.NotNil(t, got.ActualEnd)
	assert.True(t, got.ActualEnd.Equal(end))
}

func TestActiveBookingOmitsCompletionFields(t *testing.T) {
	av, err := attributevalue.MarshalMap(toBookingItem(testBooking()))
	require.NoError(t, err)
	assert.NotContains(t, av, "total_amount")
	assert.NotContains(t, av, "actual_end")
}

func TestFinalizeBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			from := in.ExpressionAttributeValues[":from"].(*types.AttributeValueMemberS)
			return *in.ConditionExpression == "#status = :from" && from.Value == "Active"
		})).Return(&dynamodb.PutItemOutput{}, nil).Once()

		store := New(mockClient, testTables)
		err := store.FinalizeBooking(context.Background(), testBooking(), models.BookingActive)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Status Moved On", func(t *testing.T) {
		old, err := attributevalue.MarshalMap(toBookingItem(testBooking()))
		require.NoError(t, err)
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{Item: old}).Once()

		store := New(mockClient, testTables)
		err = store.FinalizeBooking(context.Background(), testBooking(), models.BookingActive)

		assert.ErrorIs(t, err, storage.ErrStatusConflict)
	})

	t.Run("Missing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).
			Return(nil, &types.ConditionalCheckFailedException{}).Once()

		store := New(mockClient, testTables)
		err := store.FinalizeBooking(context.Background(), testBooking(), models.BookingActive)

		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestListOverdueBookings(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	late, err := attributevalue.MarshalMap(toBookingItem(testBooking()))
	require.NoError(t, err)

	mockClient := new(mocks.DynamoDBAPI)
	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		cutoff := in.ExpressionAttributeValues[":now"].(*types.AttributeValueMemberN)
		return *in.IndexName == statusIndex && cutoff.Value == "1714554000"
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{late}}, nil).Once()

	store := New(mockClient, testTables)
	got, err := store.ListOverdueBookings(context.Background(), now)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].Id)
	mockClient.AssertExpectations(t)
}

func TestGetBookingNotFound(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil).Once()

	store := New(mockClient, testTables)
	_, err := store.GetBooking(context.Background(), "ghost")

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestVoidedRoundTrip(t *testing.T) {
	b := testBooking()
	b.Voided = true
	av, err := attributevalue.MarshalMap(toBookingItem(b))
	require.NoError(t, err)

	var item bookingItem
	require.NoError(t, attributevalue.UnmarshalMap(av, &item))
	assert.True(t, item.model().Voided)

	plain, err := attributevalue.MarshalMap(toBookingItem(testBooking()))
	require.NoError(t, err)
	assert.NotContains(t, plain, "voided")
}
