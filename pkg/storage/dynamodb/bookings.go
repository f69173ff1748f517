package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	av, err := attributevalue.MarshalMap(toBookingItem(booking))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Bookings),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("booking %s: %w", booking.Id, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create booking in DynamoDB: %w", err)
	}

	out := *booking
	return &out, nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Bookings),
		Key:            idKey(bookingID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get booking from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, storage.ErrNotFound)
	}

	var item bookingItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	return item.model(), nil
}

// FinalizeBooking overwrites the booking only if its stored status is still from.
func (s *Store) FinalizeBooking(ctx context.Context, b *models.Booking, from models.BookingStatus) error {
	av, err := attributevalue.MarshalMap(toBookingItem(b))
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Bookings),
		Item:                av,
		ConditionExpression: aws.String("#status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: string(from)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			if len(condCheckFailed.Item) == 0 {
				return fmt.Errorf("booking %s: %w", b.Id, storage.ErrNotFound)
			}
			return fmt.Errorf("booking %s: %w", b.Id, storage.ErrStatusConflict)
		}
		return fmt.Errorf("failed to update booking in DynamoDB: %w", err)
	}
	return nil
}

func (s *Store) ListBookingsByDriver(ctx context.Context, driverID string) ([]models.Booking, error) {
	return s.queryBookings(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String(driverIDIndex),
		KeyConditionExpression: aws.String("driver_id = :driver"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":driver": &types.AttributeValueMemberS{Value: driverID},
		},
	})
}

func (s *Store) ListBookingsBySpot(ctx context.Context, spotID string) ([]models.Booking, error) {
	return s.queryBookings(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String(spotIDIndex),
		KeyConditionExpression: aws.String("spot_id = :spot"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":spot": &types.AttributeValueMemberS{Value: spotID},
		},
	})
}

// ListBookingsByStatus queries the status index without a range condition.
func (s *Store) ListBookingsByStatus(ctx context.Context, status models.BookingStatus) ([]models.Booking, error) {
	return s.queryBookings(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String(statusIndex),
		KeyConditionExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	})
}

// ListOverdueBookings queries Active bookings whose scheduled end has passed.
func (s *Store) ListOverdueBookings(ctx context.Context, now time.Time) ([]models.Booking, error) {
	return s.queryBookings(ctx, &dynamodb.QueryInput{
		IndexName:              aws.String(statusIndex),
		KeyConditionExpression: aws.String("#status = :active AND scheduled_end < :now"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberS{Value: string(models.BookingActive)},
			":now":    &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
}

// queryBookings pages through a bookings index and orders the result by creation time.
func (s *Store) queryBookings(ctx context.Context, input *dynamodb.QueryInput) ([]models.Booking, error) {
	input.TableName = aws.String(s.Tables.Bookings)

	raw, err := s.queryAll(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}

	var items []bookingItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookings: %w", err)
	}
	bookings := make([]models.Booking, 0, len(items))
	for _, item := range items {
		bookings = append(bookings, *item.model())
	}

	sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].CreatedAt.Before(bookings[j].CreatedAt) })
	return bookings, nil
}
