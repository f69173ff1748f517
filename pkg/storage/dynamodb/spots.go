package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/spot-booking-ledger/pkg/models"
	"github.com/chris/spot-booking-ledger/pkg/storage"
)

func (s *Store) CreateSpot(ctx context.Context, spot *models.ParkingSpot) (*models.ParkingSpot, error) {
	av, err := attributevalue.MarshalMap(toSpotItem(spot))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spot: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Spots),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil, fmt.Errorf("spot %s: %w", spot.Id, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create spot in DynamoDB: %w", err)
	}

	out := *spot
	return &out, nil
}

func (s *Store) GetSpot(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Spots),
		Key:            idKey(spotID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get spot from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
	}

	var item spotItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spot: %w", err)
	}
	return item.model(), nil
}

// ListSpots scans the spots table, filtering on status when one is given.
func (s *Store) ListSpots(ctx context.Context, status models.SpotStatus) ([]models.ParkingSpot, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Spots),
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		}
	}

	raw, err := s.scanAll(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to scan spots table: %w", err)
	}
	return unmarshalSpots(raw)
}

func (s *Store) ListSpotsByOwner(ctx context.Context, ownerID string) ([]models.ParkingSpot, error) {
	raw, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Spots),
		IndexName:              aws.String(ownerIDIndex),
		KeyConditionExpression: aws.String("owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query spots by owner: %w", err)
	}
	return unmarshalSpots(raw)
}

func unmarshalSpots(raw []map[string]types.AttributeValue) ([]models.ParkingSpot, error) {
	var items []spotItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spots: %w", err)
	}
	spots := make([]models.ParkingSpot, 0, len(items))
	for _, item := range items {
		spots = append(spots, *item.model())
	}
	return spots, nil
}

func (s *Store) SetSpotStatus(ctx context.Context, spotID string, status models.SpotStatus) (*models.ParkingSpot, error) {
	return s.updateSpot(ctx, spotID, &dynamodb.UpdateItemInput{
		UpdateExpression:    aws.String("SET #status = :status"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
	}, nil)
}

// UpdateSpot sets the changed attributes in one conditional update. A new
// unit total is applied as a delta on available_units, guarded on the total
// it was computed from and on enough free units to absorb a shrink.
func (s *Store) UpdateSpot(ctx context.Context, spotID string, changes models.SpotChanges) (*models.ParkingSpot, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var sets []string
	set := func(attr string, v types.AttributeValue) {
		names["#"+attr] = attr
		values[":"+attr] = v
		sets = append(sets, "#"+attr+" = :"+attr)
	}

	if changes.Name != nil {
		set("name", &types.AttributeValueMemberS{Value: *changes.Name})
	}
	if changes.Location != nil {
		set("location", &types.AttributeValueMemberS{Value: *changes.Location})
	}
	if changes.LiveFeedURL != nil {
		set("live_feed_url", &types.AttributeValueMemberS{Value: *changes.LiveFeedURL})
	}
	if changes.PricePerHour != nil {
		av, err := attributevalue.Marshal(number(*changes.PricePerHour))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal price: %w", err)
		}
		set("price_per_hour", av)
	}

	condition := "attribute_exists(id)"
	if changes.TotalUnits != nil {
		current, err := s.GetSpot(ctx, spotID)
		if err != nil {
			return nil, err
		}
		delta := *changes.TotalUnits - current.TotalUnits
		sets = append(sets, "total_units = :total", "available_units = available_units + :delta")
		values[":total"] = &types.AttributeValueMemberN{Value: strconv.Itoa(*changes.TotalUnits)}
		values[":delta"] = &types.AttributeValueMemberN{Value: strconv.Itoa(delta)}
		values[":prev_total"] = &types.AttributeValueMemberN{Value: strconv.Itoa(current.TotalUnits)}
		values[":min_free"] = &types.AttributeValueMemberN{Value: strconv.Itoa(-delta)}
		condition += " AND total_units = :prev_total AND available_units >= :min_free"
	}

	if len(sets) == 0 {
		return s.GetSpot(ctx, spotID)
	}

	input := &dynamodb.UpdateItemInput{
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	return s.updateSpot(ctx, spotID, input, storage.ErrUnitsInUse)
}

// DeleteSpot removes the spot only while every unit is free.
func (s *Store) DeleteSpot(ctx context.Context, spotID string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                           aws.String(s.Tables.Spots),
		Key:                                 idKey(spotID),
		ConditionExpression:                 aws.String("attribute_exists(id) AND available_units = total_units"),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			if len(condCheckFailed.Item) == 0 {
				return fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
			}
			return fmt.Errorf("spot %s: %w", spotID, storage.ErrUnitsInUse)
		}
		return fmt.Errorf("failed to delete spot from DynamoDB: %w", err)
	}
	return nil
}
