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

// TakeUnit decrements available units only while some remain.
func (s *Store) TakeUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	return s.updateSpot(ctx, spotID, &dynamodb.UpdateItemInput{
		UpdateExpression:    aws.String("SET available_units = available_units - :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND available_units > :zero"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":  &types.AttributeValueMemberN{Value: "1"},
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	}, storage.ErrNoUnitsAvailable)
}

// ReturnUnit increments available units only while below the total.
func (s *Store) ReturnUnit(ctx context.Context, spotID string) (*models.ParkingSpot, error) {
	return s.updateSpot(ctx, spotID, &dynamodb.UpdateItemInput{
		UpdateExpression:    aws.String("SET available_units = available_units + :one"),
		ConditionExpression: aws.String("attribute_exists(id) AND available_units < total_units"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	}, storage.ErrAllUnitsFree)
}

// updateSpot runs a conditional update on a spot and returns the new image.
// A failed condition on an existing item is reported as onConflict; a missing
// item as storage.ErrNotFound.
func (s *Store) updateSpot(ctx context.Context, spotID string, input *dynamodb.UpdateItemInput, onConflict error) (*models.ParkingSpot, error) {
	input.TableName = aws.String(s.Tables.Spots)
	input.Key = idKey(spotID)
	input.ReturnValues = types.ReturnValueAllNew
	input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld

	result, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			if len(condCheckFailed.Item) == 0 || onConflict == nil {
				return nil, fmt.Errorf("spot %s: %w", spotID, storage.ErrNotFound)
			}
			return nil, fmt.Errorf("spot %s: %w", spotID, onConflict)
		}
		return nil, fmt.Errorf("failed to update spot in DynamoDB: %w", err)
	}

	var item spotItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spot: %w", err)
	}
	return item.model(), nil
}
