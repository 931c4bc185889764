package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/planmeet/internal/domain"
)

// stubDynamo records inputs and replays canned outputs.
type stubDynamo struct {
	DynamoAPI

	puts      []*dynamodb.PutItemInput
	updates   []*dynamodb.UpdateItemInput
	scans     []*dynamodb.ScanInput
	scanPages []*dynamodb.ScanOutput
	getItem   map[string]types.AttributeValue
	updateOut map[string]types.AttributeValue
	updateErr error
}

func (s *stubDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	s.puts = append(s.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (s *stubDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: s.getItem}, nil
}

func (s *stubDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	s.updates = append(s.updates, in)
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &dynamodb.UpdateItemOutput{Attributes: s.updateOut}, nil
}

func (s *stubDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	s.scans = append(s.scans, in)
	page := s.scanPages[len(s.scans)-1]
	return page, nil
}

func legacyItem(id, team string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":           &types.AttributeValueMemberS{Value: id},
		"assignedTeam": &types.AttributeValueMemberS{Value: team},
		"title":        &types.AttributeValueMemberS{Value: "Write docs"},
		"description":  &types.AttributeValueMemberS{Value: ""},
		"status":       &types.AttributeValueMemberS{Value: "Done"},
		"createdAt":    &types.AttributeValueMemberS{Value: "2024-05-01T10:00:00.000Z"},
		"updatedAt":    &types.AttributeValueMemberS{Value: "2024-05-02T11:30:00.123Z"},
	}
}

func TestChecklistItemEncoding(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	item := &domain.ChecklistItem{
		ID:           "a1",
		AssignedTeam: "dev_team_1",
		Title:        "Write docs",
		Status:       domain.StatusBacklog,
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	av, err := attributevalue.MarshalMap(toDynamoChecklist(item))
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: "a1"}, av["id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "dev_team_1"}, av["assignedTeam"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: ""}, av["description"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Backlog"}, av["status"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2024-05-01T10:00:00.000Z"}, av["createdAt"])
	assert.NotContains(t, av, "submitted")
	assert.NotContains(t, av, "submittedAt")

	at := created.Add(time.Hour)
	item.Submitted = true
	item.SubmittedAt = &at
	av, err = attributevalue.MarshalMap(toDynamoChecklist(item))
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, av["submitted"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2024-05-01T11:00:00.000Z"}, av["submittedAt"])
}

func TestUnmarshalLegacyItem(t *testing.T) {
	item, err := unmarshalChecklist(legacyItem("a1", "dev_team_1"))
	require.NoError(t, err)

	assert.False(t, item.Submitted)
	assert.Nil(t, item.SubmittedAt)
	assert.Equal(t, domain.StatusDone, item.Status)
	assert.Equal(t, 123*time.Millisecond, time.Duration(item.UpdatedAt.Nanosecond()))
}

func TestUnmarshalRejectsMalformedItem(t *testing.T) {
	raw := legacyItem("a1", "dev_team_1")
	delete(raw, "assignedTeam")
	_, err := unmarshalChecklist(raw)
	assert.ErrorContains(t, err, "malformed")

	raw = legacyItem("a1", "dev_team_1")
	raw["createdAt"] = &types.AttributeValueMemberS{Value: "yesterday"}
	_, err = unmarshalChecklist(raw)
	assert.ErrorContains(t, err, "createdAt")
}

func TestListFollowsPagesAndFilters(t *testing.T) {
	stub := &stubDynamo{scanPages: []*dynamodb.ScanOutput{
		{
			Items:            []map[string]types.AttributeValue{legacyItem("a1", "dev_team_1")},
			LastEvaluatedKey: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: "a1"}},
		},
		{Items: []map[string]types.AttributeValue{legacyItem("a2", "dev_team_1")}},
	}}
	repo := NewDynamoChecklistRepository(stub, "checklists")

	team := "dev_team_1"
	status := domain.StatusDone
	submitted := false
	items, err := repo.List(context.Background(), ChecklistFilter{Team: &team, Status: &status, Submitted: &submitted})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].ID)
	assert.Equal(t, "a2", items[1].ID)
	require.Len(t, stub.scans, 2)
	assert.Equal(t, "a1", stub.scans[1].ExclusiveStartKey["id"].(*types.AttributeValueMemberS).Value)

	filter := aws.ToString(stub.scans[0].FilterExpression)
	assert.Contains(t, filter, "attribute_not_exists")
	assert.Contains(t, stub.scans[0].ExpressionAttributeValues, ":0")
}

func TestListWithoutFilterScansEverything(t *testing.T) {
	stub := &stubDynamo{scanPages: []*dynamodb.ScanOutput{{}}}
	repo := NewDynamoChecklistRepository(stub, "checklists")

	items, err := repo.List(context.Background(), ChecklistFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Nil(t, stub.scans[0].FilterExpression)
}

func TestGetMissingItem(t *testing.T) {
	repo := NewDynamoChecklistRepository(&stubDynamo{}, "checklists")
	_, err := repo.Get(context.Background(), "nope", "dev_team_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateConditionFailures(t *testing.T) {
	at := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)

	t.Run("missing item is not found", func(t *testing.T) {
		stub := &stubDynamo{updateErr: &types.ConditionalCheckFailedException{}}
		repo := NewDynamoChecklistRepository(stub, "checklists")

		_, err := repo.UpdateStatus(context.Background(), "a1", "dev_team_1", domain.StatusDone, at)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, aws.ToString(stub.updates[0].ConditionExpression), "attribute_exists")
	})

	t.Run("present item is already submitted", func(t *testing.T) {
		stub := &stubDynamo{updateErr: &types.ConditionalCheckFailedException{Item: legacyItem("a1", "dev_team_1")}}
		repo := NewDynamoChecklistRepository(stub, "checklists")

		_, err := repo.MarkSubmitted(context.Background(), "a1", "dev_team_1", at)
		assert.ErrorIs(t, err, ErrAlreadySubmitted)
	})

	t.Run("success returns new image", func(t *testing.T) {
		out := legacyItem("a1", "dev_team_1")
		out["submitted"] = &types.AttributeValueMemberBOOL{Value: true}
		out["submittedAt"] = &types.AttributeValueMemberS{Value: "2024-05-03T09:00:00.000Z"}
		stub := &stubDynamo{updateOut: out}
		repo := NewDynamoChecklistRepository(stub, "checklists")

		item, err := repo.MarkSubmitted(context.Background(), "a1", "dev_team_1", at)
		require.NoError(t, err)
		assert.True(t, item.Submitted)
		require.NotNil(t, item.SubmittedAt)
		assert.True(t, at.Equal(*item.SubmittedAt))
		assert.Equal(t, types.ReturnValueAllNew, stub.updates[0].ReturnValues)
	})
}

func TestChecklistFilterMatches(t *testing.T) {
	team := "dev_team_1"
	submitted := true
	item := &domain.ChecklistItem{AssignedTeam: team, Status: domain.StatusDone}

	assert.True(t, ChecklistFilter{}.Matches(item))
	assert.True(t, ChecklistFilter{Team: &team}.Matches(item))
	assert.False(t, ChecklistFilter{Submitted: &submitted}.Matches(item))

	other := "dev_team_2"
	assert.False(t, ChecklistFilter{Team: &other}.Matches(item))
}
