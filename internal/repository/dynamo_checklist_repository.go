package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spec-kit/planmeet/internal/domain"
)

// DynamoAPI is the subset of the DynamoDB client used by the repository.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// timestampLayout matches the ISO-8601 millisecond strings already in the table.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// dynamoChecklist is the stored item shape: strings as S, submitted as BOOL.
type dynamoChecklist struct {
	ID           string `dynamodbav:"id"`
	AssignedTeam string `dynamodbav:"assignedTeam"`
	Title        string `dynamodbav:"title"`
	Description  string `dynamodbav:"description"`
	Status       string `dynamodbav:"status"`
	CreatedAt    string `dynamodbav:"createdAt"`
	UpdatedAt    string `dynamodbav:"updatedAt"`
	Submitted    *bool  `dynamodbav:"submitted,omitempty"`
	SubmittedAt  string `dynamodbav:"submittedAt,omitempty"`
}

type dynamoChecklistRepository struct {
	client DynamoAPI
	table  string
}

// NewDynamoChecklistRepository returns a DynamoDB-backed implementation.
func NewDynamoChecklistRepository(client DynamoAPI, table string) ChecklistRepository {
	return &dynamoChecklistRepository{client: client, table: table}
}

func (r *dynamoChecklistRepository) Create(ctx context.Context, item *domain.ChecklistItem) error {
	av, err := attributevalue.MarshalMap(toDynamoChecklist(item))
	if err != nil {
		return fmt.Errorf("marshal checklist: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      av,
	})
	return err
}

func (r *dynamoChecklistRepository) Get(ctx context.Context, id, team string) (*domain.ChecklistItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            checklistKey(id, team),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	return unmarshalChecklist(out.Item)
}

func (r *dynamoChecklistRepository) List(ctx context.Context, filter ChecklistFilter) ([]domain.ChecklistItem, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	if cond, ok := filterCondition(filter); ok {
		expr, err := expression.NewBuilder().WithFilter(cond).Build()
		if err != nil {
			return nil, fmt.Errorf("build filter: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	items := []domain.ChecklistItem{}
	pages := dynamodb.NewScanPaginator(r.client, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			item, err := unmarshalChecklist(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, *item)
		}
	}
	return items, nil
}

func (r *dynamoChecklistRepository) UpdateStatus(ctx context.Context, id, team string, status domain.ChecklistStatus, at time.Time) (*domain.ChecklistItem, error) {
	update := expression.Set(expression.Name("status"), expression.Value(string(status))).
		Set(expression.Name("updatedAt"), expression.Value(formatTimestamp(at)))
	return r.updateExisting(ctx, id, team, update, existsCondition())
}

func (r *dynamoChecklistRepository) UpdateContent(ctx context.Context, id, team, title, description string, at time.Time) (*domain.ChecklistItem, error) {
	update := expression.Set(expression.Name("title"), expression.Value(title)).
		Set(expression.Name("description"), expression.Value(description)).
		Set(expression.Name("updatedAt"), expression.Value(formatTimestamp(at)))
	return r.updateExisting(ctx, id, team, update, existsCondition())
}

func (r *dynamoChecklistRepository) Delete(ctx context.Context, id, team string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       checklistKey(id, team),
	})
	return err
}

func (r *dynamoChecklistRepository) MarkSubmitted(ctx context.Context, id, team string, at time.Time) (*domain.ChecklistItem, error) {
	update := expression.Set(expression.Name("submitted"), expression.Value(true)).
		Set(expression.Name("submittedAt"), expression.Value(formatTimestamp(at)))
	cond := existsCondition().And(notSubmittedCondition())
	return r.updateExisting(ctx, id, team, update, cond)
}

func (r *dynamoChecklistRepository) Ping(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	return err
}

// updateExisting applies update guarded by cond. A failed condition on a present
// item means it was already submitted; on an absent item it means not found.
func (r *dynamoChecklistRepository) updateExisting(ctx context.Context, id, team string, update expression.UpdateBuilder, cond expression.ConditionBuilder) (*domain.ChecklistItem, error) {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                           aws.String(r.table),
		Key:                                 checklistKey(id, team),
		UpdateExpression:                    expr.Update(),
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			if len(condErr.Item) > 0 {
				return nil, ErrAlreadySubmitted
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshalChecklist(out.Attributes)
}

func checklistKey(id, team string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":           &types.AttributeValueMemberS{Value: id},
		"assignedTeam": &types.AttributeValueMemberS{Value: team},
	}
}

func existsCondition() expression.ConditionBuilder {
	return expression.AttributeExists(expression.Name("id"))
}

func notSubmittedCondition() expression.ConditionBuilder {
	return expression.Or(
		expression.AttributeNotExists(expression.Name("submitted")),
		expression.Name("submitted").Equal(expression.Value(false)),
	)
}

func filterCondition(filter ChecklistFilter) (expression.ConditionBuilder, bool) {
	var conds []expression.ConditionBuilder
	if filter.Team != nil {
		conds = append(conds, expression.Name("assignedTeam").Equal(expression.Value(*filter.Team)))
	}
	if filter.Status != nil {
		conds = append(conds, expression.Name("status").Equal(expression.Value(string(*filter.Status))))
	}
	if filter.Submitted != nil {
		if *filter.Submitted {
			conds = append(conds, expression.Name("submitted").Equal(expression.Value(true)))
		} else {
			conds = append(conds, notSubmittedCondition())
		}
	}

	switch len(conds) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return conds[0], true
	default:
		return expression.And(conds[0], conds[1], conds[2:]...), true
	}
}

func toDynamoChecklist(item *domain.ChecklistItem) dynamoChecklist {
	out := dynamoChecklist{
		ID:           item.ID,
		AssignedTeam: item.AssignedTeam,
		Title:        item.Title,
		Description:  item.Description,
		Status:       string(item.Status),
		CreatedAt:    formatTimestamp(item.CreatedAt),
		UpdatedAt:    formatTimestamp(item.UpdatedAt),
	}
	if item.Submitted {
		out.Submitted = aws.Bool(true)
	}
	if item.SubmittedAt != nil {
		out.SubmittedAt = formatTimestamp(*item.SubmittedAt)
	}
	return out
}

func unmarshalChecklist(raw map[string]types.AttributeValue) (*domain.ChecklistItem, error) {
	var stored dynamoChecklist
	if err := attributevalue.UnmarshalMap(raw, &stored); err != nil {
		return nil, fmt.Errorf("malformed checklist item: %w", err)
	}
	if stored.ID == "" || stored.AssignedTeam == "" {
		return nil, errors.New("malformed checklist item: missing key attributes")
	}

	item := &domain.ChecklistItem{
		ID:           stored.ID,
		AssignedTeam: stored.AssignedTeam,
		Title:        stored.Title,
		Description:  stored.Description,
		Status:       domain.ChecklistStatus(stored.Status),
		Submitted:    stored.Submitted != nil && *stored.Submitted,
	}
	var err error
	if item.CreatedAt, err = parseTimestamp(stored.CreatedAt); err != nil {
		return nil, fmt.Errorf("malformed checklist item %s: createdAt: %w", stored.ID, err)
	}
	if item.UpdatedAt, err = parseTimestamp(stored.UpdatedAt); err != nil {
		return nil, fmt.Errorf("malformed checklist item %s: updatedAt: %w", stored.ID, err)
	}
	if stored.SubmittedAt != "" {
		at, err := parseTimestamp(stored.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("malformed checklist item %s: submittedAt: %w", stored.ID, err)
		}
		item.SubmittedAt = &at
	}
	return item, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
