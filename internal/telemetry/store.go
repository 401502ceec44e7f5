package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/aquamesh/aquaview-backend/pkg/dynamo"
)

const defaultMaxItems = 5000

// Window is a closed time range on the sort key.
type Window struct {
	Start time.Time
	End   time.Time
}

// Store reads telemetry from the DynamoDB tables.
type Store struct {
	client           dynamo.QueryAPI
	parameterTable   string
	spectrogramTable string
	maxItems         int
}

// StoreConfig names the tables and caps how many items one query collects.
type StoreConfig struct {
	ParameterValuesTable     string
	SpectrogramReadingsTable string
	MaxItems                 int
}

func NewStore(client dynamo.QueryAPI, cfg StoreConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client required")
	}
	if cfg.ParameterValuesTable == "" || cfg.SpectrogramReadingsTable == "" {
		return nil, fmt.Errorf("telemetry table names required")
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Store{
		client:           client,
		parameterTable:   cfg.ParameterValuesTable,
		spectrogramTable: cfg.SpectrogramReadingsTable,
		maxItems:         maxItems,
	}, nil
}

func sensorWindow(sensorID string, w Window) expression.KeyConditionBuilder {
	return expression.Key("sensorId").Equal(expression.Value(sensorID)).
		And(expression.Key("timestamp").Between(
			expression.Value(formatTimestamp(w.Start)),
			expression.Value(formatTimestamp(w.End)),
		))
}

// ParameterValues returns the sensor's values inside w in timestamp order.
// Names, when given, restrict parameterName.
func (s *Store) ParameterValues(ctx context.Context, sensorID string, w Window, names []string) (Page[ParameterValue], error) {
	builder := expression.NewBuilder().WithKeyCondition(sensorWindow(sensorID, w))
	if len(names) > 0 {
		others := make([]expression.OperandBuilder, 0, len(names)-1)
		for _, name := range names[1:] {
			others = append(others, expression.Value(name))
		}
		builder = builder.WithFilter(expression.Name("parameterName").In(expression.Value(names[0]), others...))
	}
	expr, err := builder.Build()
	if err != nil {
		return Page[ParameterValue]{}, fmt.Errorf("build parameter value query: %w", err)
	}
	return queryPages[ParameterValue](ctx, s.client, queryInput(s.parameterTable, expr), s.maxItems)
}

// SpectrogramReadings returns the sensor's readings inside w in timestamp
// order, optionally for one LED wavelength.
func (s *Store) SpectrogramReadings(ctx context.Context, sensorID string, w Window, ledWavelength *float64) (Page[SpectrogramReading], error) {
	builder := expression.NewBuilder().WithKeyCondition(sensorWindow(sensorID, w))
	if ledWavelength != nil {
		builder = builder.WithFilter(expression.Name("ledWavelength").Equal(expression.Value(*ledWavelength)))
	}
	expr, err := builder.Build()
	if err != nil {
		return Page[SpectrogramReading]{}, fmt.Errorf("build spectrogram query: %w", err)
	}
	return queryPages[SpectrogramReading](ctx, s.client, queryInput(s.spectrogramTable, expr), s.maxItems)
}

func queryInput(table string, expr expression.Expression) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	}
}

// queryPages walks every page until the table is exhausted or maxItems rows
// are gathered. Rows past the cap are dropped and the page is marked
// truncated; hitting the cap exactly counts as truncated only when DynamoDB
// still reports unread pages.
func queryPages[T any](ctx context.Context, client dynamo.QueryAPI, input *dynamodb.QueryInput, maxItems int) (Page[T], error) {
	table := aws.ToString(input.TableName)
	paginator := dynamodb.NewQueryPaginator(client, input)
	var out []T
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return Page[T]{}, fmt.Errorf("query %s: %w", table, err)
		}
		var rows []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return Page[T]{}, fmt.Errorf("unmarshal %s items: %w", table, err)
		}
		out = append(out, rows...)
		switch {
		case len(out) > maxItems:
			return Page[T]{Items: out[:maxItems], Truncated: true}, nil
		case len(out) == maxItems:
			return Page[T]{Items: out, Truncated: paginator.HasMorePages()}, nil
		}
	}
	return Page[T]{Items: out}, nil
}
