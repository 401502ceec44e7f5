// Package devices searches the IoT fleet index for registered things.
package devices

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iot"

	"github.com/aquamesh/aquaview-backend/internal/sensorquery"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

const (
	thingsIndex    = "AWS_Things"
	defaultQuery   = "thingName:*"
	defaultResults = 100
	maxResults     = 250
)

// SearchAPI is the IoT call the search needs.
type SearchAPI interface {
	SearchIndex(ctx context.Context, params *iot.SearchIndexInput, optFns ...func(*iot.Options)) (*iot.SearchIndexOutput, error)
}

var _ SearchAPI = (*iot.Client)(nil)

// SearchInput is the event of the device search function.
type SearchInput struct {
	QueryString string `json:"queryString,omitempty"`
	MaxResults  int    `json:"maxResults,omitempty"`
	NextToken   string `json:"nextToken,omitempty"`
}

// Device is one thing from the index.
type Device struct {
	ThingName     string            `json:"thingName"`
	ThingID       string            `json:"thingId"`
	ThingTypeName string            `json:"thingTypeName,omitempty"`
	Attributes    map[string]string `json:"attributes"`
}

// SearchOutput is the success shape of the device search function.
type SearchOutput struct {
	Devices   []Device `json:"devices"`
	NextToken *string  `json:"nextToken"`
}

type Searcher struct {
	api  SearchAPI
	logg *logger.Logger
}

func NewSearcher(api SearchAPI, logg *logger.Logger) (*Searcher, error) {
	if api == nil {
		return nil, fmt.Errorf("iot client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Searcher{api: api, logg: logg}, nil
}

func clampResults(n int) int32 {
	switch {
	case n <= 0:
		return defaultResults
	case n > maxResults:
		return maxResults
	}
	return int32(n)
}

// Search returns a SearchOutput on success and a sensorquery.ErrorEnvelope
// on failure. It never returns an error to the runtime.
func (s *Searcher) Search(ctx context.Context, in SearchInput) (any, error) {
	query := strings.TrimSpace(in.QueryString)
	if query == "" {
		query = defaultQuery
	}
	input := &iot.SearchIndexInput{
		IndexName:   aws.String(thingsIndex),
		QueryString: aws.String(query),
		MaxResults:  aws.Int32(clampResults(in.MaxResults)),
	}
	if token := strings.TrimSpace(in.NextToken); token != "" {
		input.NextToken = aws.String(token)
	}

	ctx = s.logg.WithField(ctx, "iot_query", query)
	out, err := s.api.SearchIndex(ctx, input)
	if err != nil {
		s.logg.Error(ctx, "devices.search_failed", err)
		return sensorquery.NewErrorEnvelope(err), nil
	}

	devices := make([]Device, 0, len(out.Things))
	for _, thing := range out.Things {
		attrs := thing.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		devices = append(devices, Device{
			ThingName:     aws.ToString(thing.ThingName),
			ThingID:       aws.ToString(thing.ThingId),
			ThingTypeName: aws.ToString(thing.ThingTypeName),
			Attributes:    attrs,
		})
	}
	ctx = s.logg.WithField(ctx, "device_count", len(devices))
	s.logg.Info(ctx, "devices.search_completed")
	return SearchOutput{Devices: devices, NextToken: out.NextToken}, nil
}
