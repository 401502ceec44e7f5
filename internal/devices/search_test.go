package devices

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iot"
	"github.com/aws/aws-sdk-go-v2/service/iot/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/sensorquery"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

type stubIoT struct {
	input *iot.SearchIndexInput
	out   *iot.SearchIndexOutput
	err   error
}

func (s *stubIoT) SearchIndex(_ context.Context, in *iot.SearchIndexInput, _ ...func(*iot.Options)) (*iot.SearchIndexOutput, error) {
	s.input = in
	return s.out, s.err
}

func newSearcher(t *testing.T, api *stubIoT) *Searcher {
	t.Helper()
	s, err := NewSearcher(api, logger.Nop())
	require.NoError(t, err)
	return s
}

func TestSearchDefaultsAndMapping(t *testing.T) {
	api := &stubIoT{out: &iot.SearchIndexOutput{
		Things: []types.ThingDocument{
			{ThingName: aws.String("buoy-1"), ThingId: aws.String("id-1"), ThingTypeName: aws.String("AquaSensor"), Attributes: map[string]string{"serial": "SN-1"}},
			{ThingName: aws.String("buoy-2"), ThingId: aws.String("id-2")},
		},
		NextToken: aws.String("next"),
	}}

	out, err := newSearcher(t, api).Search(context.Background(), SearchInput{})
	require.NoError(t, err)

	assert.Equal(t, "AWS_Things", aws.ToString(api.input.IndexName))
	assert.Equal(t, "thingName:*", aws.ToString(api.input.QueryString))
	assert.Equal(t, int32(100), aws.ToInt32(api.input.MaxResults))
	assert.Nil(t, api.input.NextToken)

	res, ok := out.(SearchOutput)
	require.True(t, ok)
	require.Len(t, res.Devices, 2)
	assert.Equal(t, Device{ThingName: "buoy-1", ThingID: "id-1", ThingTypeName: "AquaSensor", Attributes: map[string]string{"serial": "SN-1"}}, res.Devices[0])
	assert.Equal(t, map[string]string{}, res.Devices[1].Attributes)
	assert.Equal(t, "next", aws.ToString(res.NextToken))
}

func TestSearchClampsAndForwardsToken(t *testing.T) {
	api := &stubIoT{out: &iot.SearchIndexOutput{}}
	s := newSearcher(t, api)

	_, err := s.Search(context.Background(), SearchInput{QueryString: "attributes.org:lab", MaxResults: 1000, NextToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, int32(250), aws.ToInt32(api.input.MaxResults))
	assert.Equal(t, "attributes.org:lab", aws.ToString(api.input.QueryString))
	assert.Equal(t, "tok", aws.ToString(api.input.NextToken))

	_, err = s.Search(context.Background(), SearchInput{MaxResults: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), aws.ToInt32(api.input.MaxResults))
}

func TestSearchFailureYieldsEnvelope(t *testing.T) {
	api := &stubIoT{err: errors.New("index not ready")}
	out, err := newSearcher(t, api).Search(context.Background(), SearchInput{})
	require.NoError(t, err)
	env, ok := out.(sensorquery.ErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, 500, env.StatusCode)
	assert.JSONEq(t, `{"errors":[{"message":"index not ready"}]}`, env.Body)
}
