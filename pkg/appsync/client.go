// Package appsync posts IAM-signed GraphQL operations to the data graph.
package appsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-resty/resty/v2"

	"github.com/aquamesh/aquaview-backend/pkg/config"
)

// GraphQLError is one entry of a GraphQL errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// Result holds the items of a list query and any errors the graph reported
// next to them. StatusCode is the HTTP status of the reply.
type Result struct {
	Items      []json.RawMessage
	Errors     []GraphQLError
	StatusCode int
}

// Client sends GraphQL requests over a SigV4 signing transport.
type Client struct {
	http     *resty.Client
	endpoint string
}

// Options tune NewWithCredentials.
type Options struct {
	Timeout   time.Duration
	Transport http.RoundTripper
	Now       func() time.Time
}

// New builds a client that signs with the default credential chain.
func New(ctx context.Context, cfg config.AppSyncConfig) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithCredentials(cfg.Endpoint, cfg.Region, awsCfg.Credentials, Options{Timeout: cfg.Timeout})
}

func NewWithCredentials(endpoint, region string, creds aws.CredentialsProvider, opts Options) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("graphql endpoint required")
	}
	if creds == nil {
		return nil, fmt.Errorf("aws credentials required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &SigningTransport{
		Base:        opts.Transport,
		Credentials: creds,
		Region:      region,
		Now:         opts.Now,
	}
	httpClient := resty.New().
		SetTransport(transport).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, endpoint: endpoint}, nil
}

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []GraphQLError             `json:"errors"`
}

type listPayload struct {
	Items []json.RawMessage `json:"items"`
}

// List runs a list query and returns data.<field>.items unmodified. A
// response without that shape yields no items and no error, whatever its
// HTTP status. Only a failed POST or a body that is not JSON is an error.
func (c *Client) List(ctx context.Context, query string, variables map[string]any, field string) (*Result, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"query": query, "variables": variables}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("post graphql: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("decode graphql response (status %d): %w", resp.StatusCode(), err)
	}

	result := &Result{Items: []json.RawMessage{}, Errors: env.Errors, StatusCode: resp.StatusCode()}
	raw, ok := env.Data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return result, nil
	}
	var payload listPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return result, nil
	}
	if payload.Items != nil {
		result.Items = payload.Items
	}
	return result, nil
}
