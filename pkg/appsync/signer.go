package appsync

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const signingService = "appsync"

// SigningTransport signs every outgoing request with SigV4 for AppSync.
type SigningTransport struct {
	Base        http.RoundTripper
	Credentials aws.CredentialsProvider
	Region      string
	Signer      *v4.Signer
	Now         func() time.Time
}

func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	creds, err := t.Credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve aws credentials: %w", err)
	}

	signed := req.Clone(ctx)
	var payload []byte
	if req.Body != nil {
		payload, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
	}
	signed.Body = io.NopCloser(bytes.NewReader(payload))
	signed.ContentLength = int64(len(payload))
	sum := sha256.Sum256(payload)

	signer := t.Signer
	if signer == nil {
		signer = v4.NewSigner()
	}
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	if err := signer.SignHTTP(ctx, creds, signed, hex.EncodeToString(sum[:]), signingService, t.Region, now()); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(signed)
}
