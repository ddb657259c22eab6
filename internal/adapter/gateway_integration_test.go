//go:build integration

package adapter

import (
	"book-catalog/internal/core/model"
	"book-catalog/pkg/http_client"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Runs against a live catalog service, e.g. one started with `go run ./cmd/api`.
func TestCatalogClient_Live(t *testing.T) {
	base := os.Getenv("CATALOG_BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	c := NewCatalogClient(base, http_client.CreateHTTPClient(0, nil), nil)
	res, err := c.ListRecords(context.Background(), model.DefaultQueryParams())
	require.NoError(t, err)
	require.NotNil(t, res.Records)
	require.LessOrEqual(t, len(res.Records), model.DefaultPageSize)
}
