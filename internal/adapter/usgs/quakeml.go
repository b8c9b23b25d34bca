package usgs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
)

// QuakeMLExporter fetches the QuakeML rendition of a query and writes it
// verbatim to a side file consumed by external XSLT tooling. This path is
// independent of the tabular pipeline; callers log failures and move on.
type QuakeMLExporter struct {
	client *Client
	path   string
	logger *slog.Logger
}

// NewQuakeMLExporter creates an exporter writing to path.
func NewQuakeMLExporter(client *Client, path string, logger *slog.Logger) *QuakeMLExporter {
	return &QuakeMLExporter{client: client, path: path, logger: logger}
}

// Export fetches and persists the QuakeML body for the query window.
func (x *QuakeMLExporter) Export(ctx context.Context, q domain.Query) error {
	body, err := x.client.FetchQuakeML(ctx, q)
	if err != nil {
		return fmt.Errorf("fetch quakeml: %w", err)
	}

	if err := os.WriteFile(x.path, body, 0o644); err != nil {
		return fmt.Errorf("write quakeml file: %w", err)
	}

	x.logger.Info("saved quakeml export", "path", x.path, "bytes", len(body))
	return nil
}
