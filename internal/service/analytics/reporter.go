package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/JasChiang/ai-video-writer-sub000/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtubeanalytics/v2"
)

// ReportRequest describes one reports.query call against the Analytics API.
type ReportRequest struct {
	StartDate  string
	EndDate    string
	Metrics    []string
	Dimensions []string
	Filters    string
	Sort       string
	MaxResults int64
}

// ReportResponse is the typed boundary over the API's positional row format.
// Nothing outside this package indexes into raw rows; the resolver converts
// them into domain structs immediately.
type ReportResponse struct {
	Columns []string
	Rows    [][]any
}

// Reporter issues Analytics API queries. The concrete implementation wraps
// the Google client; tests substitute a fake.
type Reporter interface {
	Query(ctx context.Context, req ReportRequest) (*ReportResponse, error)
}

// APIReporter queries the YouTube Analytics API with an externally supplied
// OAuth access token. Token refresh is a collaborator concern: an expired
// credential surfaces as a fatal auth error, never a retry.
type APIReporter struct {
	service   *youtubeanalytics.Service
	channelID string
}

func NewAPIReporter(ctx context.Context, accessToken, channelID string) (*APIReporter, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("analytics access token is required")
	}
	if channelID == "" {
		return nil, fmt.Errorf("channel ID is required")
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := youtubeanalytics.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics service: %w", err)
	}

	return &APIReporter{
		service:   service,
		channelID: channelID,
	}, nil
}

func (r *APIReporter) Query(ctx context.Context, req ReportRequest) (*ReportResponse, error) {
	call := r.service.Reports.Query().
		Ids("channel==" + r.channelID).
		StartDate(req.StartDate).
		EndDate(req.EndDate).
		Metrics(strings.Join(req.Metrics, ","))

	if len(req.Dimensions) > 0 {
		call = call.Dimensions(strings.Join(req.Dimensions, ","))
	}
	if req.Filters != "" {
		call = call.Filters(req.Filters)
	}
	if req.Sort != "" {
		call = call.Sort(req.Sort)
	}
	if req.MaxResults > 0 {
		call = call.MaxResults(req.MaxResults)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 401 {
			return nil, errors.NewAuthError("analytics credential rejected", apiErr.Code, err)
		}
		return nil, fmt.Errorf("analytics query failed: %w", err)
	}

	columns := make([]string, 0, len(resp.ColumnHeaders))
	for _, header := range resp.ColumnHeaders {
		columns = append(columns, header.Name)
	}

	return &ReportResponse{
		Columns: columns,
		Rows:    resp.Rows,
	}, nil
}

// rowTable resolves positional row values by column name.
type rowTable struct {
	index map[string]int
}

func newRowTable(resp *ReportResponse) *rowTable {
	index := make(map[string]int, len(resp.Columns))
	for i, name := range resp.Columns {
		index[name] = i
	}
	return &rowTable{index: index}
}

func (t *rowTable) float(row []any, column string) float64 {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return 0
	}
	switch v := row[i].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (t *rowTable) str(row []any, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	if s, ok := row[i].(string); ok {
		return s
	}
	return ""
}
