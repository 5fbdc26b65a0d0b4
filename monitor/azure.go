package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/share"
)

// lookback is how far back a metric query reaches for the newest point.
const lookback = 5 * time.Minute

type metricsLister interface {
	List(ctx context.Context, resourceURI string, options *armmonitor.MetricsClientListOptions) (armmonitor.MetricsClientListResponse, error)
}

type MetricsClient struct {
	client metricsLister
	now    func() time.Time
}

// NewMetricsClient constructs a MetricsClient using DefaultAzureCredential.
func NewMetricsClient(subscriptionID string) (*MetricsClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return NewMetricsClientWithCredential(subscriptionID, cred)
}

func NewMetricsClientWithCredential(subscriptionID string, cred azcore.TokenCredential) (*MetricsClient, error) {
	cli, err := armmonitor.NewMetricsClient(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics client: %w", err)
	}
	return &MetricsClient{client: cli, now: time.Now}, nil
}

// Latest fetches the newest point of metric for resourceID using the given
// aggregation (Average, Total, Maximum, Minimum or Count).
func (m *MetricsClient) Latest(ctx context.Context, resourceID, metric, aggregation string) (float64, error) {
	now := m.now().UTC()
	ts := fmt.Sprintf("%s/%s", now.Add(-lookback).Format(time.RFC3339), now.Format(time.RFC3339))
	resp, err := m.client.List(ctx, resourceID, &armmonitor.MetricsClientListOptions{
		Timespan:    &ts,
		Metricnames: to.Ptr(metric),
		Aggregation: to.Ptr(aggregation),
	})
	if err != nil {
		return 0, fmt.Errorf("metrics query failed: %w", err)
	}
	v, err := latestPoint(resp.Value, aggregation)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", metric, err)
	}
	return v, nil
}

// latestPoint picks the most recent datapoint carrying the aggregation.
func latestPoint(metrics []*armmonitor.Metric, aggregation string) (float64, error) {
	var (
		found  bool
		newest time.Time
		value  float64
	)
	for _, metric := range metrics {
		if metric == nil {
			continue
		}
		for _, series := range metric.Timeseries {
			if series == nil {
				continue
			}
			for _, point := range series.Data {
				v := aggregated(point, aggregation)
				if v == nil {
					continue
				}
				var at time.Time
				if point.TimeStamp != nil {
					at = *point.TimeStamp
				}
				if !found || !at.Before(newest) {
					found, newest, value = true, at, *v
				}
			}
		}
	}
	if !found {
		return 0, ErrNoDataPoints
	}
	return value, nil
}

func aggregated(p *armmonitor.MetricValue, aggregation string) *float64 {
	if p == nil {
		return nil
	}
	switch strings.ToLower(aggregation) {
	case "total":
		return p.Total
	case "maximum":
		return p.Maximum
	case "minimum":
		return p.Minimum
	case "count":
		return p.Count
	default:
		return p.Average
	}
}

// MetricSource samples one Azure Monitor metric of one resource.
type MetricSource struct {
	name        string
	resourceID  string
	metric      string
	aggregation string
	client      *MetricsClient
}

func NewMetricSource(client *MetricsClient, ref ShareRef, metric, aggregation string) *MetricSource {
	return &MetricSource{
		name:        ref.Name,
		resourceID:  ref.ResourceID,
		metric:      metric,
		aggregation: aggregation,
		client:      client,
	}
}

func (s *MetricSource) Name() string { return s.name }

func (s *MetricSource) Sample(ctx context.Context) (float64, error) {
	return s.client.Latest(ctx, s.resourceID, s.metric, s.aggregation)
}

// StorageAccount talks to the Azure Files endpoint of one storage account.
type StorageAccount struct {
	svc *service.Client
}

func NewStorageAccount(accountName, accountKey string) (*StorageAccount, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("storage account name and key are required")
	}
	cred, err := service.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid storage credential: %w", err)
	}
	svcURL := fmt.Sprintf("https://%s.file.core.windows.net/", accountName)
	svc, err := service.NewClientWithSharedKeyCredential(svcURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create file service client: %w", err)
	}
	return &StorageAccount{svc: svc}, nil
}

// ShareInfo is a file share visible in the storage account.
type ShareInfo struct {
	Name    string
	QuotaGB int32
}

// ListShares returns every share of the account.
func (a *StorageAccount) ListShares(ctx context.Context) ([]ShareInfo, error) {
	var out []ShareInfo
	pager := a.svc.NewListSharesPager(nil)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list shares: %w", err)
		}
		for _, s := range resp.Shares {
			if s == nil || s.Name == nil {
				continue
			}
			info := ShareInfo{Name: *s.Name}
			if s.Properties != nil && s.Properties.Quota != nil {
				info.QuotaGB = *s.Properties.Quota
			}
			out = append(out, info)
		}
	}
	return out, nil
}

// CreateShare provisions a share with the given quota.
func (a *StorageAccount) CreateShare(ctx context.Context, name string, quotaGB int32) error {
	if quotaGB <= 0 {
		return fmt.Errorf("invalid quota %d: must be positive", quotaGB)
	}
	_, err := a.svc.NewShareClient(name).Create(ctx, &share.CreateOptions{Quota: to.Ptr(quotaGB)})
	if err != nil {
		return fmt.Errorf("failed to create share %q: %w", name, err)
	}
	return nil
}

func (a *StorageAccount) DeleteShare(ctx context.Context, name string) error {
	if _, err := a.svc.NewShareClient(name).Delete(ctx, nil); err != nil {
		return fmt.Errorf("failed to delete share %q: %w", name, err)
	}
	return nil
}

// UsageSource samples the used bytes of a share.
func (a *StorageAccount) UsageSource(shareName string) *ShareUsageSource {
	return &ShareUsageSource{
		name:  "usage/" + shareName,
		usage: shareStats{client: a.svc.NewShareClient(shareName)},
	}
}

type usageReader interface {
	UsageBytes(ctx context.Context) (int64, error)
}

type shareStats struct {
	client *share.Client
}

func (s shareStats) UsageBytes(ctx context.Context) (int64, error) {
	resp, err := s.client.GetStatistics(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("share statistics failed: %w", err)
	}
	if resp.ShareUsageBytes == nil {
		return 0, ErrNoDataPoints
	}
	return *resp.ShareUsageBytes, nil
}

// ShareUsageSource reports share usage in bytes.
type ShareUsageSource struct {
	name  string
	usage usageReader
}

func (s *ShareUsageSource) Name() string { return s.name }

func (s *ShareUsageSource) Sample(ctx context.Context) (float64, error) {
	b, err := s.usage.UsageBytes(ctx)
	if err != nil {
		return 0, err
	}
	return float64(b), nil
}
