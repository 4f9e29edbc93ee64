package api

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/target/mmk-ui-client/internal/apiclient"
)

// HealthMetrics is the daily health summary shown on the home dashboard.
type HealthMetrics struct {
	Steps      int     `json:"steps"`
	HeartRate  int     `json:"heartRate"`
	SleepHours float64 `json:"sleepHours"`
	WaterML    int     `json:"water"`
	Calories   int     `json:"calories"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

// HealthMetricsUpdate carries a partial update; nil fields are left unchanged.
type HealthMetricsUpdate struct {
	Steps      *int     `json:"steps,omitempty"`
	HeartRate  *int     `json:"heartRate,omitempty"`
	SleepHours *float64 `json:"sleepHours,omitempty"`
	WaterML    *int     `json:"water,omitempty"`
	Calories   *int     `json:"calories,omitempty"`
}

// ScheduleItem is one entry of the daily schedule.
type ScheduleItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Category  string `json:"category,omitempty"`
	Completed bool   `json:"completed"`
}

// ErrScheduleID is returned for a blank schedule item ID.
var ErrScheduleID = errors.New("schedule id is required")

// HealthAPI calls the backend health dashboard endpoints.
type HealthAPI struct {
	client *apiclient.Client
}

// NewHealthAPI wraps client.
func NewHealthAPI(client *apiclient.Client) *HealthAPI {
	return &HealthAPI{client: client}
}

func (h *HealthAPI) TodayMetrics(ctx context.Context) (HealthMetrics, error) {
	return apiclient.Get[HealthMetrics](ctx, h.client, "/api/health/metrics/today", apiclient.RequestConfig{})
}

func (h *HealthAPI) UpdateMetrics(ctx context.Context, in HealthMetricsUpdate) (HealthMetrics, error) {
	return apiclient.Post[HealthMetrics](ctx, h.client, "/api/health/metrics/update", in, apiclient.RequestConfig{})
}

func (h *HealthAPI) TodaySchedule(ctx context.Context) ([]ScheduleItem, error) {
	items, err := apiclient.Get[[]ScheduleItem](ctx, h.client, "/api/health/schedule/today", apiclient.RequestConfig{})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []ScheduleItem{}
	}
	return items, nil
}

// CompleteSchedule marks one schedule item done.
func (h *HealthAPI) CompleteSchedule(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrScheduleID
	}
	_, err := h.client.Post(ctx, "/api/health/schedule/"+url.PathEscape(id)+"/complete", nil, apiclient.RequestConfig{})
	return err
}

// ScheduleHistory lists past schedule items one page at a time.
func (h *HealthAPI) ScheduleHistory(ctx context.Context, params PageParams) (Page[ScheduleItem], error) {
	return apiclient.Get[Page[ScheduleItem]](ctx, h.client, "/api/health/schedule/history", apiclient.RequestConfig{Query: params.Query()})
}
