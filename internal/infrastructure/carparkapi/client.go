// Package carparkapi polls the public car park availability API.
package carparkapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/config"
	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/pkg/errors"
)

const availabilityPath = "/transport/carpark-availability"

// update_datetime carries no zone; the API reports Singapore local time
var feedZone = time.FixedZone("SGT", 8*60*60)

const feedTimeLayout = "2006-01-02T15:04:05"

type availabilityResponse struct {
	Items []struct {
		Timestamp   string `json:"timestamp"`
		CarparkData []struct {
			CarparkNumber  string `json:"carpark_number"`
			UpdateDatetime string `json:"update_datetime"`
			CarparkInfo    []struct {
				TotalLots     string `json:"total_lots"`
				LotType       string `json:"lot_type"`
				LotsAvailable string `json:"lots_available"`
			} `json:"carpark_info"`
		} `json:"carpark_data"`
	} `json:"items"`
}

type client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates an availability feed client for cfg.BaseURL
func NewClient(cfg *config.FeedConfig, logger *zap.Logger) repository.AvailabilityFeed {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger.With(zap.String("component", "carparkapi")),
	}
}

// FetchAvailability returns one update per car park and lot type. Entries
// with unusable numbers or timestamps are skipped.
func (c *client) FetchAvailability(ctx context.Context) ([]domain.AvailabilityUpdate, error) {
	start := time.Now()
	updates, err := c.fetch(ctx)
	metrics.FeedFetchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("failure").Inc()
		return nil, errors.ErrFeed.Wrap(err)
	}
	metrics.FeedFetchesTotal.WithLabelValues("success").Inc()
	return updates, nil
}

func (c *client) fetch(ctx context.Context) ([]domain.AvailabilityUpdate, error) {
	url := c.baseURL + availabilityPath

	c.logger.Debug("Calling car park availability API", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Availability API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("availability API error: status %d", resp.StatusCode)
	}

	var payload availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	updates, skipped := convert(payload)
	c.logger.Debug("Availability API call successful",
		zap.Int("updates", len(updates)),
		zap.Int("skipped", skipped))
	return updates, nil
}

func convert(payload availabilityResponse) ([]domain.AvailabilityUpdate, int) {
	if len(payload.Items) == 0 {
		return nil, 0
	}

	var (
		updates []domain.AvailabilityUpdate
		skipped int
	)
	for _, cp := range payload.Items[0].CarparkData {
		observed, err := time.ParseInLocation(feedTimeLayout, cp.UpdateDatetime, feedZone)
		if err != nil || cp.CarparkNumber == "" {
			skipped += len(cp.CarparkInfo)
			continue
		}
		for _, info := range cp.CarparkInfo {
			total, errTotal := strconv.Atoi(strings.TrimSpace(info.TotalLots))
			avail, errAvail := strconv.Atoi(strings.TrimSpace(info.LotsAvailable))
			if errTotal != nil || errAvail != nil {
				skipped++
				continue
			}
			updates = append(updates, domain.AvailabilityUpdate{
				SpotID:         cp.CarparkNumber,
				LotType:        domain.LotType(strings.ToUpper(strings.TrimSpace(info.LotType))),
				AvailableCount: avail,
				Capacity:       &total,
				ObservedAt:     observed.UTC(),
			})
		}
	}
	return updates, skipped
}
