package provider

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/jing2uo/pricepanel/model"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com"

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// Yahoo reads daily bars from the Yahoo Finance chart endpoint. Requests are
// paced by a limiter and never retried.
type Yahoo struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewYahoo(baseURL string, rps float64, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Yahoo{
		baseURL: baseURL,
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) Fetch(ctx context.Context, req Request) (model.Series, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return model.Series{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, y.chartURL(req), nil)
	if err != nil {
		return model.Series{}, fmt.Errorf("failed to build request for %s: %w", req.Ticker, err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (pricepanel)")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(httpReq)
	if err != nil {
		return model.Series{}, fmt.Errorf("failed to fetch %s: %w", req.Ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.Series{}, &model.NoDataError{Ticker: req.Ticker}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Series{}, fmt.Errorf("fetch %s: unexpected status %d: %s", req.Ticker, resp.StatusCode, body)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return model.Series{}, fmt.Errorf("failed to decode chart for %s: %w", req.Ticker, err)
	}
	if e := chart.Chart.Error; e != nil {
		return model.Series{}, fmt.Errorf("fetch %s: %s: %s", req.Ticker, e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return model.Series{}, &model.NoDataError{Ticker: req.Ticker}
	}

	return finish(req, chartBars(chart.Chart.Result[0]))
}

func (y *Yahoo) chartURL(req Request) string {
	q := url.Values{}
	interval := req.Interval
	if interval == "" {
		interval = "1d"
	}
	q.Set("interval", interval)
	q.Set("events", "div,splits")
	q.Set("includeAdjustedClose", "true")

	if req.Start.IsZero() {
		q.Set("range", "max")
	} else {
		end := time.Now()
		if !req.End.IsZero() {
			end = model.Date(req.End).AddDate(0, 0, 1)
		}
		q.Set("period1", strconv.FormatInt(model.Date(req.Start).Unix(), 10))
		q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	}

	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(req.Ticker), q.Encode())
}

// chartBars converts the columnar chart payload. Timestamps are shifted by
// the exchange GMT offset so each bar lands on its local trading day.
func chartBars(r chartResult) []model.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bars = append(bars, model.Bar{
			Date:     model.Date(time.Unix(ts+r.Meta.GMTOffset, 0).UTC()),
			Open:     floatAt(q.Open, i),
			High:     floatAt(q.High, i),
			Low:      floatAt(q.Low, i),
			Close:    floatAt(q.Close, i),
			AdjClose: floatAt(adj, i),
			Volume:   intAt(q.Volume, i),
		})
	}
	return bars
}

func floatAt(v []*float64, i int) sql.NullFloat64 {
	if i >= len(v) || v[i] == nil {
		return sql.NullFloat64{}
	}
	return model.Float(*v[i])
}

func intAt(v []*int64, i int) sql.NullInt64 {
	if i >= len(v) || v[i] == nil {
		return sql.NullInt64{}
	}
	return model.Int(*v[i])
}
