package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/utils"
)

// Request asks for one ticker's daily bars. Zero Start or End leaves that
// side open; both bounds are inclusive.
type Request struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Interval string
}

// Provider fetches raw bars. An empty result is a *model.NoDataError.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) (model.Series, error)
}

// Options configures the provider chosen by New.
type Options struct {
	Name    string
	BaseURL string
	Dir     string
	RPS     float64
	Timeout time.Duration
}

func New(opts Options) (Provider, error) {
	switch strings.ToLower(opts.Name) {
	case "", "yahoo":
		return NewYahoo(opts.BaseURL, opts.RPS, opts.Timeout), nil
	case "csv":
		if err := utils.CheckDirectory(opts.Dir); err != nil {
			return nil, err
		}
		return NewCSVDir(opts.Dir), nil
	case "tdx":
		if err := utils.CheckDirectory(opts.Dir); err != nil {
			return nil, err
		}
		return NewTDXDir(opts.Dir), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Name)
	}
}

// CheckInterval accepts daily intervals only.
func CheckInterval(interval string) error {
	switch strings.ToLower(interval) {
	case "", "1d":
		return nil
	default:
		return fmt.Errorf("unsupported interval %q: only 1d is supported", interval)
	}
}

// finish sorts bars by date, keeps the first bar of each date, clips to the
// requested range and reports an empty result as NoDataError.
func finish(req Request, bars []model.Bar) (model.Series, error) {
	for i := range bars {
		bars[i].Date = model.Date(bars[i].Date)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	start, end := model.Date(req.Start), model.Date(req.End)
	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if !req.Start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !req.End.IsZero() && b.Date.After(end) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			continue
		}
		out = append(out, b)
	}

	if len(out) == 0 {
		return model.Series{}, &model.NoDataError{Ticker: req.Ticker}
	}
	return model.Series{Ticker: req.Ticker, Bars: out}, nil
}
