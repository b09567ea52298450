// Package exchange implements ports.Exchange against a generic REST futures
// venue. Grounded on the teacher's internal/modules/execution.IBClient (same
// baseURL + "/api/v1/..." path shape, the same error-wrapping style) but
// built on resty instead of raw net/http, with every call routed through a
// circuit breaker (breaker.go, adapted from the teacher's
// libs/resilience.CircuitBreaker trip rule) so a flaky venue trips open
// instead of retrying into a cascading failure.
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/ports"
)

// Config names the venue connection. Credentials are injected by the caller
// (cmd/trader's bootstrap resolves the configured env var names to values
// before this point), never read directly from the environment here. Only
// APIKey is sent (as a request header); APISecret is accepted but unused.
type Config struct {
	BaseURL     string
	APIKey      string
	APISecret   string
	Timeout     time.Duration
	BreakerName string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Client is a resty-backed, circuit-breaker-wrapped implementation of
// ports.Exchange.
type Client struct {
	http *resty.Client
	cb   *breaker
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerName == "" {
		cfg.BreakerName = "exchange"
	}

	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("APIKey", cfg.APIKey)

	cbCfg := defaultBreakerConfig(cfg.BreakerName)
	if cfg.MaxFailures > 0 {
		cbCfg.MaxFailures = cfg.MaxFailures
	}
	if cfg.OpenTimeout > 0 {
		cbCfg.Timeout = cfg.OpenTimeout
	}

	return &Client{
		http: h,
		cb:   newBreaker(cbCfg),
	}
}

// do runs fn under circuit-breaker protection and wraps any failure with the
// call's label.
func (c *Client) do(ctx context.Context, label string, fn func() (any, error)) (any, error) {
	result, err := c.cb.run(ctx, fn)
	if err != nil {
		return nil, fmt.Errorf("exchange: %s: %w", label, err)
	}
	return result, nil
}

func (c *Client) GetOHLCV(ctx context.Context, symbol, timeframe string, since *time.Time, limit int) ([]domain.Candle, error) {
	var body struct {
		Candles []struct {
			Time   int64   `json:"time"`
			Open   float64 `json:"open"`
			High   float64 `json:"high"`
			Low    float64 `json:"low"`
			Close  float64 `json:"close"`
			Volume float64 `json:"volume"`
		} `json:"candles"`
	}

	_, err := c.do(ctx, "get_ohlcv", func() (any, error) {
		req := c.http.R().SetContext(ctx).SetResult(&body).
			SetQueryParam("symbol", symbol).
			SetQueryParam("resolution", timeframe)
		if since != nil {
			req.SetQueryParam("from", fmt.Sprintf("%d", since.Unix()))
		}
		if limit > 0 {
			req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
		}
		resp, err := req.Get("/api/v1/candles")
		return nil, checkResponse(resp, err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Candle, 0, len(body.Candles))
	tf := domain.Timeframe(timeframe)
	for _, c := range body.Candles {
		out = append(out, domain.Candle{
			Timestamp: time.Unix(c.Time, 0).UTC(),
			Symbol:    symbol,
			Timeframe: tf,
			Open:      decimal.NewFromFloat(c.Open),
			High:      decimal.NewFromFloat(c.High),
			Low:       decimal.NewFromFloat(c.Low),
			Close:     decimal.NewFromFloat(c.Close),
			Volume:    decimal.NewFromFloat(c.Volume),
		})
	}
	return out, nil
}

func (c *Client) GetFuturesTickersBulk(ctx context.Context) (map[string]decimal.Decimal, error) {
	var body struct {
		Tickers []struct {
			Symbol string  `json:"symbol"`
			Mark   float64 `json:"markPrice"`
		} `json:"tickers"`
	}
	_, err := c.do(ctx, "get_tickers_bulk", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetResult(&body).Get("/api/v1/tickers")
		return nil, checkResponse(resp, err)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, len(body.Tickers))
	for _, t := range body.Tickers {
		out[t.Symbol] = decimal.NewFromFloat(t.Mark)
	}
	return out, nil
}

func (c *Client) GetFuturesInstruments(ctx context.Context) ([]ports.RawSpec, error) {
	var body struct {
		Instruments []ports.RawSpec `json:"instruments"`
	}
	_, err := c.do(ctx, "get_instruments", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetResult(&body).Get("/api/v1/instruments")
		return nil, checkResponse(resp, err)
	})
	return body.Instruments, err
}

func (c *Client) GetAllFuturesPositions(ctx context.Context) ([]ports.RawPosition, error) {
	var body struct {
		OpenPositions []ports.RawPosition `json:"openPositions"`
	}
	_, err := c.do(ctx, "get_all_positions", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetResult(&body).Get("/api/v1/positions")
		return nil, checkResponse(resp, err)
	})
	return body.OpenPositions, err
}

func (c *Client) GetFuturesOpenOrders(ctx context.Context) ([]ports.RawOrder, error) {
	var body struct {
		OpenOrders []ports.RawOrder `json:"openOrders"`
	}
	_, err := c.do(ctx, "get_open_orders", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetResult(&body).Get("/api/v1/orders")
		return nil, checkResponse(resp, err)
	})
	return body.OpenOrders, err
}

func (c *Client) GetFuturesBalance(ctx context.Context) (map[string]decimal.Decimal, error) {
	var body struct {
		Accounts map[string]struct {
			Equity          float64 `json:"portfolioValue"`
			AvailableMargin float64 `json:"availableMargin"`
		} `json:"accounts"`
	}
	_, err := c.do(ctx, "get_balance", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetResult(&body).Get("/api/v1/accounts")
		return nil, checkResponse(resp, err)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal, 2)
	for _, acct := range body.Accounts {
		out["equity"] = decimal.NewFromFloat(acct.Equity)
		out["available_margin"] = decimal.NewFromFloat(acct.AvailableMargin)
	}
	return out, nil
}

func (c *Client) PlaceFuturesOrder(ctx context.Context, params ports.PlaceOrderParams) (ports.RawOrder, error) {
	payload := map[string]any{
		"symbol":     params.Symbol,
		"side":       string(params.Side),
		"orderType":  string(params.Type),
		"size":       params.SizeContracts.String(),
		"reduceOnly": params.ReduceOnly,
		"cliOrdId":   params.ClientOrderID,
	}
	if params.Price != nil {
		payload["limitPrice"] = params.Price.String()
	}
	if params.StopPrice != nil {
		payload["stopPrice"] = params.StopPrice.String()
	}
	if params.Leverage != nil {
		payload["leverage"] = params.Leverage.String()
	}

	var body struct {
		SendStatus ports.RawOrder `json:"sendStatus"`
	}
	_, err := c.do(ctx, "place_order", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetBody(payload).SetResult(&body).Post("/api/v1/orders")
		return nil, checkResponse(resp, err)
	})
	if err != nil {
		return nil, err
	}
	return body.SendStatus, nil
}

func (c *Client) CancelFuturesOrder(ctx context.Context, id, symbol string) error {
	_, err := c.do(ctx, "cancel_order", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).
			SetBody(map[string]any{"order_id": id, "symbol": symbol}).
			Post("/api/v1/orders/cancel")
		return nil, checkResponse(resp, err)
	})
	return err
}

func (c *Client) EditFuturesOrder(ctx context.Context, id, symbol string, stopPrice, price *decimal.Decimal) error {
	payload := map[string]any{"order_id": id, "symbol": symbol}
	if stopPrice != nil {
		payload["stopPrice"] = stopPrice.String()
	}
	if price != nil {
		payload["limitPrice"] = price.String()
	}
	_, err := c.do(ctx, "edit_order", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post("/api/v1/orders/edit")
		return nil, checkResponse(resp, err)
	})
	return err
}

func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	_, err := c.do(ctx, "close_position", func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).
			SetBody(map[string]any{"symbol": symbol}).
			Post("/api/v1/positions/close")
		return nil, checkResponse(resp, err)
	})
	return err
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

var _ ports.Exchange = (*Client)(nil)
