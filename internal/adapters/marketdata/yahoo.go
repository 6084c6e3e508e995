package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fincopilot/pkg/errors"
	"fincopilot/pkg/logger"
)

// YahooProvider fetches quotes, fundamentals and history from the public
// Yahoo Finance endpoints.
type YahooProvider struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewYahooProvider creates a Yahoo Finance backed provider.
func NewYahooProvider(baseURL string, timeout time.Duration) *YahooProvider {
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &YahooProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     logger.Get().With("component", "yahoo_provider"),
	}
}

var _ Provider = (*YahooProvider)(nil)

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetPrice returns the latest quote for a symbol.
func (p *YahooProvider) GetPrice(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(symbol)

	var resp chartResponse
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", p.baseURL, symbol)
	if err := p.getJSON(ctx, url, &resp); err != nil {
		return Quote{}, errors.Wrapf(err, "fetch price for %s", symbol)
	}

	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return Quote{}, errors.Wrapf(errors.ErrDataUnavailable, "no chart data for %s", symbol)
	}

	result := resp.Chart.Result[0]
	q := Quote{
		Symbol:        symbol,
		Price:         result.Meta.RegularMarketPrice,
		PreviousClose: result.Meta.PreviousClose,
		Timestamp:     time.Now(),
	}

	if q.PreviousClose != 0 {
		q.Change = q.Price - q.PreviousClose
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}

	if len(result.Indicators.Quote) > 0 {
		bars := result.Indicators.Quote[0]
		if n := len(bars.Close); n > 0 {
			last := n - 1
			if last < len(bars.Open) {
				q.Open = bars.Open[last]
			}
			if last < len(bars.High) {
				q.High = bars.High[last]
			}
			if last < len(bars.Low) {
				q.Low = bars.Low[last]
			}
			if last < len(bars.Volume) {
				q.Volume = bars.Volume[last]
			}
		}
	}

	return q, nil
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryProfile *struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"summaryProfile"`
			DefaultKeyStatistics *struct {
				TrailingEps yahooNumber `json:"trailingEps"`
				PriceToBook yahooNumber `json:"priceToBook"`
				Beta        yahooNumber `json:"beta"`
			} `json:"defaultKeyStatistics"`
			FinancialData *struct {
				TotalRevenue   yahooNumber `json:"totalRevenue"`
				ProfitMargins  yahooNumber `json:"profitMargins"`
				DebtToEquity   yahooNumber `json:"debtToEquity"`
				ReturnOnEquity yahooNumber `json:"returnOnEquity"`
			} `json:"financialData"`
			SummaryDetail *struct {
				MarketCap        yahooNumber `json:"marketCap"`
				TrailingPE       yahooNumber `json:"trailingPE"`
				DividendYield    yahooNumber `json:"dividendYield"`
				FiftyTwoWeekHigh yahooNumber `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  yahooNumber `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// yahooNumber unwraps Yahoo's {"raw": 1.23, "fmt": "1.23"} envelopes.
type yahooNumber struct {
	Raw float64 `json:"raw"`
}

// GetFundamentals returns company metrics for a symbol.
func (p *YahooProvider) GetFundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	symbol = strings.ToUpper(symbol)

	url := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=summaryProfile,defaultKeyStatistics,financialData,summaryDetail",
		p.baseURL, symbol,
	)

	var resp quoteSummaryResponse
	if err := p.getJSON(ctx, url, &resp); err != nil {
		return Fundamentals{}, errors.Wrapf(err, "fetch fundamentals for %s", symbol)
	}

	if len(resp.QuoteSummary.Result) == 0 {
		return Fundamentals{}, errors.Wrapf(errors.ErrDataUnavailable, "no fundamentals for %s", symbol)
	}

	r := resp.QuoteSummary.Result[0]
	f := Fundamentals{Symbol: symbol, Name: symbol}

	if r.SummaryProfile != nil {
		f.Sector = r.SummaryProfile.Sector
		f.Industry = r.SummaryProfile.Industry
	}
	if r.SummaryDetail != nil {
		f.MarketCap = r.SummaryDetail.MarketCap.Raw
		f.PERatio = r.SummaryDetail.TrailingPE.Raw
		f.DividendYield = r.SummaryDetail.DividendYield.Raw * 100
		f.FiftyTwoWeekHi = r.SummaryDetail.FiftyTwoWeekHigh.Raw
		f.FiftyTwoWeekLo = r.SummaryDetail.FiftyTwoWeekLow.Raw
	}
	if r.DefaultKeyStatistics != nil {
		f.EPS = r.DefaultKeyStatistics.TrailingEps.Raw
		f.PBRatio = r.DefaultKeyStatistics.PriceToBook.Raw
		f.Beta = r.DefaultKeyStatistics.Beta.Raw
	}
	if r.FinancialData != nil {
		f.Revenue = r.FinancialData.TotalRevenue.Raw
		f.ProfitMargin = r.FinancialData.ProfitMargins.Raw * 100
		f.DebtToEquity = r.FinancialData.DebtToEquity.Raw
		f.ROE = r.FinancialData.ReturnOnEquity.Raw * 100
	}

	return f, nil
}

// GetHistoricalBars returns daily OHLCV bars for the given period
// ("1mo", "3mo", "6mo", "1y").
func (p *YahooProvider) GetHistoricalBars(ctx context.Context, symbol string, period string) ([]Bar, error) {
	symbol = strings.ToUpper(symbol)
	if period == "" {
		period = "3mo"
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", p.baseURL, symbol, period)

	var resp chartResponse
	if err := p.getJSON(ctx, url, &resp); err != nil {
		return nil, errors.Wrapf(err, "fetch history for %s", symbol)
	}

	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "no history for %s", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.Wrapf(errors.ErrDataUnavailable, "no indicators for %s", symbol)
	}

	quote := result.Indicators.Quote[0]
	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: quote.Close[i],
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// GetPeers returns related symbols. Yahoo's public API has no stable peer
// endpoint, so this reports no data and lets callers use their fallback
// peer tables.
func (p *YahooProvider) GetPeers(ctx context.Context, symbol string) ([]string, error) {
	return nil, nil
}

func (p *YahooProvider) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (fincopilot)")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.ErrRateLimitExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrProviderUnavailable, "status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
