package dart

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
)

const viewerURL = "https://dart.fss.or.kr/dsaf001/main.do?rcpNo="

// Disclosures fetches the disclosure listing for a company and date range
// (dates in YYYYMMDD).
func (c *Client) Disclosures(ctx context.Context, corpCode, begin, end string, opts provider.CacheOptions) ([]models.Disclosure, *provider.Meta, error) {
	params := provider.Params{
		"corp_code":  corpCode,
		"bgn_de":     begin,
		"end_de":     end,
		"page_count": "100",
	}
	resp, err := c.Request(ctx, "list", params, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[listBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.Disclosure, 0, len(body.List))
	for _, e := range body.List {
		out = append(out, models.Disclosure{
			CorpCode:    e.CorpCode,
			CorpName:    e.CorpName,
			ReportName:  e.ReportName,
			ReceiptNo:   e.ReceiptNo,
			FilerName:   e.FilerName,
			ReceiptDate: e.ReceiptDate,
			Remark:      e.Remark,
			URL:         viewerURL + e.ReceiptNo,
		})
	}
	return out, &resp.Meta, nil
}

// todayRSSURL is DART's public feed of today's filings. No API key needed.
const todayRSSURL = "https://dart.fss.or.kr/api/todayRSS.xml"

// TodayDisclosures reads the public recent-filings RSS feed. The feed is
// outside the keyed API, so it bypasses the cache and quota pipeline.
func (c *Client) TodayDisclosures(ctx context.Context, limit int) ([]models.Disclosure, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(todayRSSURL, ctx)
	if err != nil {
		return nil, provider.NewError(provider.NetworkError, ProviderName,
			fmt.Sprintf("disclosure feed: %v", err)).WithRetryable(true).WithCause(err)
	}

	if limit <= 0 || limit > len(feed.Items) {
		limit = len(feed.Items)
	}
	out := make([]models.Disclosure, 0, limit)
	for _, item := range feed.Items[:limit] {
		d := models.Disclosure{
			ReportName: item.Title,
			URL:        item.Link,
		}
		if item.PublishedParsed != nil {
			d.ReceiptDate = item.PublishedParsed.Format("20060102")
		}
		if item.Author != nil {
			d.CorpName = item.Author.Name
		}
		out = append(out, d)
	}
	return out, nil
}
