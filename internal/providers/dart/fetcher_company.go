package dart

import (
	"context"
	"strings"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
)

// Company fetches the company overview for an 8-char registration code.
func (c *Client) Company(ctx context.Context, corpCode string, opts provider.CacheOptions) (*models.CompanyInfo, *provider.Meta, error) {
	resp, err := c.Request(ctx, "company", provider.Params{"corp_code": corpCode}, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[companyBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}
	info := &models.CompanyInfo{
		CorpCode:    body.CorpCode,
		CorpName:    body.CorpName,
		CorpNameEn:  body.CorpNameEn,
		StockCode:   strings.TrimSpace(body.StockCode),
		CEO:         body.CeoName,
		CorpClass:   body.CorpClass,
		Address:     body.Address,
		Homepage:    body.Homepage,
		Phone:       body.Phone,
		Industry:    body.IndutyCode,
		Founded:     body.EstDate,
		FiscalMonth: body.AccMonth,
	}
	return info, &resp.Meta, nil
}
