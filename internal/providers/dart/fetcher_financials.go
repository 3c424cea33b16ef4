package dart

import (
	"context"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// FinancialStatements fetches the full single-company statement for one
// fiscal year, report code, and division (CFS or OFS). The consolidated
// fallback policy lives in the tool layer, not here: a division with no
// filing surfaces as NotFound.
func (c *Client) FinancialStatements(ctx context.Context, corpCode, year, reportCode, fsDiv string, opts provider.CacheOptions) (*models.FinancialStatement, *provider.Meta, error) {
	params := provider.Params{
		"corp_code":  corpCode,
		"bsns_year":  year,
		"reprt_code": reportCode,
		"fs_div":     fsDiv,
	}
	resp, err := c.Request(ctx, "fnlttSinglAcntAll", params, opts)
	if err != nil {
		return nil, nil, err
	}
	body, err := provider.Decode[fnlttBody](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	period, perr := utils.PeriodFromReportCode(reportCode, atoiYear(year))
	if perr != nil {
		return nil, nil, provider.NewError(provider.ParseError, ProviderName, perr.Error()).WithCause(perr)
	}

	stmt := &models.FinancialStatement{
		CorpCode:   corpCode,
		Year:       year,
		ReportCode: reportCode,
		FsDiv:      fsDiv,
		Period:     period,
		Accounts:   make([]models.Account, 0, len(body.List)),
	}
	asOf := period.End.Format("2006-01-02")
	for _, e := range body.List {
		cur := utils.NewAmount(utils.ParseAmount(e.ThstrmAmount))
		cur.Source = ProviderName
		cur.AsOf = asOf
		prior := utils.NewAmount(utils.ParseAmount(e.FrmtrmAmount))
		prior.Source = ProviderName

		stmt.Accounts = append(stmt.Accounts, models.Account{
			Name:        e.AccountName,
			Statement:   e.SjDiv,
			Current:     cur,
			Prior:       prior,
			CurrentName: e.ThstrmName,
			PriorName:   e.FrmtrmName,
		})
	}
	return stmt, &resp.Meta, nil
}

func atoiYear(s string) int {
	y := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		y = y*10 + int(r-'0')
	}
	return y
}
