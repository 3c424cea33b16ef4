package kosis

import (
	"context"

	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
	"github.com/kofin-ai/kofin/pkg/utils"
)

// tableRow is one observation of a statistics table. Field names follow
// the jsonVD=Y vertical-data layout.
type tableRow struct {
	TblID    string `json:"TBL_ID"`
	TblName  string `json:"TBL_NM"`
	ItemName string `json:"ITM_NM"`
	Category string `json:"C1_NM"`
	Unit     string `json:"UNIT_NM"`
	Time     string `json:"PRD_DE"`
	Value    string `json:"DT"`
}

// Table fetches observations from a statistics table. orgID and tblID
// identify the table; prdSe is the period granularity (Y, Q, M) with
// startPrd/endPrd as matching time tokens; itmID and objL1 select the
// item and first-level classification ("ALL" for everything).
func (c *Client) Table(ctx context.Context, orgID, tblID, prdSe, startPrd, endPrd, itmID, objL1 string, opts provider.CacheOptions) ([]models.StatsCell, *provider.Meta, error) {
	params := provider.Params{
		"method":    "getList",
		"orgId":     orgID,
		"tblId":     tblID,
		"prdSe":     prdSe,
		"startPrdDe": startPrd,
		"endPrdDe":  endPrd,
		"itmId":     itmID,
		"objL1":     objL1,
	}
	resp, err := c.Request(ctx, EndpointData, params, opts)
	if err != nil {
		return nil, nil, err
	}
	rows, err := provider.Decode[[]tableRow](ProviderName, resp)
	if err != nil {
		return nil, nil, err
	}

	out := make([]models.StatsCell, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.StatsCell{
			TableID:  row.TblID,
			ItemName: row.ItemName,
			Category: row.Category,
			Time:     row.Time,
			Value:    utils.ParseAmount(row.Value),
			Unit:     row.Unit,
		})
	}
	return out, &resp.Meta, nil
}
