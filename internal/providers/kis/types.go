package kis

// Raw KIS response shapes. Field names follow the upstream JSON keys;
// numeric fields arrive as strings.

type priceBody struct {
	RtCd   string      `json:"rt_cd"`
	MsgCd  string      `json:"msg_cd"`
	Msg1   string      `json:"msg1"`
	Output priceOutput `json:"output"`
}

type priceOutput struct {
	Price     string `json:"stck_prpr"`      // current price
	Change    string `json:"prdy_vrss"`      // vs previous day
	ChangePct string `json:"prdy_ctrt"`      // rate vs previous day
	Open      string `json:"stck_oprc"`
	High      string `json:"stck_hgpr"`
	Low       string `json:"stck_lwpr"`
	Volume    string `json:"acml_vol"`
	MarketCap string `json:"hts_avls"`       // in 억원
	PER       string `json:"per"`
	PBR       string `json:"pbr"`
	EPS       string `json:"eps"`
	High52W   string `json:"w52_hgpr"`
	Low52W    string `json:"w52_lwpr"`
}

type dailyChartBody struct {
	RtCd    string           `json:"rt_cd"`
	MsgCd   string           `json:"msg_cd"`
	Msg1    string           `json:"msg1"`
	Output2 []dailyChartBar  `json:"output2"`
}

type dailyChartBar struct {
	Date   string `json:"stck_bsop_date"` // YYYYMMDD
	Open   string `json:"stck_oprc"`
	High   string `json:"stck_hgpr"`
	Low    string `json:"stck_lwpr"`
	Close  string `json:"stck_clpr"`
	Volume string `json:"acml_vol"`
}

type indexBody struct {
	RtCd   string      `json:"rt_cd"`
	MsgCd  string      `json:"msg_cd"`
	Msg1   string      `json:"msg1"`
	Output indexOutput `json:"output"`
}

type indexOutput struct {
	Value     string `json:"bstp_nmix_prpr"` // index value
	Change    string `json:"bstp_nmix_prdy_vrss"`
	ChangePct string `json:"bstp_nmix_prdy_ctrt"`
	Volume    string `json:"acml_vol"`
}
