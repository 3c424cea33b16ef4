package dart

// Raw OpenDART response shapes. Field names follow the upstream JSON keys.

type companyBody struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	CorpNameEn string `json:"corp_name_eng"`
	StockName  string `json:"stock_name"`
	StockCode  string `json:"stock_code"`
	CeoName    string `json:"ceo_nm"`
	CorpClass  string `json:"corp_cls"`
	Address    string `json:"adres"`
	Homepage   string `json:"hm_url"`
	Phone      string `json:"phn_no"`
	IndutyCode string `json:"induty_code"`
	EstDate    string `json:"est_dt"`
	AccMonth   string `json:"acc_mt"`
}

type listBody struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	PageNo     int         `json:"page_no"`
	PageCount  int         `json:"page_count"`
	TotalCount int         `json:"total_count"`
	List       []listEntry `json:"list"`
}

type listEntry struct {
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	StockCode  string `json:"stock_code"`
	CorpClass  string `json:"corp_cls"`
	ReportName string `json:"report_nm"`
	ReceiptNo  string `json:"rcept_no"`
	FilerName  string `json:"flr_nm"`
	ReceiptDate string `json:"rcept_dt"`
	Remark     string `json:"rm"`
}

type fnlttBody struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	List    []fnlttEntry `json:"list"`
}

type fnlttEntry struct {
	ReceiptNo      string `json:"rcept_no"`
	ReportCode     string `json:"reprt_code"`
	BsnsYear       string `json:"bsns_year"`
	CorpCode       string `json:"corp_code"`
	SjDiv          string `json:"sj_div"` // BS, IS, CIS, CF, SCE
	SjName         string `json:"sj_nm"`
	AccountID      string `json:"account_id"`
	AccountName    string `json:"account_nm"`
	AccountDetail  string `json:"account_detail"`
	ThstrmName     string `json:"thstrm_nm"`     // current term, e.g. 제55기
	ThstrmAmount   string `json:"thstrm_amount"`
	FrmtrmName     string `json:"frmtrm_nm"`
	FrmtrmAmount   string `json:"frmtrm_amount"`
	BfefrmtrmName  string `json:"bfefrmtrm_nm"`
	BfefrmtrmAmount string `json:"bfefrmtrm_amount"`
	Currency       string `json:"currency"`
}

// corpCodeXML is the unzipped corpCode.xml master-list document.
type corpCodeXML struct {
	List []corpCodeEntry `xml:"list"`
}

type corpCodeEntry struct {
	CorpCode   string `xml:"corp_code"`
	CorpName   string `xml:"corp_name"`
	StockCode  string `xml:"stock_code"`
	ModifyDate string `xml:"modify_date"`
}
