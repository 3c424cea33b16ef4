package models

import "github.com/kofin-ai/kofin/pkg/utils"

// Financial-statement divisions. The consolidated-first policy prefers
// CFS and falls back to OFS when the filer reports none.
const (
	DivConsolidated = "CFS"
	DivSeparate     = "OFS"
)

// Account is one reported line item with normalized current- and
// prior-period amounts and an optional canonical concept tag assigned by
// the external concept mapper.
type Account struct {
	Name        string       `json:"name"`    // account_nm as reported
	Statement   string       `json:"statement"` // BS, IS, CIS, CF, SCE
	Concept     string       `json:"concept,omitempty"`
	Current     utils.Amount `json:"current"`
	Prior       utils.Amount `json:"prior"`
	CurrentName string       `json:"current_name,omitempty"` // e.g. 제55기
	PriorName   string       `json:"prior_name,omitempty"`
}

// FinancialStatement is a filed report normalized into canonical accounts.
type FinancialStatement struct {
	CorpCode   string       `json:"corp_code"`
	Year       string       `json:"year"`
	ReportCode string       `json:"report_code"`
	FsDiv      string       `json:"fs_div"` // division actually used
	Period     utils.Period `json:"period"`
	Accounts   []Account    `json:"accounts"`
}

// CompanyInfo is the filings authority's company overview.
type CompanyInfo struct {
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	CorpNameEn string `json:"corp_name_en,omitempty"`
	StockCode  string `json:"stock_code,omitempty"`
	CEO        string `json:"ceo,omitempty"`
	CorpClass  string `json:"corp_class,omitempty"` // Y=KOSPI, K=KOSDAQ, N=KONEX, E=other
	Address    string `json:"address,omitempty"`
	Homepage   string `json:"homepage,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Industry   string `json:"industry,omitempty"`
	Founded    string `json:"founded,omitempty"`
	FiscalMonth string `json:"fiscal_month,omitempty"`
}

// Disclosure is one filing in a disclosure listing.
type Disclosure struct {
	CorpCode   string `json:"corp_code"`
	CorpName   string `json:"corp_name"`
	ReportName string `json:"report_name"`
	ReceiptNo  string `json:"receipt_no"`
	FilerName  string `json:"filer_name,omitempty"`
	ReceiptDate string `json:"receipt_date"` // YYYYMMDD
	Remark     string `json:"remark,omitempty"`
	URL        string `json:"url,omitempty"`
}
