package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kofin-ai/kofin/internal/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("test-key", t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	c.base = srv.URL
	return c
}

func TestCheckStatusMapping(t *testing.T) {
	c := &Client{}
	tests := []struct {
		body      string
		wantKind  provider.ErrorKind
		retryable bool
	}{
		{`{"status":"010","message":"인증키 오류"}`, provider.AuthExpired, false},
		{`{"status":"011","message":"사용할 수 없는 키"}`, provider.NotFound, false},
		{`{"status":"013","message":"조회된 데이타가 없습니다"}`, provider.NotFound, false},
		{`{"status":"020","message":"요청 제한 초과"}`, provider.RateLimited, true},
		{`{"status":"800","message":"시스템 점검"}`, provider.APIError, true},
		{`{"status":"900","message":"정의되지 않은 오류"}`, provider.APIError, false},
		{`not json`, provider.ParseError, false},
	}
	for _, tt := range tests {
		_, err := c.checkStatus([]byte(tt.body))
		if provider.KindOf(err) != tt.wantKind {
			t.Errorf("status body %q kind = %s, want %s", tt.body, provider.KindOf(err), tt.wantKind)
		}
		if provider.IsRetryable(err) != tt.retryable {
			t.Errorf("status body %q retryable = %v, want %v", tt.body, provider.IsRetryable(err), tt.retryable)
		}
	}

	body := []byte(`{"status":"000","message":"정상","corp_name":"삼성전자"}`)
	out, err := c.checkStatus(body)
	if err != nil {
		t.Fatalf("success status: %v", err)
	}
	if !bytes.Equal(out, body) {
		t.Error("success must return the body unchanged")
	}
}

func TestCompanyFetch(t *testing.T) {
	var gotPath, gotKey string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("crtfc_key")
		w.Write([]byte(`{"status":"000","message":"정상","corp_code":"00126380","corp_name":"삼성전자","stock_code":"005930","ceo_nm":"한종희"}`))
	}))

	info, meta, err := c.Company(context.Background(), "00126380", provider.CacheOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/company.json" {
		t.Errorf("path = %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("crtfc_key = %s", gotKey)
	}
	if info.CorpName != "삼성전자" || info.StockCode != "005930" {
		t.Errorf("info = %+v", info)
	}
	if meta.Provider != "dart" {
		t.Errorf("meta provider = %s", meta.Provider)
	}
}

func TestCompanySecondCallServedFromCache(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":"000","message":"정상","corp_code":"00126380","corp_name":"삼성전자"}`))
	}))

	ctx := context.Background()
	if _, _, err := c.Company(ctx, "00126380", provider.CacheOptions{}); err != nil {
		t.Fatal(err)
	}
	_, meta, err := c.Company(ctx, "00126380", provider.CacheOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("upstream calls = %d, want 1", calls)
	}
	if meta.Provenance != "memory" {
		t.Errorf("provenance = %s, want memory", meta.Provenance)
	}
}

func TestFinancialStatementsParse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fs_div") != "CFS" {
			w.Write([]byte(`{"status":"013","message":"no data"}`))
			return
		}
		w.Write([]byte(`{"status":"000","message":"정상","list":[
			{"sj_div":"IS","account_nm":"매출액","thstrm_nm":"제55기","thstrm_amount":"302,231,360,000,000","frmtrm_nm":"제54기","frmtrm_amount":"258,935,494,000,000"},
			{"sj_div":"IS","account_nm":"영업이익","thstrm_nm":"제55기","thstrm_amount":"-","frmtrm_nm":"제54기","frmtrm_amount":"6,566,976,000,000"}
		]}`))
	}))

	stmt, _, err := c.FinancialStatements(context.Background(), "00126380", "2024", "11011", "CFS", provider.CacheOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(stmt.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(stmt.Accounts))
	}

	rev := stmt.Accounts[0]
	if rev.Current.Value == nil || *rev.Current.Value != 302231360000000 {
		t.Errorf("revenue current = %+v", rev.Current)
	}
	if rev.Current.Scale != "jo" {
		t.Errorf("revenue scale = %s, want jo", rev.Current.Scale)
	}

	op := stmt.Accounts[1]
	if op.Current.Value != nil || op.Current.Display != "N/A" {
		t.Errorf("dash amount should be N/A, got %+v", op.Current)
	}

	if stmt.Period.Type != "annual" || stmt.Period.Year != 2024 {
		t.Errorf("period = %+v", stmt.Period)
	}

	// An explicitly requested division with no filing surfaces NotFound.
	_, _, err = c.FinancialStatements(context.Background(), "00126380", "2024", "11011", "OFS", provider.CacheOptions{})
	if !provider.IsNotFound(err) {
		t.Errorf("expected NotFound for missing division, got %v", err)
	}
}

func TestParseCorpCodeZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("CORPCODE.xml")
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<result>
  <list><corp_code>00126380</corp_code><corp_name>삼성전자</corp_name><stock_code>005930</stock_code><modify_date>20240102</modify_date></list>
  <list><corp_code>00164779</corp_code><corp_name>에스케이하이닉스</corp_name><stock_code> </stock_code><modify_date>20240102</modify_date></list>
</result>`))
	zw.Close()

	mappings, err := parseCorpCodeZip(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(mappings) != 2 {
		t.Fatalf("mappings = %d, want 2", len(mappings))
	}
	if mappings[0].StockCode != "005930" || !mappings[0].Listed() {
		t.Errorf("first mapping = %+v", mappings[0])
	}
	if mappings[1].StockCode != "" || mappings[1].Listed() {
		t.Errorf("whitespace stock code should mean unlisted: %+v", mappings[1])
	}

	if _, err := parseCorpCodeZip([]byte("not a zip")); provider.KindOf(err) != provider.ParseError {
		t.Errorf("expected ParseError for junk archive, got %v", err)
	}
}
