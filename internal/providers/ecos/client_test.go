package ecos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kofin-ai/kofin/internal/provider"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("ecos-key", t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	c.base = srv.URL
	return c
}

func TestBuildURLSegments(t *testing.T) {
	c := &Client{apiKey: "KEY", base: "https://ecos.bok.or.kr/api"}

	u := c.buildURL(EndpointSeries, provider.Params{
		"table": "722Y001", "period": "M", "start": "202401", "end": "202412", "item1": "0101000",
	})
	want := "https://ecos.bok.or.kr/api/StatisticSearch/KEY/json/kr/1/100/722Y001/M/202401/202412/0101000"
	if u != want {
		t.Errorf("url = %s\nwant %s", u, want)
	}

	// Trailing empty item segments are trimmed.
	if strings.HasSuffix(u, "/") {
		t.Error("url must not end with a dangling slash")
	}

	u = c.buildURL(EndpointKeyStat, provider.Params{})
	want = "https://ecos.bok.or.kr/api/KeyStatisticList/KEY/json/kr/1/100"
	if u != want {
		t.Errorf("keystat url = %s", u)
	}

	// Korean search terms are URL-encoded into the path.
	u = c.buildURL(EndpointCatalog, provider.Params{"query": "기준금리"})
	if strings.Contains(u, "기준금리") || !strings.Contains(u, "%EA%B8%B0") {
		t.Errorf("query not encoded: %s", u)
	}
}

func TestCheckResultMapping(t *testing.T) {
	c := &Client{}
	tests := []struct {
		body string
		kind provider.ErrorKind
	}{
		{`{"RESULT":{"CODE":"INFO-100","MESSAGE":"인증키가 유효하지 않습니다"}}`, provider.AuthExpired},
		{`{"RESULT":{"CODE":"INFO-200","MESSAGE":"해당하는 데이터가 없습니다"}}`, provider.NotFound},
		{`{"RESULT":{"CODE":"ERROR-602","MESSAGE":"과다 호출"}}`, provider.RateLimited},
		{`{"RESULT":{"CODE":"ERROR-100","MESSAGE":"필수 값이 누락"}}`, provider.APIError},
	}
	for _, tt := range tests {
		_, err := c.checkResult([]byte(tt.body))
		if provider.KindOf(err) != tt.kind {
			t.Errorf("%s kind = %s, want %s", tt.body, provider.KindOf(err), tt.kind)
		}
	}

	ok := []byte(`{"StatisticSearch":{"list_total_count":0,"row":[]}}`)
	if _, err := c.checkResult(ok); err != nil {
		t.Errorf("success body mapped to %v", err)
	}
}

func TestSeriesFetch(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"StatisticSearch":{"list_total_count":2,"row":[
			{"STAT_CODE":"722Y001","STAT_NAME":"한국은행 기준금리","ITEM_CODE1":"0101000","UNIT_NAME":"연%","TIME":"202401","DATA_VALUE":"3.5"},
			{"STAT_CODE":"722Y001","STAT_NAME":"한국은행 기준금리","ITEM_CODE1":"0101000","UNIT_NAME":"연%","TIME":"202402","DATA_VALUE":"3.5"}
		]}}`))
	}))

	series, meta, err := c.Series(context.Background(), "722Y001", "M", "202401", "202402", []string{"0101000"}, provider.CacheOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotPath, "/StatisticSearch/ecos-key/json/kr/1/100/722Y001/M/202401/202402/0101000") {
		t.Errorf("path = %s", gotPath)
	}
	if series.Name != "한국은행 기준금리" || len(series.Points) != 2 {
		t.Errorf("series = %+v", series)
	}
	if series.Points[0].Period.Type != "monthly" || series.Points[0].Value == nil || *series.Points[0].Value != 3.5 {
		t.Errorf("point = %+v", series.Points[0])
	}
	if meta.Provider != "ecos" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestSearchCatalog(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"StatisticTableList":{"list_total_count":1,"row":[
			{"STAT_CODE":"722Y001","STAT_NAME":"1.3.1. 한국은행 기준금리 및 여수신금리","CYCLE":"M","ORG_NAME":"한국은행","SRCH_YN":"Y"}
		]}}`))
	}))

	entries, _, err := c.SearchCatalog(context.Background(), "기준금리", provider.CacheOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].TableCode != "722Y001" || entries[0].Cycle != "M" {
		t.Errorf("entries = %+v", entries)
	}
}
