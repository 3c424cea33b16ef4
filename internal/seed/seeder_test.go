package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kofin-ai/kofin/internal/providers/dart"
	"github.com/kofin-ai/kofin/internal/resolver"
	"github.com/kofin-ai/kofin/internal/tools"
	"github.com/kofin-ai/kofin/pkg/models"
)

func seedMappings() []models.CorpMapping {
	return []models.CorpMapping{
		{CorpCode: "00000001", CorpName: "첫째전자", StockCode: "000001"},
		{CorpCode: "00000002", CorpName: "둘째화학", StockCode: "000002"},
		{CorpCode: "00000003", CorpName: "셋째중공업", StockCode: "000003"},
		{CorpCode: "00000004", CorpName: "넷째바이오", StockCode: "000004"},
		{CorpCode: "00000005", CorpName: "다섯째금융", StockCode: "000005"},
		{CorpCode: "99999999", CorpName: "비상장홀딩스", StockCode: ""},
	}
}

// newSeedFixture builds a seeder over a counting fake DART backend. Each
// call gets a fresh client (fresh provider cache) so upstream request
// counts measure checkpointing, not HTTP caching.
func newSeedFixture(t *testing.T, store *Store, requests *atomic.Int64, onCompany func(corp string)) *Seeder {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if strings.Contains(r.URL.Path, "company") {
			corp := r.URL.Query().Get("corp_code")
			if onCompany != nil {
				onCompany(corp)
			}
			w.Write([]byte(`{"status":"000","message":"정상","corp_code":"` + corp + `","corp_name":"테스트"}`))
			return
		}
		w.Write([]byte(`{"status":"000","message":"정상","list":[
			{"sj_div":"IS","account_nm":"매출액","thstrm_nm":"제1기","thstrm_amount":"1,000","frmtrm_amount":"900"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := dart.New("key", t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	c.SetBaseURL(srv.URL)

	res := resolver.New(t.TempDir(), nil)
	res.SetMappings(seedMappings())

	return NewSeeder(store, tools.New(tools.Clients{Dart: c}, res, nil, nil), nil)
}

func TestSeederRunAndResume(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "demo.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var requests atomic.Int64
	s := newSeedFixture(t, store, &requests, nil)

	cfg := Config{Companies: 5, Years: 2}
	res, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Companies != 5 || res.Interrupted {
		t.Errorf("result = %+v", res)
	}
	// 5 companies x (1 overview + 2 fiscal years).
	if got := requests.Load(); got != 15 {
		t.Errorf("upstream requests = %d, want 15", got)
	}

	st, _ := store.Stats()
	if st.Completed != 15 || st.Responses != 15 {
		t.Errorf("stats = %+v", st)
	}
	// Only listed companies are crawled.
	if st.Mappings != 5 {
		t.Errorf("mappings = %d, want 5 listed", st.Mappings)
	}

	// A rerun over the same store performs zero provider requests.
	var requests2 atomic.Int64
	s2 := newSeedFixture(t, store, &requests2, nil)
	res2, err := s2.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := requests2.Load(); got != 0 {
		t.Errorf("rerun upstream requests = %d, want 0", got)
	}
	if res2.Skipped != 15 {
		t.Errorf("rerun skipped = %d, want 15", res2.Skipped)
	}
}

func TestSeederInterruptFinishesCurrentCompany(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "demo.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var requests atomic.Int64
	var s *Seeder
	companiesSeen := map[string]bool{}
	s = newSeedFixture(t, store, &requests, func(corp string) {
		companiesSeen[corp] = true
		if len(companiesSeen) == 3 {
			s.Interrupt()
		}
	})

	cfg := Config{Companies: 5, Years: 1}
	res, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Interrupted {
		t.Fatal("expected an interrupted result")
	}
	if res.Companies != 3 {
		t.Errorf("companies completed = %d, want 3 (current company finishes)", res.Companies)
	}

	// Resuming covers exactly the remaining two companies.
	var requests2 atomic.Int64
	s2 := newSeedFixture(t, store, &requests2, nil)
	res2, err := s2.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res2.Companies != 5 {
		t.Errorf("resumed companies = %d, want 5", res2.Companies)
	}
	// 2 remaining companies x (1 overview + 1 year).
	if got := requests2.Load(); got != 4 {
		t.Errorf("resumed upstream requests = %d, want 4", got)
	}

	st, _ := store.Stats()
	if st.Completed != 10 {
		t.Errorf("completed = %d, want 10", st.Completed)
	}
}
