package seed

import (
	"path/filepath"
	"testing"

	"github.com/kofin-ai/kofin/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "demo.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreResponseUpsert(t *testing.T) {
	s := newTestStore(t)

	if err := s.PutResponse("k", []byte("one"), "dart"); err != nil {
		t.Fatal(err)
	}
	if err := s.PutResponse("k", []byte("two"), "dart"); err != nil {
		t.Fatal(err)
	}
	data, ok := s.GetResponse("k")
	if !ok || string(data) != "two" {
		t.Errorf("response = %q, %v", data, ok)
	}
}

func TestStoreProgressCheckpoint(t *testing.T) {
	s := newTestStore(t)

	if s.IsDone("00126380", "11011", "2023") {
		t.Error("fresh store should have no checkpoints")
	}
	if err := s.MarkDone("00126380", "11011", "2023"); err != nil {
		t.Fatal(err)
	}
	if !s.IsDone("00126380", "11011", "2023") {
		t.Error("checkpoint not recorded")
	}
	// Re-marking is idempotent.
	if err := s.MarkDone("00126380", "11011", "2023"); err != nil {
		t.Fatal(err)
	}
}

func TestStoreMappingsAndStats(t *testing.T) {
	s := newTestStore(t)

	mappings := []models.CorpMapping{
		{CorpCode: "00126380", CorpName: "삼성전자", StockCode: "005930"},
		{CorpCode: "00164779", CorpName: "에스케이하이닉스", StockCode: "000660"},
	}
	if err := s.PutMappings(mappings); err != nil {
		t.Fatal(err)
	}
	if err := s.PutMappings(mappings); err != nil {
		t.Fatal(err) // upsert-safe
	}

	if err := s.PutResponse("a", []byte("x"), "dart"); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkDone("00126380", "11011", "2023"); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.Mappings != 2 || st.Responses != 1 || st.Completed != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestStoreReset(t *testing.T) {
	s := newTestStore(t)

	s.PutResponse("a", []byte("x"), "dart")
	s.MarkDone("c", "11011", "2023")
	s.SetMeta("started_at", "now")

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	st, _ := s.Stats()
	if st.Responses != 0 || st.Completed != 0 {
		t.Errorf("stats after reset = %+v", st)
	}
	if _, ok := s.GetMeta("started_at"); ok {
		t.Error("meta should be cleared")
	}
}
