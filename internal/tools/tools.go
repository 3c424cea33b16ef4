// Package tools exposes the typed research operations the agent and CLI
// consume: financial statements with the consolidated-first policy,
// prices and histories, macro indicators, and catalog search. Each tool
// is a thin adapter over one or more provider clients.
package tools

import (
	"go.uber.org/zap"

	"github.com/kofin-ai/kofin/internal/providers/dart"
	"github.com/kofin-ai/kofin/internal/providers/ecos"
	"github.com/kofin-ai/kofin/internal/providers/kis"
	"github.com/kofin-ai/kofin/internal/providers/kosis"
	"github.com/kofin-ai/kofin/internal/resolver"
)

// ConceptMapper assigns canonical concept tags to reported account names.
// The mapping itself lives outside the core; the default tags nothing.
type ConceptMapper interface {
	Concept(accountName, statement string) string
}

type noopMapper struct{}

func (noopMapper) Concept(string, string) string { return "" }

// Clients bundles whichever provider clients the process could construct.
// A nil client excludes its tools from the registry.
type Clients struct {
	Dart  *dart.Client
	Kis   *kis.Client
	Ecos  *ecos.Client
	Kosis *kosis.Client
}

// Close releases every constructed client.
func (c Clients) Close() {
	if c.Dart != nil {
		c.Dart.Close()
	}
	if c.Kis != nil {
		c.Kis.Close()
	}
	if c.Ecos != nil {
		c.Ecos.Close()
	}
	if c.Kosis != nil {
		c.Kosis.Close()
	}
}

// Tools is the composition root for the research operations.
type Tools struct {
	clients  Clients
	resolver *resolver.Resolver
	concepts ConceptMapper
	log      *zap.Logger
}

// New wires the tool set. concepts may be nil.
func New(clients Clients, res *resolver.Resolver, concepts ConceptMapper, logger *zap.Logger) *Tools {
	if concepts == nil {
		concepts = noopMapper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{clients: clients, resolver: res, concepts: concepts, log: logger}
}

// Resolver returns the corp-code resolver.
func (t *Tools) Resolver() *resolver.Resolver { return t.resolver }

// Clients returns the underlying provider clients.
func (t *Tools) Clients() Clients { return t.clients }

// ToolInfo describes one registered tool for external UI code.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
}

// Available lists the tools whose provider credentials are present.
// Missing credentials exclude tools rather than failing.
func (t *Tools) Available() []ToolInfo {
	var out []ToolInfo
	if t.clients.Dart != nil {
		out = append(out,
			ToolInfo{Name: "financial_statements", Description: "기업 재무제표 조회", Provider: dart.ProviderName},
			ToolInfo{Name: "company_info", Description: "기업 개황 조회", Provider: dart.ProviderName},
			ToolInfo{Name: "disclosures", Description: "공시 목록 조회", Provider: dart.ProviderName},
			ToolInfo{Name: "resolve_company", Description: "기업명/종목코드 검색", Provider: dart.ProviderName},
		)
	}
	if t.clients.Kis != nil {
		out = append(out,
			ToolInfo{Name: "price", Description: "현재가 조회", Provider: kis.ProviderName},
			ToolInfo{Name: "price_history", Description: "일별 시세 조회", Provider: kis.ProviderName},
			ToolInfo{Name: "market_index", Description: "지수 조회", Provider: kis.ProviderName},
		)
	}
	if t.clients.Ecos != nil {
		out = append(out,
			ToolInfo{Name: "indicator", Description: "경제지표 시계열 조회", Provider: ecos.ProviderName},
			ToolInfo{Name: "key_statistics", Description: "100대 통계지표 조회", Provider: ecos.ProviderName},
			ToolInfo{Name: "search_catalog", Description: "통계표 검색", Provider: ecos.ProviderName},
		)
	}
	if t.clients.Kosis != nil {
		out = append(out,
			ToolInfo{Name: "stats_table", Description: "국가통계 조회", Provider: kosis.ProviderName},
		)
	}
	return out
}
