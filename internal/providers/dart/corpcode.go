package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/kofin-ai/kofin/internal/infra"
	"github.com/kofin-ai/kofin/internal/provider"
	"github.com/kofin-ai/kofin/pkg/models"
)

// DownloadCorpCodes fetches the zipped corp-code master list and parses it
// into mappings. The endpoint returns a zip archive rather than JSON, so
// it goes through the rate limiter but not the JSON cache pipeline; the
// resolver persists the parsed result as corp-codes.json.
func (c *Client) DownloadCorpCodes(ctx context.Context) ([]models.CorpMapping, error) {
	if _, err := c.Acquire(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/corpCode.xml?crtfc_key=%s", c.base, c.apiKey)
	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return nil, provider.MapHTTPErr(ProviderName, err)
	}

	// A JSON body here means the API refused the request (bad key, quota);
	// route it through the shared status mapping.
	if len(body) > 0 && body[0] == '{' {
		if _, serr := c.checkStatus(body); serr != nil {
			return nil, serr
		}
		return nil, provider.NewError(provider.ParseError, ProviderName, "expected zip archive")
	}

	return parseCorpCodeZip(body)
}

func parseCorpCodeZip(data []byte) ([]models.CorpMapping, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "corp-code archive unreadable").WithCause(err)
	}

	var xmlFile *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".xml") {
			xmlFile = f
			break
		}
	}
	if xmlFile == nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "corp-code archive has no xml entry")
	}

	rc, err := xmlFile.Open()
	if err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "corp-code archive entry unreadable").WithCause(err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "corp-code xml read failed").WithCause(err)
	}

	var doc corpCodeXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, provider.NewError(provider.ParseError, ProviderName, "corp-code xml malformed").WithCause(err)
	}

	out := make([]models.CorpMapping, 0, len(doc.List))
	for _, e := range doc.List {
		out = append(out, models.CorpMapping{
			CorpCode:   strings.TrimSpace(e.CorpCode),
			CorpName:   strings.TrimSpace(e.CorpName),
			StockCode:  strings.TrimSpace(e.StockCode),
			ModifyDate: strings.TrimSpace(e.ModifyDate),
		})
	}
	return out, nil
}
