package toconline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/BailaoHugo/gestao-facturas/internal/common"
)

// Resource is one flattened JSON:API item: attributes as scalars,
// to-one/to-many relationships as comma-joined id lists.
type Resource struct {
	ID         string
	Type       string
	Attributes map[string]string
}

// FetchAll retrieves every page of a JSON:API collection (cost centers,
// expense categories, documents), following links.next.
func (c *Client) FetchAll(ctx context.Context, token *Token, path string) ([]Resource, error) {
	next := c.cfg.APIBase + path
	var out []Resource

	for next != "" {
		page, err := c.fetchPage(ctx, token, next)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			out = append(out, flattenItem(item))
		}
		next = ""
		if page.Links.Next != "" {
			u, err := url.Parse(c.cfg.APIBase)
			if err != nil {
				return nil, err
			}
			ref, err := url.Parse(page.Links.Next)
			if err != nil {
				return nil, common.WrapError(err, "parse next link")
			}
			next = u.ResolveReference(ref).String()
		}
	}
	c.logger.Debug("resources fetched", "path", path, "count", len(out))
	return out, nil
}

type jsonAPIPage struct {
	Data  []jsonAPIItem
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type jsonAPIItem struct {
	ID            string                     `json:"id"`
	Type          string                     `json:"type"`
	Attributes    map[string]json.RawMessage `json:"attributes"`
	Relationships map[string]struct {
		Data json.RawMessage `json:"data"`
	} `json:"relationships"`
}

func (c *Client) fetchPage(ctx context.Context, token *Token, pageURL string) (*jsonAPIPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/vnd.api+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.WrapError(err, "api request")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, common.WrapError(err, "read api response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, common.NewAppError("TOC_API", fmt.Sprintf("GET %s returned %d", pageURL, resp.StatusCode), nil)
	}

	// data may be a single object or an array
	var envelope struct {
		Data json.RawMessage `json:"data"`
		Links struct {
			Next string `json:"next"`
		} `json:"links"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, common.NewAppError("TOC_API", "malformed api response", err)
	}
	page := &jsonAPIPage{}
	page.Links.Next = envelope.Links.Next
	trimmed := strings.TrimSpace(string(envelope.Data))
	if strings.HasPrefix(trimmed, "{") {
		var one jsonAPIItem
		if err := json.Unmarshal(envelope.Data, &one); err != nil {
			return nil, common.NewAppError("TOC_API", "malformed api item", err)
		}
		page.Data = []jsonAPIItem{one}
	} else if trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(envelope.Data, &page.Data); err != nil {
			return nil, common.NewAppError("TOC_API", "malformed api items", err)
		}
	}
	return page, nil
}

func flattenItem(item jsonAPIItem) Resource {
	r := Resource{
		ID:         item.ID,
		Type:       item.Type,
		Attributes: map[string]string{},
	}
	for k, raw := range item.Attributes {
		r.Attributes[k] = flattenValue(raw)
	}
	for name, rel := range item.Relationships {
		r.Attributes[name] = relationshipIDs(rel.Data)
	}
	return r
}

// flattenValue renders a JSON attribute as a cell value: scalars
// verbatim, structures as compact JSON.
func flattenValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

func relationshipIDs(raw json.RawMessage) string {
	type ref struct {
		ID string `json:"id"`
	}
	var one ref
	if err := json.Unmarshal(raw, &one); err == nil && one.ID != "" {
		return one.ID
	}
	var many []ref
	if err := json.Unmarshal(raw, &many); err == nil {
		ids := make([]string, 0, len(many))
		for _, m := range many {
			ids = append(ids, m.ID)
		}
		return strings.Join(ids, ",")
	}
	return ""
}

// ColumnSet returns the union of attribute keys across resources,
// sorted, for a stable export header.
func ColumnSet(resources []Resource) []string {
	seen := map[string]struct{}{}
	for _, r := range resources {
		for k := range r.Attributes {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
