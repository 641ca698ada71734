package indexer

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/errors"
	"github.com/Aman-CERP/vectorsync/internal/vstore"
)

// NoDocumentsMessage is returned when a search matches nothing. Searches
// never fail on empty collections; they report this instead.
const NoDocumentsMessage = "no documents found"

// SearchRequest describes one similarity search.
type SearchRequest struct {
	// CollectionSuffix scopes the search to one collection.
	CollectionSuffix string

	// Query is the natural-language query text.
	Query string

	// Filter is an additional metadata equality filter.
	Filter map[string]any

	// Cutoff drops results below this similarity (0 disables).
	Cutoff float64

	// Limit caps the result count (default: vstore.DefaultSearchLimit).
	Limit int
}

// SearchResponse carries search results and a human-readable message.
type SearchResponse struct {
	Message string
	Results []*vstore.SearchResult
}

// SummaryResponse carries an assembled summary and its source chunks.
type SummaryResponse struct {
	Summary string
	Sources []*vstore.SearchResult
}

// SearchIndex runs a plain similarity search over one collection.
func (e *Engine) SearchIndex(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := e.validateSearch(req); err != nil {
		return nil, err
	}

	results, err := e.adapter.Search(ctx, req.CollectionSuffix, req.Query, vstore.SearchOptions{
		Filter: req.Filter,
		Cutoff: req.Cutoff,
		Limit:  req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return newSearchResponse(results), nil
}

// StepbackSearchIndex searches with both the original query and its
// step-back reformulation, fusing the two result sets by best score.
func (e *Engine) StepbackSearchIndex(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := e.validateSearch(req); err != nil {
		return nil, err
	}

	results, err := e.stepbackResults(ctx, req)
	if err != nil {
		return nil, err
	}
	return newSearchResponse(results), nil
}

// StepbackSummaryIndex runs a step-back search and assembles the result
// contents into one context block, most relevant first.
func (e *Engine) StepbackSummaryIndex(ctx context.Context, req SearchRequest) (*SummaryResponse, error) {
	if err := e.validateSearch(req); err != nil {
		return nil, err
	}

	results, err := e.stepbackResults(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &SummaryResponse{Summary: NoDocumentsMessage}, nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		if name := sourceLabel(r.Metadata); name != "" {
			b.WriteString("[")
			b.WriteString(name)
			b.WriteString("]\n")
		}
		b.WriteString(r.Content)
	}
	return &SummaryResponse{Summary: b.String(), Sources: results}, nil
}

func (e *Engine) stepbackResults(ctx context.Context, req SearchRequest) ([]*vstore.SearchResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = vstore.DefaultSearchLimit
	}
	opts := vstore.SearchOptions{Filter: req.Filter, Cutoff: req.Cutoff, Limit: limit}

	queries := []string{req.Query}
	stepback, err := e.rewriter.Rewrite(ctx, req.Query)
	if err != nil {
		e.logger.Warn("step-back rewrite failed, searching with the original query only",
			slog.String("error", err.Error()))
	} else if stepback != "" && stepback != req.Query {
		queries = append(queries, stepback)
	}

	// Fuse by storage id, keeping each chunk's best score.
	best := make(map[string]*vstore.SearchResult)
	for _, query := range queries {
		results, err := e.adapter.Search(ctx, req.CollectionSuffix, query, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			if prev, ok := best[r.StorageID]; !ok || r.Score > prev.Score {
				best[r.StorageID] = r
			}
		}
	}

	fused := make([]*vstore.SearchResult, 0, len(best))
	for _, r := range best {
		fused = append(fused, r)
	}
	sort.Slice(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

func (e *Engine) validateSearch(req SearchRequest) error {
	if err := document.ValidateCollectionSuffix(req.CollectionSuffix); err != nil {
		return errors.ConfigError(err.Error(), nil)
	}
	if strings.TrimSpace(req.Query) == "" {
		return errors.QueryError("query must not be empty", nil)
	}
	return nil
}

func newSearchResponse(results []*vstore.SearchResult) *SearchResponse {
	if len(results) == 0 {
		return &SearchResponse{Message: NoDocumentsMessage}
	}
	return &SearchResponse{Results: results}
}

func sourceLabel(meta map[string]any) string {
	if name := document.MetaString(meta, document.KeyFilename); name != "" {
		return name
	}
	return document.MetaString(meta, document.KeyID)
}
