// Package indexer orchestrates incremental indexing runs: load, reduce
// against the indexed state, collect dependents, chunk, embed and save.
// It also carries the search operations over indexed collections.
package indexer

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/vectorsync/internal/dedup"
	"github.com/Aman-CERP/vectorsync/internal/document"
)

// ParamSpec describes one loader parameter for validation and discovery.
type ParamSpec struct {
	Description string
	Required    bool
	Default     any
}

// Loader produces source documents. Implementations live outside this
// module (wiki crawlers, git walkers, database exporters) and stay
// unaware of storage or embedding.
type Loader interface {
	// Name identifies the loader in logs and progress messages.
	Name() string

	// Load starts producing documents. The returned stream is lazy and
	// single use; loaders should not begin network work before the
	// first document is pulled.
	Load(ctx context.Context, params map[string]any) (document.Stream, error)

	// ProcessDocument emits a document's dependents (attachments,
	// comments, linked records). A nil stream means none.
	ProcessDocument(ctx context.Context, doc *document.Document) (document.Stream, error)

	// IndexParams declares the parameters Load accepts.
	IndexParams() map[string]ParamSpec

	// Strategy selects how documents from this source are deduplicated.
	Strategy() dedup.Strategy
}

// DataExtender is an optional loader capability: a post-reduction hook
// that enriches the surviving documents (resolving links, inlining
// labels) before dependents are collected.
type DataExtender interface {
	ExtendData(ctx context.Context, stream document.Stream) document.Stream
}

// QueryRewriter turns a user query into a step-back query: a broader
// reformulation that retrieves background context.
type QueryRewriter interface {
	Rewrite(ctx context.Context, query string) (string, error)
}

// QueryRewriterFunc adapts a function to the QueryRewriter interface.
type QueryRewriterFunc func(ctx context.Context, query string) (string, error)

func (f QueryRewriterFunc) Rewrite(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// IdentityRewriter returns the query unchanged. It is the default when
// no model-backed rewriter is wired in.
func IdentityRewriter() QueryRewriter {
	return QueryRewriterFunc(func(_ context.Context, query string) (string, error) {
		return query, nil
	})
}

// resolveParams validates params against the loader's declared specs,
// filling in defaults for absent optional parameters.
func resolveParams(loader Loader, params map[string]any) (map[string]any, error) {
	specs := loader.IndexParams()
	resolved := make(map[string]any, len(specs))
	for k, v := range params {
		resolved[k] = v
	}
	for name, spec := range specs {
		if _, ok := resolved[name]; ok {
			continue
		}
		if spec.Required {
			return nil, fmt.Errorf("loader %s requires parameter %q: %s", loader.Name(), name, spec.Description)
		}
		if spec.Default != nil {
			resolved[name] = spec.Default
		}
	}
	return resolved, nil
}
