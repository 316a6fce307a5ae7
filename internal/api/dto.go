package api

import (
	"github.com/starford/wikigraph/internal/analysis"
	"github.com/starford/wikigraph/internal/graphservice"
)

// PageDetail is the full page response type (aliased from the domain layer).
type PageDetail = graphservice.PageDetail

// PageListResponse lists page paths.
type PageListResponse struct {
	Pages []string `json:"pages" validate:"required"`
	Total int      `json:"total" example:"42" validate:"required"`
}

// LinksResponse lists link targets or sources of one page.
type LinksResponse struct {
	Path  string   `json:"path" example:":ns:page" validate:"required"`
	Links []string `json:"links" validate:"required"`
}

// GraphNode is a node in the page graph.
type GraphNode struct {
	ID     string `json:"id" example:":ns:page" validate:"required"`
	Wanted bool   `json:"wanted,omitempty"`
}

// GraphLink is an edge in the page graph.
type GraphLink struct {
	Source string `json:"source" example:":ns:page" validate:"required"`
	Target string `json:"target" example:":ns:other" validate:"required"`
}

// GraphResponse wraps the page graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// RankResponse wraps a ranking.
type RankResponse struct {
	Algorithm string           `json:"algorithm" example:"pagerank" validate:"required"`
	Scores    []analysis.Score `json:"scores" validate:"required"`
}
