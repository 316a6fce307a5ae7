// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes wiki graph queries for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wikigraph/internal/apperr"
	"github.com/starford/wikigraph/internal/graphservice"
)

const linkRulesURI = "wikigraph://link-rules"

// Server wraps the MCP server with graph tools.
type Server struct {
	mcp *server.MCPServer
	svc *graphservice.Service
}

// New creates a new MCP server with all graph tools registered.
func New(svc *graphservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"wikigraph",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("wiki_stats",
		mcp.WithDescription("Summary of the wiki: page, link, wanted-page and namespace counts."),
	), s.wikiStats)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Describe one page: file, namespace, outgoing links, wanted links, backlinks, external links and media."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Canonical page path, e.g. :ns:page (leading colon optional)")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List the canonical paths a page links to."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Canonical page path")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all pages that link to the specified page. Works for wanted pages too."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Canonical page path")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("rank_pages",
		mcp.WithDescription("Rank pages by importance."),
		mcp.WithString("algorithm", mcp.Description("pagerank (default), authority, hub or indegree")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20, 0 for all)")),
	), s.rankPages)

	s.mcp.AddTool(mcp.NewTool("list_orphans",
		mcp.WithDescription("List pages no other page links to."),
	), s.listOrphans)

	s.mcp.AddTool(mcp.NewTool("list_wanted",
		mcp.WithDescription("List link targets that have no page, with the pages referring to them."),
	), s.listWanted)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Explain how a raw link body resolves. Read the "+linkRulesURI+" resource for the rules."),
		mcp.WithString("link", mcp.Required(), mcp.Description("Raw link body as written between [[ and ]], without a title")),
		mcp.WithString("from", mcp.Description("Canonical path of the linking page (default: root namespace)")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("media_audit",
		mcp.WithDescription("Compare embedded media with the media files on disk: missing, unused, galleries, external."),
		mcp.WithString("prefix", mcp.Description("Optional media namespace; lists files under it that are still embedded")),
	), s.mediaAudit)

	s.mcp.AddResource(
		mcp.NewResource(linkRulesURI, "Link Resolution Rules",
			mcp.WithResourceDescription("How wiki links become canonical page paths."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return toolError(err), nil
	}
	out, mErr := json.MarshalIndent(v, "", "  ")
	if mErr != nil {
		return mcp.NewToolResultError(mErr.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotReady):
		return mcp.NewToolResultError("graph not built yet, retry shortly")
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func (s *Server) wikiStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Stats(ctx))
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Page(ctx, path))
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Links(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no links found"), nil
	}
	return mcp.NewToolResultText(strings.Join(links, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) rankPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	algorithm := ""
	if a, err := req.RequireString("algorithm"); err == nil {
		algorithm = a
	}
	limit := 20
	if l, err := req.RequireInt("limit"); err == nil {
		limit = l
	}
	return jsonResult(s.svc.Rank(ctx, algorithm, limit))
}

func (s *Server) listOrphans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orphans, err := s.svc.Orphans(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(orphans) == 0 {
		return mcp.NewToolResultText("no orphans found"), nil
	}
	return mcp.NewToolResultText(strings.Join(orphans, "\n")), nil
}

func (s *Server) listWanted(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Wanted(ctx))
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := req.RequireString("link")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from := ""
	if f, fErr := req.RequireString("from"); fErr == nil {
		from = f
	}
	return jsonResult(s.svc.Resolve(ctx, link, from))
}

func (s *Server) mediaAudit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := ""
	if p, err := req.RequireString("prefix"); err == nil {
		prefix = p
	}
	return jsonResult(s.svc.MediaAudit(ctx, prefix))
}

func (s *Server) readLinkRulesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      linkRulesURI,
			MIMEType: "text/markdown",
			Text:     LinkRules,
		},
	}, nil
}
