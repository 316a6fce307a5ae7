package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wikigraph/internal/graphservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *graphservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *graphservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pagePath extracts the page path from the URL wildcard.
// Accepts ":ns:page", "ns:page", "ns/page" and encoded forms (ns%3Apage).
func pagePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func queryLimit(r *http.Request, def int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Stats handles GET /api/stats.
//
//	@Summary		Summary of the current graph snapshot
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	graphservice.Stats
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListPages handles GET /api/pages.
//
//	@Summary		List page paths, optionally filtered by namespace
//	@Tags			pages
//	@Produce		json
//	@Param			namespace	query		string	false	"Namespace prefix, e.g. :ns:"
//	@Success		200			{object}	PageListResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	vertices, _, err := h.svc.Edges(r.Context())
	if err != nil {
		writeError(w, "list pages", err)
		return
	}
	ns := r.URL.Query().Get("namespace")
	if ns != "" {
		ns = graphservice.Canonical(strings.TrimSuffix(ns, ":"))
		if ns != ":" {
			ns += ":"
		}
	}
	pages := make([]string, 0, len(vertices))
	for _, v := range vertices {
		if ns == "" || strings.HasPrefix(v, ns) {
			pages = append(pages, v)
		}
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: pages, Total: len(pages)})
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get one page with its links, backlinks and media
//	@Tags			pages
//	@Produce		json
//	@Param			path	path		string	true	"Page path"
//	@Success		200		{object}	PageDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{path} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Page(r.Context(), pagePath(r))
	if err != nil {
		writeError(w, "get page", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Links handles GET /api/links/*.
//
//	@Summary		Outgoing page links
//	@Tags			pages
//	@Produce		json
//	@Param			path	path		string	true	"Page path"
//	@Success		200		{object}	LinksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/links/{path} [get]
func (h *Handler) Links(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	links, err := h.svc.Links(r.Context(), path)
	if err != nil {
		writeError(w, "links", err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Path: graphservice.Canonical(path), Links: links})
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		Pages linking to the given page (existing or wanted)
//	@Tags			pages
//	@Produce		json
//	@Param			path	path		string	true	"Page path"
//	@Success		200		{object}	LinksResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	bl, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		writeError(w, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, LinksResponse{Path: graphservice.Canonical(path), Links: bl})
}

// Resolve handles GET /api/resolve.
//
//	@Summary		Explain how a raw link body resolves
//	@Tags			pages
//	@Produce		json
//	@Param			link	query		string	true	"Raw link body"
//	@Param			from	query		string	false	"Linking page path"
//	@Success		200		{object}	graphservice.ResolvedLink
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	link := q.Get("link")
	if link == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("link is required"))
		return
	}
	res, err := h.svc.Resolve(r.Context(), link, q.Get("from"))
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Graph handles GET /api/graph.
//
//	@Summary		Full page graph for visualisation
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	vertices, edges, err := h.svc.Edges(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	wanted, err := h.svc.Wanted(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}

	nodes := make([]GraphNode, 0, len(vertices)+len(wanted))
	for _, v := range vertices {
		nodes = append(nodes, GraphNode{ID: v})
	}
	for _, wp := range wanted {
		nodes = append(nodes, GraphNode{ID: wp.Path, Wanted: true})
	}
	links := make([]GraphLink, 0, len(edges))
	for _, e := range edges {
		links = append(links, GraphLink{Source: e.From, Target: e.To})
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}

// Rank handles GET /api/rank.
//
//	@Summary		Rank pages by importance
//	@Tags			graph
//	@Produce		json
//	@Param			algorithm	query		string	false	"Algorithm"	Enums(pagerank, authority, hub, indegree)
//	@Param			limit		query		int		false	"Maximum results (default 20, 0 for all)"
//	@Success		200			{object}	RankResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rank [get]
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	alg := strings.ToLower(r.URL.Query().Get("algorithm"))
	if alg == "" {
		alg = graphservice.RankPageRank
	}
	scores, err := h.svc.Rank(r.Context(), alg, queryLimit(r, 20))
	if err != nil {
		writeError(w, "rank", err)
		return
	}
	writeJSON(w, http.StatusOK, RankResponse{Algorithm: alg, Scores: scores})
}

// Orphans handles GET /api/orphans.
//
//	@Summary		Pages with no incoming links
//	@Tags			graph
//	@Produce		json
//	@Success		200	{array}	string
//	@Security		BearerAuth
//	@Router			/orphans [get]
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.svc.Orphans(r.Context())
	if err != nil {
		writeError(w, "orphans", err)
		return
	}
	writeJSON(w, http.StatusOK, orphans)
}

// Wanted handles GET /api/wanted.
//
//	@Summary		Link targets with no page
//	@Tags			graph
//	@Produce		json
//	@Success		200	{array}	analysis.WantedPage
//	@Security		BearerAuth
//	@Router			/wanted [get]
func (h *Handler) Wanted(w http.ResponseWriter, r *http.Request) {
	wanted, err := h.svc.Wanted(r.Context())
	if err != nil {
		writeError(w, "wanted", err)
		return
	}
	writeJSON(w, http.StatusOK, wanted)
}

// Clusters handles GET /api/clusters.
//
//	@Summary		Weakly connected page groups, largest first
//	@Tags			graph
//	@Produce		json
//	@Success		200	{array}	[]string
//	@Security		BearerAuth
//	@Router			/clusters [get]
func (h *Handler) Clusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.svc.Clusters(r.Context())
	if err != nil {
		writeError(w, "clusters", err)
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}

// Namespaces handles GET /api/namespaces.
//
//	@Summary		Namespaces with their page counts
//	@Tags			namespaces
//	@Produce		json
//	@Success		200	{array}	graphservice.NamespaceInfo
//	@Security		BearerAuth
//	@Router			/namespaces [get]
func (h *Handler) Namespaces(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.Namespaces(r.Context())
	if err != nil {
		writeError(w, "namespaces", err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// EmptyNamespaces handles GET /api/namespaces/empty.
//
//	@Summary		Namespaces whose directory holds no files
//	@Tags			namespaces
//	@Produce		json
//	@Success		200	{array}	string
//	@Security		BearerAuth
//	@Router			/namespaces/empty [get]
func (h *Handler) EmptyNamespaces(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.EmptyNamespaces(r.Context())
	if err != nil {
		writeError(w, "empty namespaces", err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// Media handles GET /api/media.
//
//	@Summary		Media audit: missing, unused, galleries and external references
//	@Tags			media
//	@Produce		json
//	@Param			prefix	query		string	false	"Media namespace to check for remaining references"
//	@Success		200		{object}	graphservice.MediaReport
//	@Security		BearerAuth
//	@Router			/media [get]
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.MediaAudit(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, "media audit", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
