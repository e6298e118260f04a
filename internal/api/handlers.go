package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sluice/internal/media"
	"sluice/internal/orchestrate"
	"sluice/internal/registry"
	"sluice/internal/subtitle"
)

type seasonRequest struct {
	Number     int    `json:"number"`
	ExternalID string `json:"external_id"`
}

type episodeRequest struct {
	Number     int    `json:"number"`
	ExternalID string `json:"external_id"`
}

type resolveRequest struct {
	Type       string          `json:"type"`
	Title      string          `json:"title"`
	ExternalID string          `json:"external_id"`
	ImdbID     string          `json:"imdb_id,omitempty"`
	Year       string          `json:"year,omitempty"`
	Season     *seasonRequest  `json:"season,omitempty"`
	Episode    *episodeRequest `json:"episode,omitempty"`
	Hint       string          `json:"hint,omitempty"`
}

type subtitleResponse struct {
	Language string `json:"language"`
	Label    string `json:"label"`
	URL      string `json:"url"`
}

type streamResponse struct {
	URL       string             `json:"url"`
	Format    string             `json:"format"`
	Qualities map[string]string  `json:"qualities,omitempty"`
	Headers   map[string]string  `json:"headers"`
	Subtitles []subtitleResponse `json:"subtitles,omitempty"`
	Provider  string             `json:"provider"`
}

type itemResponse struct {
	Key      string          `json:"key"`
	Title    string          `json:"title"`
	Year     string          `json:"year,omitempty"`
	Slug     string          `json:"slug,omitempty"`
	Resolved bool            `json:"resolved"`
	Stream   *streamResponse `json:"stream,omitempty"`
}

type activeRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "ok"}})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExternalID == "" && req.ImdbID == "" {
		s.respondError(w, http.StatusBadRequest, "external_id or imdb_id required")
		return
	}

	desc := media.Descriptor{
		Type:       media.ParseType(req.Type),
		Title:      req.Title,
		ExternalID: req.ExternalID,
		ImdbID:     req.ImdbID,
		Year:       req.Year,
	}
	if req.Season != nil {
		desc.Season = &media.Season{Number: req.Season.Number, ExternalID: req.Season.ExternalID}
	}
	if req.Episode != nil {
		desc.Episode = &media.Episode{Number: req.Episode.Number, ExternalID: req.Episode.ExternalID}
	}
	if desc.IsShow() && (desc.Season == nil || desc.Episode == nil) {
		s.respondError(w, http.StatusBadRequest, "show resolution requires season and episode")
		return
	}

	stream, err := s.resolver.Resolve(r.Context(), desc, registry.ParseHint(req.Hint))
	if err != nil {
		switch {
		case errors.Is(err, orchestrate.ErrExhausted):
			s.respondError(w, http.StatusNotFound, "no provider produced a stream")
		case errors.Is(err, orchestrate.ErrTimedOut):
			s.respondError(w, http.StatusGatewayTimeout, "resolution deadline exceeded")
		default:
			s.respondError(w, http.StatusBadGateway, "resolution failed")
		}
		return
	}

	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: s.toStreamResponse(stream)})
}

func (s *Server) handleBucketItems(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		s.respondError(w, http.StatusBadRequest, "bucket key required")
		return
	}

	// A stale bucket kicks off a refill that outlives this request, so the
	// context must survive the response being written.
	items := s.buckets.Items(context.WithoutCancel(r.Context()), key)
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		ir := itemResponse{
			Key:      item.Key,
			Title:    item.Title,
			Year:     item.Year,
			Slug:     item.Slug,
			Resolved: item.Resolved(),
		}
		if item.Stream != nil {
			ir.Stream = s.toStreamResponse(item.Stream)
		}
		out = append(out, ir)
	}
	s.respondJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

func (s *Server) handleBucketActive(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req activeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Index < 0 {
		s.respondError(w, http.StatusBadRequest, "index cannot be negative")
		return
	}

	// Fire and forget: resolution happens in the background, the caller
	// polls the bucket to observe promotions. The request context is
	// cancelled as soon as the 202 is written, so the background work gets
	// a detached context.
	s.buckets.ReportActiveIndex(context.WithoutCancel(r.Context()), key, req.Index)
	s.respondJSON(w, http.StatusAccepted, Response{Success: true})
}

func (s *Server) handleBucketFill(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	s.buckets.TriggerFill(context.WithoutCancel(r.Context()), key)
	s.respondJSON(w, http.StatusAccepted, Response{Success: true})
}

func (s *Server) toStreamResponse(stream *media.ResolvedStream) *streamResponse {
	subs := stream.Subtitles
	if s.subsLang != "" {
		subs = subtitle.Prioritize(subs, s.subsLang)
	}
	out := &streamResponse{
		URL:       stream.URL,
		Format:    stream.Format.String(),
		Qualities: stream.Qualities,
		Headers:   stream.Headers,
		Provider:  stream.ProviderID,
	}
	for _, sub := range subs {
		out.Subtitles = append(out.Subtitles, subtitleResponse{
			Language: strings.TrimSpace(sub.Language),
			Label:    sub.Label,
			URL:      sub.URL,
		})
	}
	return out
}
