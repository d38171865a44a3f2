package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/landarea-core/internal/conversion"
)

// UnitInfo describes one supported unit.
type UnitInfo struct {
	ID    conversion.Unit `json:"id"`
	Label string          `json:"label"`
}

// RegionInfo describes one regional convention and its factor table.
type RegionInfo struct {
	ID    conversion.Region `json:"id"`
	Label string            `json:"label"`
	Note  string            `json:"note,omitempty"`

	// Factors maps each unit to its size in square meters.
	Factors map[conversion.Unit]float64 `json:"factors"`
}

// ConvertRequest is the body of POST /convert.
type ConvertRequest struct {
	Value  inputValue `json:"value"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	Region string     `json:"region,omitempty"`
}

// ConvertResponse is returned by both convert endpoints.
type ConvertResponse struct {
	// Result is what the panel displays: a formatted number, "" for empty
	// input, or "Invalid Input".
	Result       string            `json:"result"`
	Value        *float64          `json:"value,omitempty"`
	SquareMeters *float64          `json:"square_meters,omitempty"`
	Valid        bool              `json:"valid"`
	From         conversion.Unit   `json:"from"`
	To           conversion.Unit   `json:"to"`
	Region       conversion.Region `json:"region"`
}

// inputValue accepts the value as a JSON string or a bare JSON number.
// Numbers keep their literal text so the engine parses exactly what was sent.
type inputValue string

func (v *inputValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = inputValue(s)
	default:
		// Non-string literals (numbers, booleans) are passed through as text;
		// anything that is not a number reads as invalid input.
		*v = inputValue(data)
	}
	return nil
}

// handleListUnits returns the supported units in display order.
func (s *Server) handleListUnits(w http.ResponseWriter, _ *http.Request) {
	units := conversion.Units()
	out := make([]UnitInfo, 0, len(units))
	for _, u := range units {
		out = append(out, UnitInfo{ID: u, Label: u.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"units": out,
		"count": len(out),
	})
}

// handleListRegions returns the regional conventions with their active tables.
func (s *Server) handleListRegions(w http.ResponseWriter, _ *http.Request) {
	catalog := s.registry.Engine().Catalog()

	regions := conversion.Regions()
	out := make([]RegionInfo, 0, len(regions))
	for _, r := range regions {
		out = append(out, RegionInfo{
			ID:      r,
			Label:   r.Label(),
			Note:    r.Note(),
			Factors: catalog.Table(r),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"regions": out,
		"count":   len(out),
		"source":  s.registry.Source(),
	})
}

// handleConvertQuery converts ?value=&from=&to=&region=.
func (s *Server) handleConvertQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.convert(w, q.Get("value"), q.Get("from"), q.Get("to"), q.Get("region"))
}

// handleConvertJSON converts a JSON body.
func (s *Server) handleConvertJSON(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.convert(w, string(req.Value), req.From, req.To, req.Region)
}

// convert validates the selections and writes the conversion outcome.
// Unparseable values still answer 200 with result "Invalid Input".
func (s *Server) convert(w http.ResponseWriter, value, fromKey, toKey, regionKey string) {
	from, err := conversion.ParseUnit(fromKey)
	if err != nil {
		writeValidation(w, "from", err)
		return
	}
	to, err := conversion.ParseUnit(toKey)
	if err != nil {
		writeValidation(w, "to", err)
		return
	}
	region, err := conversion.ParseRegion(regionKey)
	if err != nil {
		writeValidation(w, "region", err)
		return
	}

	req := conversion.Request{Input: value, From: from, To: to, Region: region}
	resp := ConvertResponse{
		Result: conversion.InvalidInput,
		From:   from,
		To:     to,
		Region: region,
	}

	res, err := s.registry.Evaluate(req)
	switch {
	case err == nil:
		resp.Result = res.Formatted
		resp.Value = &res.Value
		resp.SquareMeters = &res.SquareMeters
		resp.Valid = true
	case errors.Is(err, conversion.ErrEmptyInput):
		resp.Result = ""
	case errors.Is(err, conversion.ErrInvalidInput):
	default:
		s.logger.Error("conversion failed", "error", err)
		writeInternalError(w, "conversion failed")
		return
	}

	s.recordConversion(surfaceHTTP, req, resp.Valid)
	writeJSON(w, http.StatusOK, resp)
}

// handleRefreshCatalog reloads the factor tables from the database, then
// recomputes every session and pushes the new state to WebSocket clients.
func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.RefreshCache(r.Context()); err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
		writeInternalError(w, "failed to refresh conversion catalog")
		return
	}

	recomputed := s.sessions.RecomputeAll()
	s.hub.PushStates()

	source := s.registry.Source()
	s.hub.Broadcast(ChannelCatalogRefreshed, map[string]any{"source": source})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"source":   source,
		"sessions": recomputed,
	})
}
