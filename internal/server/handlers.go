//-------------------------------------------------------------------------
//
// pgEdge Segment Explorer
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pgEdge/pgedge-segments/internal/dataset"
	"github.com/pgEdge/pgedge-segments/internal/views"
)

// ExportFilename is the download name of the labelled RFM table.
const ExportFilename = "rfm_clusters_labelled.csv"

type handlers struct {
	explorer *views.Explorer
	log      zerolog.Logger
}

type viewInfo struct {
	Kind        views.Kind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

// health handles GET /healthz
func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"time":         time.Now().Format(time.RFC3339),
		"source":       h.explorer.Data.Source,
		"loaded_at":    h.explorer.Data.LoadedAt.Format(time.RFC3339),
		"customers":    len(h.explorer.Data.RFM),
		"transactions": len(h.explorer.Data.Transactions),
	})
}

// listViews handles GET /api/views
func (h *handlers) listViews(w http.ResponseWriter, _ *http.Request) {
	all := views.All()
	out := make([]viewInfo, 0, len(all))
	for _, v := range all {
		out = append(out, viewInfo{Kind: v.Kind(), Title: v.Title(), Description: v.Description()})
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"views": out,
		"count": len(out),
	})
}

// renderView handles GET /api/views/{kind}
func (h *handlers) renderView(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	vm, err := views.Render(h.explorer, sel)
	switch {
	case errors.Is(err, views.ErrUnknownView):
		WriteError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, views.ErrInvalidSelection):
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Str("view", string(sel.View)).Msg("Failed to render view")
		WriteError(w, http.StatusInternalServerError, "failed to render view")
		return
	}

	WriteJSON(w, http.StatusOK, vm)
}

func parseSelection(r *http.Request) (views.Selection, error) {
	q := r.URL.Query()
	sel := views.Selection{
		View:   views.Kind(r.PathValue("kind")),
		Column: q.Get("column"),
	}

	if raw := q.Get("percentile"); raw != "" {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sel, errors.New("percentile must be a number")
		}
		sel.Percentile = &p
	}
	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return sel, errors.New("id must be an integer customer id")
		}
		sel.CustomerID = &id
	}
	return sel, nil
}

// listCustomers handles GET /api/customers
func (h *handlers) listCustomers(w http.ResponseWriter, _ *http.Request) {
	ids := h.explorer.Data.CustomerIDs()
	WriteJSON(w, http.StatusOK, map[string]any{
		"customer_ids": ids,
		"count":        len(ids),
	})
}

// exportRFM handles GET /api/export/rfm.csv
func (h *handlers) exportRFM(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	if err := dataset.WriteCSV(w, h.explorer.Data.LabelledRFMTable()); err != nil {
		// Headers are already sent.
		h.log.Error().Err(err).Msg("Failed to write RFM export")
	}
}
