package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/filter"
	"github.com/sells-group/rentrisk/internal/page"
	"github.com/sells-group/rentrisk/internal/region"
)

const maxBodyBytes = 1 << 16

type regionInfo struct {
	Key            string        `json:"key"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Center         region.Center `json:"center"`
	Zoom           float64       `json:"zoom"`
	IncidentsTitle string        `json:"incidents_title,omitempty"`
	IncidentYear   int           `json:"incident_year,omitempty"`
	HasCategories  bool          `json:"has_categories"`
}

type regionList struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Regions     []regionInfo `json:"regions"`
}

// filterPatch is the PATCH body. crime_category may be a string or null;
// null clears the category filter like clear_category does.
type filterPatch struct {
	RoomType      *string         `json:"room_type"`
	PriceCeiling  *float64        `json:"price_ceiling"`
	CrimeCategory json.RawMessage `json:"crime_category"`
	ClearCategory bool            `json:"clear_category"`
}

func (p filterPatch) change() (filter.Change, error) {
	c := filter.Change{RoomType: p.RoomType, PriceCeiling: p.PriceCeiling, ClearCategory: p.ClearCategory}
	raw := bytes.TrimSpace(p.CrimeCategory)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		c.ClearCategory = true
	default:
		var cat string
		if err := json.Unmarshal(raw, &cat); err != nil {
			return filter.Change{}, eris.New("crime_category must be a string or null")
		}
		c.CrimeCategory = &cat
	}
	return c, nil
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listRegions(w http.ResponseWriter, _ *http.Request) {
	out := regionList{Title: s.catalog.Title, Description: s.catalog.Description, Regions: []regionInfo{}}
	for _, r := range s.catalog.List() {
		out.Regions = append(out.Regions, regionInfo{
			Key:            r.Key,
			Name:           r.Name,
			Description:    r.Description,
			Center:         r.Center,
			Zoom:           r.Zoom,
			IncidentsTitle: r.IncidentInput.Title,
			IncidentYear:   r.IncidentInput.Year,
			HasCategories:  r.Incidents.HasCategory,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) controls(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.region(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reg.Controls)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.region(w, r)
	if !ok {
		return
	}
	top := 10
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
			return
		}
		top = n
	}
	writeJSON(w, http.StatusOK, reg.Summarize(top))
}

func (s *Server) createPage(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.region(w, r)
	if !ok {
		return
	}
	p, err := s.pages.Create(reg)
	if err != nil {
		zap.L().Error("api: create page", zap.String("region", reg.Key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create page")
		return
	}
	w.Header().Set("Location", "/pages/"+p.ID)
	writeJSON(w, http.StatusCreated, p.View())
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

func (s *Server) deletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.pages.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "page not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateFilters(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}

	var patch filterPatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	change, err := patch.change()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	update, err := p.Apply(change)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, update)
	case eris.Is(err, filter.ErrUnknownRoomType),
		eris.Is(err, filter.ErrPriceOutOfRange),
		eris.Is(err, filter.ErrUnknownCategory),
		eris.Is(err, filter.ErrCategoryConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("api: apply filters", zap.String("page", p.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not apply filters")
	}
}

func (s *Server) choropleth(w http.ResponseWriter, r *http.Request) {
	p, ok := s.page(w, r)
	if !ok {
		return
	}
	data, err := json.Marshal(p.Choropleth())
	if err != nil {
		zap.L().Error("api: encode choropleth", zap.String("page", p.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not encode choropleth")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) region(w http.ResponseWriter, r *http.Request) (*region.Region, bool) {
	key := chi.URLParam(r, "region")
	reg, ok := s.catalog.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown region "+strconv.Quote(key))
		return nil, false
	}
	return reg, true
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) (*page.Page, bool) {
	p, err := s.pages.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "page not found")
		return nil, false
	}
	return p, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
