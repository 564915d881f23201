package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/octilinearizer"
	"github.com/pvnkmrksk/magga/pkg/server/rest/service"
	"github.com/pvnkmrksk/magga/pkg/solver"
)

type LayoutService interface {
	Layout(ctx context.Context, graphJSON []byte, cfg octilinearizer.Config,
		solverStr string, timeLim int) (*service.LayoutResult, error)
	Order(ctx context.Context, g *linegraph.LineGraph, solverStr string, timeLim int) (*service.OrderSummary, error)
}

type LayoutHandler struct {
	svc LayoutService
}

func LayoutRouter(r *chi.Mux, svc LayoutService) {
	handler := &LayoutHandler{svc}

	r.Group(func(r chi.Router) {
		r.Route("/api", func(r chi.Router) {
			r.Post("/layout", handler.Layout)
			r.Post("/order", handler.Order)
		})
	})
}

type LayoutRequest struct {
	Graph json.RawMessage `json:"graph" validate:"required"`

	GridSize       float64 `json:"gridSize" validate:"omitempty,gt=0"`
	BorderRad      float64 `json:"borderRad" validate:"omitempty,gte=0"`
	MaxGrDist      float64 `json:"maxGrDist" validate:"omitempty,gt=0"`
	Deg2Heur       *bool   `json:"deg2heur"`
	RestrLocSearch *bool   `json:"restrLocSearch"`
	EnfGeoPen      float64 `json:"enfGeoPen" validate:"omitempty,gte=0"`
	BaseGraphType  string  `json:"baseGraphType" validate:"omitempty,oneof=grid octigrid"`
	TimeLim        int     `json:"timeLim" validate:"omitempty,gte=0"`
	SolverStr      string  `json:"solverStr"`

	// forbidden polygons as rings of [x, y] points
	Obstacles [][][]float64 `json:"obstacles" validate:"omitempty,dive,min=3"`
}

func (s *LayoutRequest) Bind(r *http.Request) error {
	if len(s.Graph) == 0 {
		return errors.New("invalid request")
	}
	return nil
}

func (s *LayoutRequest) config() octilinearizer.Config {
	cfg := octilinearizer.DefaultConfig()
	if s.GridSize > 0 {
		cfg.GridSize = s.GridSize
	}
	if s.BorderRad > 0 {
		cfg.BorderRad = s.BorderRad
	}
	if s.MaxGrDist > 0 {
		cfg.MaxGrDist = s.MaxGrDist
	}
	if s.Deg2Heur != nil {
		cfg.Deg2Heur = *s.Deg2Heur
	}
	if s.RestrLocSearch != nil {
		cfg.RestrLocSearch = *s.RestrLocSearch
	}
	cfg.EnfGeoPen = s.EnfGeoPen
	if s.BaseGraphType == "grid" {
		cfg.BaseGraphType = basegraph.Grid
	}
	for _, ring := range s.Obstacles {
		poly := []geo.Point{}
		for _, p := range ring {
			if len(p) == 2 {
				poly = append(poly, geo.NewPoint(p[0], p[1]))
			}
		}
		if len(poly) >= 3 {
			cfg.Obstacles = append(cfg.Obstacles, poly)
		}
	}
	return cfg
}

type LayoutResponse struct {
	Graph json.RawMessage `json:"graph"`
	Score ScoreResponse   `json:"score"`
}

type ScoreResponse struct {
	Hop   float64 `json:"hop"`
	Bend  float64 `json:"bend"`
	Move  float64 `json:"move"`
	Dense float64 `json:"dense"`
	Total float64 `json:"total"`
}

func (h *LayoutHandler) Layout(w http.ResponseWriter, r *http.Request) {
	data := &LayoutRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	validate := validator.New()
	if err := validate.Struct(*data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return
	}

	res, err := h.svc.Layout(r.Context(), data.Graph, data.config(), data.SolverStr, data.TimeLim)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &LayoutResponse{
		Graph: res.GraphJSON,
		Score: ScoreResponse{
			Hop: res.Score.Hop, Bend: res.Score.Bend,
			Move: res.Score.Move, Dense: res.Score.Dense,
			Total: res.Score.Sum(),
		},
	})
}

type OrderResponse struct {
	// the input graph with every edge's line list permuted into the chosen
	// order
	Graph json.RawMessage `json:"graph"`

	SameSegCrossings int     `json:"sameSegCrossings"`
	DiffSegCrossings int     `json:"diffSegCrossings"`
	Separations      int     `json:"separations"`
	Score            float64 `json:"score"`
}

func (h *LayoutHandler) Order(w http.ResponseWriter, r *http.Request) {
	data := &LayoutRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	g, err := linegraph.ReadJSON(bytes.NewReader(data.Graph))
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}
	sum, err := h.svc.Order(r.Context(), g, data.SolverStr, data.TimeLim)
	if err != nil {
		render.Render(w, r, errRenderer(err))
		return
	}

	var buf bytes.Buffer
	if err := g.WriteJSON(&buf); err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, &OrderResponse{
		Graph:            buf.Bytes(),
		SameSegCrossings: sum.SameSegCrossings,
		DiffSegCrossings: sum.DiffSegCrossings,
		Separations:      sum.Separations,
		Score:            sum.Score,
	})
}

func errRenderer(err error) render.Renderer {
	switch {
	case errors.Is(err, linegraph.ErrInvalidInput):
		return ErrInvalidRequest(err)
	case errors.Is(err, octilinearizer.ErrNoEmbeddingFound):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusUnprocessableEntity,
			StatusText:     "No embedding found.",
			ErrorText:      err.Error(),
		}
	case errors.Is(err, solver.ErrSolverUnavailable):
		return &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusInternalServerError,
			StatusText:     "Solver unavailable.",
			ErrorText:      err.Error(),
		}
	default:
		return ErrInternalServerErrorRend(errors.New("internal server error"))
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText    string   `json:"status"`
	AppCode       int64    `json:"code,omitempty"`
	ErrorText     string   `json:"error,omitempty"`
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}
