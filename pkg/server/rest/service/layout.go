package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pvnkmrksk/magga/pkg/combgraph"
	"github.com/pvnkmrksk/magga/pkg/kv"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/octilinearizer"
	"github.com/pvnkmrksk/magga/pkg/optgraph"
	"github.com/pvnkmrksk/magga/pkg/optim"
	"github.com/pvnkmrksk/magga/pkg/solver"
)

// LayoutService runs the full pipeline: line ordering on the input graph,
// then the grid embedding. Results are cached by request digest when a cache
// is attached.
type LayoutService struct {
	cache  *kv.KVDB
	logger *log.Logger
}

func NewLayoutService(cache *kv.KVDB, logger *log.Logger) *LayoutService {
	if logger == nil {
		logger = log.Default()
	}
	return &LayoutService{cache: cache, logger: logger}
}

type LayoutResult struct {
	GraphJSON []byte
	Score     combgraph.Score
}

func (s *LayoutService) Layout(ctx context.Context, graphJSON []byte,
	cfg octilinearizer.Config, solverStr string, timeLim int) (*LayoutResult, error) {

	cfgJSON, _ := json.Marshal(cfg)
	digest := kv.Digest(graphJSON, cfgJSON, []byte(solverStr))

	if s.cache != nil {
		if cached, err := s.cache.GetLayout(ctx, digest); err == nil {
			s.logger.Debug("layout cache hit", "digest", digest[:12])
			return &LayoutResult{
				GraphJSON: cached.GraphJSON,
				Score: combgraph.Score{
					Hop: cached.Hop, Bend: cached.Bend,
					Move: cached.Move, Dense: cached.Dense,
				},
			}, nil
		} else if !errors.Is(err, kv.ErrLayoutNotFound) {
			s.logger.Warn("layout cache read failed", "err", err)
		}
	}

	g, err := linegraph.ReadJSON(bytes.NewReader(graphJSON))
	if err != nil {
		return nil, err
	}

	if _, err := s.Order(ctx, g, solverStr, timeLim); err != nil {
		return nil, err
	}

	oc := octilinearizer.New(cfg, s.logger)
	out, score, err := oc.Draw(g)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := out.WriteJSON(&buf); err != nil {
		return nil, err
	}

	res := &LayoutResult{GraphJSON: buf.Bytes(), Score: score}

	if s.cache != nil {
		err := s.cache.PutLayout(ctx, digest, &kv.CachedLayout{
			GraphJSON: res.GraphJSON,
			Hop:       score.Hop,
			Bend:      score.Bend,
			Move:      score.Move,
			Dense:     score.Dense,
		})
		if err != nil {
			s.logger.Warn("layout cache write failed", "err", err)
		}
	}

	return res, nil
}

// OrderSummary reports the quality of the chosen line ordering.
type OrderSummary struct {
	SameSegCrossings int
	DiffSegCrossings int
	Separations      int
	Score            float64
}

// Order optimizes the line order of the graph in place and reports the
// remaining crossing and separation counts.
func (s *LayoutService) Order(ctx context.Context, g *linegraph.LineGraph,
	solverStr string, timeLim int) (*OrderSummary, error) {

	var ilp *optim.ILPOptimizer
	sv, err := solver.New(solverStr)
	if err == nil {
		ilp = optim.NewILPOptimizer(sv, time.Duration(timeLim)*time.Second, optim.DefaultPens())
	} else if solverStr != "" {
		// an explicitly requested back-end must exist
		return nil, err
	}

	og := optgraph.New(g)
	co := optim.NewCombOptimizer(optim.DefaultPens(), ilp, s.logger)
	cfg, err := co.Optimize(og)
	if err != nil {
		return nil, fmt.Errorf("line ordering failed: %w", err)
	}

	sum := &OrderSummary{}
	scorer := co.Scorer()
	for _, comp := range og.Components() {
		for _, n := range comp {
			same, diff := scorer.NumCrossings(n, cfg)
			sum.SameSegCrossings += same
			sum.DiffSegCrossings += diff
			sum.Separations += scorer.NumSeparations(n, cfg)
		}
		sum.Score += scorer.Score(comp, cfg)
	}

	optgraph.WriteEdgeOrder(cfg)
	return sum, nil
}
