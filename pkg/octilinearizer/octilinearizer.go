package octilinearizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/combgraph"
	"github.com/pvnkmrksk/magga/pkg/concurrent"
	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"golang.org/x/exp/rand"
)

var ErrNoEmbeddingFound = errors.New("no embedding found")

const (
	tries = 100
	iters = 100
	jobs  = 4

	// phase 2 stops below this improvement
	minImprovement = 0.05
)

// Config is the closed option set of the embedding engine.
type Config struct {
	GridSize       float64
	BorderRad      float64
	MaxGrDist      float64
	Deg2Heur       bool
	RestrLocSearch bool
	EnfGeoPen      float64
	Obstacles      [][]geo.Point
	BaseGraphType  basegraph.BaseGraphType
	Pens           basegraph.Penalties
	Seed           uint64
}

func DefaultConfig() Config {
	return Config{
		GridSize:       100,
		BorderRad:      2,
		MaxGrDist:      3,
		Deg2Heur:       true,
		RestrLocSearch: true,
		BaseGraphType:  basegraph.OctiGrid,
		Pens:           basegraph.DefaultPenalties(),
	}
}

type Octilinearizer struct {
	cfg Config
	log *log.Logger
}

func New(cfg Config, logger *log.Logger) *Octilinearizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Octilinearizer{cfg: cfg, log: logger}
}

// geoPensMap holds the precomputed course penalties, per comb edge, per hop
// edge id.
type geoPensMap map[int32]map[int32]float64

// Draw octilinearizes the line graph and returns the schematic graph with
// the score decomposition.
func (oc *Octilinearizer) Draw(lg *linegraph.LineGraph) (*linegraph.LineGraph, combgraph.Score, error) {
	if lg == nil || lg.NumNds() == 0 {
		return linegraph.New(), combgraph.Score{}, nil
	}

	lg.RemoveEdgesShorterThan(oc.cfg.GridSize / 2)
	cg := combgraph.New(lg, oc.cfg.Deg2Heur)
	box := lg.BBox().Pad(oc.cfg.GridSize + 1)

	return oc.DrawComb(cg, box)
}

// DrawComb runs the embedding over a prebuilt comb graph.
func (oc *Octilinearizer) DrawComb(cg *combgraph.CombGraph, box geo.BBox) (*linegraph.LineGraph, combgraph.Score, error) {
	rng := rand.New(rand.NewSource(oc.cfg.Seed))

	// one private grid copy per worker
	initJobs := make([]concurrent.Job[concurrent.GridInitParam], jobs)
	for i := 0; i < jobs; i++ {
		initJobs[i] = concurrent.NewJob(i, concurrent.NewGridInitParam(i))
	}
	ggs := concurrent.RunJobs(initJobs, func(concurrent.GridInitParam) basegraph.BaseGraph {
		gg := basegraph.New(oc.cfg.BaseGraphType, box, oc.cfg.GridSize, oc.cfg.BorderRad, oc.cfg.Pens)
		gg.Init()
		for _, obst := range oc.cfg.Obstacles {
			gg.AddObstacle(obst)
		}
		return gg
	})

	initOrder := getOrdering(cg, false, nil)

	var geoPens geoPensMap
	if oc.cfg.EnfGeoPen > 0 {
		geoPens = make(geoPensMap, len(cg.Edgs))
		for _, ce := range initOrder {
			geoPens[ce.Idx] = ggs[0].WriteGeoCoursePens(ce.Course, oc.cfg.EnfGeoPen)
		}
	}

	drawing := combgraph.NewDrawing()
	found := false

	for i := 0; i < tries; i++ {
		order := initOrder
		if i != 0 {
			order = getOrdering(cg, true, rng)
		}

		locFound := oc.drawOrder(order, nil, ggs[0], drawing, drawing.Score(), geoPens)
		if locFound {
			oc.settleLooseNds(cg, ggs[0], drawing)
			oc.log.Info("embedding try", "try", i, "score", drawing.Score())
			found = true
		} else {
			oc.log.Debug("embedding try failed", "try", i)
		}

		drawing.EraseFromGrid(ggs[0])
		if found {
			break
		}
		drawing.Crumble()
	}

	if !found {
		return nil, combgraph.Score{}, fmt.Errorf("%w after %d tries", ErrNoEmbeddingFound, tries)
	}

	for i := 0; i < jobs; i++ {
		drawing.ApplyToGrid(ggs[i])
	}

	drawing = oc.localSearch(cg, ggs, drawing, geoPens)

	full := drawing.FullScore()
	oc.log.Info("done",
		"hop", full.Hop, "bend", full.Bend, "move", full.Move, "dense", full.Dense)

	return drawing.GetLineGraph(cg, ggs[0]), full, nil
}

// localSearch reseats every node among its grid neighbors, one batch per
// worker over a private grid copy, then adopts the best worker result.
func (oc *Octilinearizer) localSearch(cg *combgraph.CombGraph, ggs []basegraph.BaseGraph,
	drawing *combgraph.Drawing, geoPens geoPensMap) *combgraph.Drawing {

	batches := make([][]*combgraph.CombNode, jobs)
	c := 0
	for _, nd := range cg.Nds {
		if nd.Deg() == 0 {
			continue
		}
		batches[c%jobs] = append(batches[c%jobs], nd)
		c++
	}

	searchJobs := make([]concurrent.Job[concurrent.BatchSearchParam], jobs)
	for i := 0; i < jobs; i++ {
		searchJobs[i] = concurrent.NewJob(i, concurrent.NewBatchSearchParam(i))
	}

	for it := 0; it < iters; it++ {
		bestFrIters := concurrent.RunJobs(searchJobs, func(p concurrent.BatchSearchParam) *combgraph.Drawing {
			return oc.searchBatch(batches[p.Batch], ggs[p.Batch], drawing, geoPens)
		})

		bestCore := -1
		bestScore := math.Inf(1)
		for i := 0; i < jobs; i++ {
			if bestFrIters[i].Score() < bestScore {
				bestScore = bestFrIters[i].Score()
				bestCore = i
			}
		}

		// all workers failed to produce a finite drawing: no improvement
		if bestCore < 0 {
			break
		}

		imp := drawing.Score() - bestScore
		oc.log.Info("iter", "it", it, "prev", drawing.Score(), "next", bestScore, "imp", imp)

		for i := 0; i < jobs; i++ {
			drawing.EraseFromGrid(ggs[i])
			bestFrIters[bestCore].ApplyToGrid(ggs[i])
		}
		drawing = bestFrIters[bestCore]

		if imp < minImprovement {
			break
		}
	}

	return drawing
}

func (oc *Octilinearizer) searchBatch(batch []*combgraph.CombNode, gg basegraph.BaseGraph,
	drawing *combgraph.Drawing, geoPens geoPensMap) *combgraph.Drawing {

	best := combgraph.NewDrawing()

	for _, a := range batch {
		curCell, ok := drawing.GrNd(a)
		if !ok {
			continue
		}

		drawingCp := drawing.Copy()
		for _, ce := range a.Adj {
			drawingCp.EraseEdgFromGrid(ce, gg)
			drawingCp.Erase(ce)
		}
		drawingCp.EraseNd(a)
		gg.UnSettleNd(a.Idx)

		for pos := 0; pos <= gg.NumNeighbors(); pos++ {
			n := gg.Neighbor(curCell, pos)
			if n == basegraph.InvalidCell {
				continue
			}
			if n != curCell && (gg.CellSettled(n) || gg.CellClosed(n)) {
				continue
			}

			if oc.cfg.RestrLocSearch {
				gridD := geo.Dist(a.Pos(), gg.CellPos(n))
				if gridD >= gg.CellSize()*oc.cfg.MaxGrDist {
					continue
				}
			}

			run := drawingCp.Copy()
			preSettled := map[int32]basegraph.CellID{a.Idx: n}

			// the incumbent batch best is a valid cutoff, anything above it
			// is not worth finishing
			found := oc.drawOrder(a.Adj, preSettled, gg, run, best.Score(), geoPens)

			if found && best.Score() > run.Score() {
				best = run
			}

			for _, ce := range a.Adj {
				run.EraseEdgFromGrid(ce, gg)
			}
			if gg.IsSettled(a.Idx) {
				gg.UnSettleNd(a.Idx)
			}
		}

		// restore the incumbent placement
		gg.SettleNd(curCell, a.Idx)
		for _, ce := range a.Adj {
			drawing.ApplyEdgToGrid(ce, gg)
		}
	}

	return best
}

// drawOrder routes the comb edges in order, failing fast on the first edge
// that cannot be embedded below the cutoff.
func (oc *Octilinearizer) drawOrder(order []*combgraph.CombEdge,
	preSettled map[int32]basegraph.CellID, gg basegraph.BaseGraph,
	d *combgraph.Drawing, globCutoff float64, geoPens geoPensMap) bool {

	for _, ce := range order {
		cutoff := globCutoff - d.Score()
		if math.IsInf(d.Score(), 1) {
			cutoff = math.Inf(1)
		}

		var pens map[int32]float64
		if geoPens != nil {
			pens = geoPens[ce.Idx]
		}

		if !oc.routeEdge(ce, preSettled, gg, d, cutoff, pens) {
			return false
		}
	}
	d.SetValid(true)
	return true
}

// settleLooseNds places degree-0 comb nodes at their nearest free cell.
func (oc *Octilinearizer) settleLooseNds(cg *combgraph.CombGraph,
	gg basegraph.BaseGraph, d *combgraph.Drawing) {

	for _, nd := range cg.Nds {
		if nd.Deg() > 0 {
			continue
		}
		if _, ok := d.GrNd(nd); ok {
			continue
		}
		maxDis := gg.CellSize() * oc.cfg.MaxGrDist
		for i := 0; i < 10; i++ {
			cands := gg.GrNdCands(nd.Pos(), maxDis)
			if len(cands) > 0 {
				c := cands[0]
				gg.SettleNd(c, nd.Idx)
				d.SetGrNd(nd, c)
				d.SetNdCosts(nd, combgraph.Score{
					Move:  gg.NdMovePen(nd.Pos(), c),
					Dense: gg.CellDensityPen(c),
				})
				break
			}
			maxDis += float64(i) * 2
		}
	}
}
