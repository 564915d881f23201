package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pvnkmrksk/magga/pkg/basegraph"
	"github.com/pvnkmrksk/magga/pkg/geo"
	"github.com/pvnkmrksk/magga/pkg/linegraph"
	"github.com/pvnkmrksk/magga/pkg/octilinearizer"
	"github.com/pvnkmrksk/magga/pkg/server/rest/service"
	"github.com/pvnkmrksk/magga/pkg/solver"
)

const (
	exitOK           = 0
	exitInvalidInput = 1
	exitNoEmbedding  = 2
	exitSolver       = 3
)

type fileConfig struct {
	GridSize       float64              `toml:"gridSize"`
	BorderRad      float64              `toml:"borderRad"`
	MaxGrDist      float64              `toml:"maxGrDist"`
	Deg2Heur       *bool                `toml:"deg2heur"`
	RestrLocSearch *bool                `toml:"restrLocSearch"`
	EnfGeoPen      float64              `toml:"enfGeoPen"`
	BaseGraphType  string               `toml:"baseGraphType"`
	TimeLim        int                  `toml:"timeLim"`
	SolverStr      string               `toml:"solverStr"`
	Penalties      *basegraph.Penalties `toml:"penalties"`
}

func main() {
	var (
		configPath    string
		outputPath    string
		gridSize      float64
		borderRad     float64
		maxGrDist     float64
		deg2Heur      bool
		restrLoc      bool
		enfGeoPen     float64
		baseGraphType string
		timeLim       int
		solverStr     string
		obstaclesPath string
		seed          uint64
		verbose       bool
	)

	root := &cobra.Command{
		Use:   "magga [input.json]",
		Short: "octilinear schematic transit map layouter",
		Long: "magga reads a transit line graph, optimizes the line ordering and\n" +
			"computes an octilinear schematic drawing on a regular grid.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.Default()
			if !verbose {
				logger.SetLevel(log.WarnLevel)
			}

			cfg := octilinearizer.DefaultConfig()
			if configPath != "" {
				var fc fileConfig
				if _, err := toml.DecodeFile(configPath, &fc); err != nil {
					return exitErr(exitInvalidInput, fmt.Errorf("config: %w", err))
				}
				applyFileConfig(&cfg, &fc, &timeLim, &solverStr)
			}
			if cmd.Flags().Changed("grid-size") {
				cfg.GridSize = gridSize
			}
			if cmd.Flags().Changed("border-rad") {
				cfg.BorderRad = borderRad
			}
			if cmd.Flags().Changed("max-gr-dist") {
				cfg.MaxGrDist = maxGrDist
			}
			if cmd.Flags().Changed("deg2heur") {
				cfg.Deg2Heur = deg2Heur
			}
			if cmd.Flags().Changed("restr-loc-search") {
				cfg.RestrLocSearch = restrLoc
			}
			if cmd.Flags().Changed("enf-geo-pen") {
				cfg.EnfGeoPen = enfGeoPen
			}
			if baseGraphType == "grid" {
				cfg.BaseGraphType = basegraph.Grid
			}
			if obstaclesPath != "" {
				obst, err := readObstacles(obstaclesPath)
				if err != nil {
					return exitErr(exitInvalidInput, fmt.Errorf("obstacles: %w", err))
				}
				cfg.Obstacles = obst
			}
			cfg.Seed = seed

			var in io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return exitErr(exitInvalidInput, err)
				}
				defer f.Close()
				in = f
			}

			graphJSON, err := io.ReadAll(in)
			if err != nil {
				return exitErr(exitInvalidInput, err)
			}

			svc := service.NewLayoutService(nil, logger)
			res, err := svc.Layout(context.Background(), graphJSON, cfg, solverStr, timeLim)
			if err != nil {
				switch {
				case errors.Is(err, linegraph.ErrInvalidInput):
					return exitErr(exitInvalidInput, err)
				case errors.Is(err, octilinearizer.ErrNoEmbeddingFound):
					return exitErr(exitNoEmbedding, err)
				case errors.Is(err, solver.ErrSolverUnavailable),
					errors.Is(err, solver.ErrInfeasible),
					errors.Is(err, solver.ErrTimeout):
					return exitErr(exitSolver, err)
				default:
					return exitErr(exitNoEmbedding, err)
				}
			}

			out := os.Stdout
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return exitErr(exitInvalidInput, err)
				}
				defer f.Close()
				out = f
			}
			if _, err := io.Copy(out, bytes.NewReader(res.GraphJSON)); err != nil {
				return exitErr(exitInvalidInput, err)
			}

			logger.Info("score",
				"hop", res.Score.Hop, "bend", res.Score.Bend,
				"move", res.Score.Move, "dense", res.Score.Dense,
				"total", res.Score.Sum())
			return nil
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "toml config file")
	root.Flags().StringVarP(&outputPath, "output", "o", "", "output file, stdout when empty")
	root.Flags().Float64Var(&gridSize, "grid-size", 100, "grid cell size in world units")
	root.Flags().Float64Var(&borderRad, "border-rad", 2, "grid padding around the bounding box, in cells")
	root.Flags().Float64Var(&maxGrDist, "max-gr-dist", 3, "station placement radius in cells")
	root.Flags().BoolVar(&deg2Heur, "deg2heur", true, "contract degree-2 chains before embedding")
	root.Flags().BoolVar(&restrLoc, "restr-loc-search", true, "restrict the local search to the placement radius")
	root.Flags().Float64Var(&enfGeoPen, "enf-geo-pen", 0, "weight of the stay-near-course penalty, 0 disables")
	root.Flags().StringVar(&baseGraphType, "base-graph", "octigrid", "base graph type: grid or octigrid")
	root.Flags().IntVar(&timeLim, "time-lim", 60, "ILP time limit in seconds")
	root.Flags().StringVar(&solverStr, "solver", "", "ILP back-end identifier")
	root.Flags().StringVar(&obstaclesPath, "obstacles", "", "JSON file with forbidden polygons")
	root.Flags().Uint64Var(&seed, "seed", 0, "random seed for retry shuffles")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose progress output")

	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.err)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func exitErr(code int, err error) error {
	return &exitError{code: code, err: err}
}

func readObstacles(path string) ([][]geo.Point, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rings [][][]float64
	if err := json.Unmarshal(raw, &rings); err != nil {
		return nil, err
	}
	out := [][]geo.Point{}
	for _, ring := range rings {
		poly := []geo.Point{}
		for _, p := range ring {
			if len(p) != 2 {
				return nil, errors.New("obstacle points must be [x, y] pairs")
			}
			poly = append(poly, geo.NewPoint(p[0], p[1]))
		}
		if len(poly) >= 3 {
			out = append(out, poly)
		}
	}
	return out, nil
}

func applyFileConfig(cfg *octilinearizer.Config, fc *fileConfig, timeLim *int, solverStr *string) {
	if fc.GridSize > 0 {
		cfg.GridSize = fc.GridSize
	}
	if fc.BorderRad > 0 {
		cfg.BorderRad = fc.BorderRad
	}
	if fc.MaxGrDist > 0 {
		cfg.MaxGrDist = fc.MaxGrDist
	}
	if fc.Deg2Heur != nil {
		cfg.Deg2Heur = *fc.Deg2Heur
	}
	if fc.RestrLocSearch != nil {
		cfg.RestrLocSearch = *fc.RestrLocSearch
	}
	if fc.EnfGeoPen > 0 {
		cfg.EnfGeoPen = fc.EnfGeoPen
	}
	if fc.BaseGraphType == "grid" {
		cfg.BaseGraphType = basegraph.Grid
	}
	if fc.Penalties != nil {
		cfg.Pens = *fc.Penalties
	}
	if fc.TimeLim > 0 {
		*timeLim = fc.TimeLim
	}
	if fc.SolverStr != "" {
		*solverStr = fc.SolverStr
	}
}
