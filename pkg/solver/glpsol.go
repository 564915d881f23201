package solver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// glpsolSolver shells out to the GLPK standalone solver. The binary is an
// external collaborator, absence surfaces as ErrSolverUnavailable.
type glpsolSolver struct{}

func (s *glpsolSolver) Solve(ctx context.Context, m *Model, timeLim time.Duration) (*Result, error) {
	bin, err := exec.LookPath("glpsol")
	if err != nil {
		return nil, fmt.Errorf("%w: glpsol not in PATH", ErrSolverUnavailable)
	}

	dir, err := os.MkdirTemp("", "magga-ilp")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")

	f, err := os.Create(lpPath)
	if err != nil {
		return nil, err
	}
	if err := writeLP(f, m); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()

	args := []string{"--lp", lpPath, "-o", solPath}
	if timeLim > 0 {
		args = append(args, "--tmlim", strconv.Itoa(int(timeLim.Seconds())))
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: glpsol failed: %v", ErrSolverUnavailable, err)
	}

	return parseSolution(solPath, m)
}

// parseSolution reads the plain text solution report of glpsol.
func parseSolution(path string, m *Model) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &Result{
		Status: Optimal,
		Values: make([]float64, len(m.Vars)),
	}

	names := make(map[string]int, len(m.Vars))
	for i, v := range m.Vars {
		names[varName(i, v)] = i
	}

	inColumns := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()

		if strings.HasPrefix(line, "Status:") {
			switch {
			case strings.Contains(line, "INFEASIBLE"), strings.Contains(line, "UNDEFINED"):
				return nil, ErrInfeasible
			case strings.Contains(line, "OPTIMAL"):
				res.Status = Optimal
			default:
				res.Status = Feasible
			}
			continue
		}
		if strings.HasPrefix(line, "Objective:") {
			fields := strings.Fields(line)
			for i, fl := range fields {
				if fl == "=" && i+1 < len(fields) {
					res.Objective, _ = strconv.ParseFloat(fields[i+1], 64)
				}
			}
			continue
		}
		if strings.Contains(line, "Column name") {
			inColumns = true
			continue
		}
		if !inColumns {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		idx, ok := names[fields[1]]
		if !ok {
			continue
		}
		// activity column: "No. Column name St Activity ..." for MIPs the
		// status marker is absent on integer columns
		for _, fl := range fields[2:] {
			if v, err := strconv.ParseFloat(fl, 64); err == nil {
				res.Values[idx] = v
				break
			}
		}
	}
	return res, sc.Err()
}
