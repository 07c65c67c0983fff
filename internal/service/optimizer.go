package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/llm"
	"dispatch/internal/logger"
	"dispatch/internal/routing"
)

// Generator produces schema-constrained JSON answers.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *llm.Schema, out any) error
}

// StopOptimizer orders the stops of a ride. The returned slice is a
// permutation of stop indices with the pickup (0) first. matrix holds
// travel minutes between stops.
type StopOptimizer interface {
	Optimize(ctx context.Context, stops []string, matrix [][]float64) []int
}

var (
	_ StopOptimizer = HeuristicOptimizer{}
	_ StopOptimizer = (*AssistedOptimizer)(nil)
)

// HeuristicOptimizer orders stops by nearest neighbour from the pickup.
type HeuristicOptimizer struct{}

// Optimize repeatedly moves to the closest unvisited destination. When no
// usable cost leads out of the current stop, the remaining destinations
// follow in their original order.
func (HeuristicOptimizer) Optimize(_ context.Context, stops []string, matrix [][]float64) []int {
	n := len(stops)
	if n == 0 {
		return nil
	}
	if !squareMatrix(matrix, n) {
		return identityOrder(n)
	}

	order := make([]int, 1, n)
	visited := make([]bool, n)
	visited[0] = true

	current := 0
	for len(order) < n {
		next, best := -1, math.Inf(1)
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			cost := matrix[current][j]
			if routing.Minutes.Missing(cost) {
				continue
			}
			if cost < best {
				next, best = j, cost
			}
		}
		if next < 0 {
			break
		}
		visited[next] = true
		order = append(order, next)
		current = next
	}

	for j := 1; j < n; j++ {
		if !visited[j] {
			order = append(order, j)
		}
	}
	return order
}

// AssistedOptimizer asks a language model for the visiting order and
// falls back to the original order when the answer is unusable.
type AssistedOptimizer struct {
	generator Generator
	log       *zap.Logger
}

// NewAssistedOptimizer creates an AssistedOptimizer.
func NewAssistedOptimizer(generator Generator, log *zap.Logger) *AssistedOptimizer {
	return &AssistedOptimizer{generator: generator, log: logger.OrNop(log)}
}

var orderSchema = &llm.Schema{
	Type: "OBJECT",
	Properties: map[string]*llm.Schema{
		"order": {
			Type:        "ARRAY",
			Description: "Destination indices in visiting order, pickup excluded",
			Items:       &llm.Schema{Type: "INTEGER"},
		},
	},
	Required: []string{"order"},
}

// Optimize returns the model's order, or the original order on any failure.
func (o *AssistedOptimizer) Optimize(ctx context.Context, stops []string, matrix [][]float64) []int {
	n := len(stops)
	if n < 3 {
		return identityOrder(n)
	}

	var resp struct {
		Order []int `json:"order"`
	}
	if err := o.generator.GenerateJSON(ctx, optimizationPrompt(stops, matrix), orderSchema, &resp); err != nil {
		o.log.Warn("assisted optimization failed, keeping original order", logger.Err(err))
		return identityOrder(n)
	}
	if !validDestinationOrder(resp.Order, n) {
		o.log.Warn("assisted optimization returned an invalid order, keeping original order",
			logger.String("order", fmt.Sprint(resp.Order)))
		return identityOrder(n)
	}

	return append([]int{0}, resp.Order...)
}

func optimizationPrompt(stops []string, matrix [][]float64) string {
	var b strings.Builder
	b.WriteString("You plan taxi routes. Stop 0 is the pickup and must stay first.\n")
	b.WriteString("Stops:\n")
	for i, s := range stops {
		fmt.Fprintf(&b, "%d: %s\n", i, domain.DisplayAddress(s))
	}

	rounded := make([][]int, len(matrix))
	for i, row := range matrix {
		rounded[i] = make([]int, len(row))
		for j, v := range row {
			rounded[i][j] = int(math.Round(v))
		}
	}
	m, _ := json.Marshal(rounded)
	fmt.Fprintf(&b, "Travel time matrix in minutes (row is origin, column is destination):\n%s\n", m)
	fmt.Fprintf(&b, "Return every destination index from 1 to %d exactly once, in the order that minimizes total travel time starting from stop 0.", len(stops)-1)
	return b.String()
}

// validDestinationOrder reports whether order is a permutation of 1..n-1.
func validDestinationOrder(order []int, n int) bool {
	if len(order) != n-1 {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 1 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func squareMatrix(matrix [][]float64, n int) bool {
	if len(matrix) != n {
		return false
	}
	for _, row := range matrix {
		if len(row) != n {
			return false
		}
	}
	return true
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}
