package bisbm

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

var (
	// ErrInvalidGroupCount is returned when a or b is not positive
	ErrInvalidGroupCount = errors.New("group counts must be positive")
	// ErrPartitionMismatch is returned when a partition does not fit the graph or group ranges
	ErrPartitionMismatch = errors.New("partition does not match graph")
	// ErrNilRandom is returned when no random source is supplied to the initializer
	ErrNilRandom = errors.New("random source is required")
	// ErrInvalidConfig is returned for configuration values Run cannot use
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NegInf is the score of an undefined block or an illegal switch
var NegInf = math.Inf(-1)

// Graph is the read-only view of a bipartite graph the optimizer needs.
// Type(v) == false marks a type-0 node.
type Graph interface {
	NumNodes() int
	Type(v int) bool
	Connected(u, v int) bool
	Degree(v int) int
	// Neighbors returns the distinct neighbors of v
	Neighbors(v int) []int
}

// Partition maps node index to group index. Type-0 nodes use groups
// [0, a) and type-1 nodes use groups [a, a+b).
type Partition []int

// Result is the outcome of a full optimization run
type Result struct {
	RunID        string        `json:"run_id"`
	Partition    Partition     `json:"partition"`
	Labels       []string      `json:"labels,omitempty"`
	Score        LogLikelihood `json:"score"`
	InitialScore LogLikelihood `json:"initial_score"`
	GroupsA      int           `json:"groups_a"`
	GroupsB      int           `json:"groups_b"`
	Converged    bool          `json:"converged"`
	Blocks       []Block       `json:"blocks"`
	Statistics   Statistics    `json:"statistics"`
}

// Block summarizes one (type-0 group, type-1 group) pair of the final partition
type Block struct {
	R     int           `json:"r"`
	S     int           `json:"s"`
	Edges int           `json:"edges"`
	DegR  int           `json:"deg_r"`
	DegS  int           `json:"deg_s"`
	Term  LogLikelihood `json:"term"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	Rounds      int          `json:"rounds"`
	TotalMoves  int          `json:"total_moves"`
	Evaluations int64        `json:"evaluations"`
	RuntimeMS   int64        `json:"runtime_ms"`
	RoundStats  []RoundStats `json:"round_stats"`
}

// RoundStats contains the statistics of one sweep
type RoundStats struct {
	Round        int           `json:"round"`
	InitialScore LogLikelihood `json:"initial_score"`
	SweepScore   LogLikelihood `json:"sweep_score"`
	BestStep     int           `json:"best_step"`
	Accepted     bool          `json:"accepted"`
	Evaluations  int64         `json:"evaluations"`
	RuntimeMS    int64         `json:"runtime_ms"`
}

// Step records one committed switch of a sweep
type Step struct {
	Step      int           `json:"step"`
	Vertex    int           `json:"vertex"`
	FromGroup int           `json:"from_group"`
	ToGroup   int           `json:"to_group"`
	Score     LogLikelihood `json:"score"`
}

// SweepResult is the best partition seen during one sweep
type SweepResult struct {
	Partition   Partition     `json:"partition"`
	Score       LogLikelihood `json:"score"`
	BestStep    int           `json:"best_step"` // -1 when no step beat negative infinity
	Steps       []Step        `json:"steps"`
	Evaluations int64         `json:"evaluations"`
}

// LogLikelihood is a score that encodes negative infinity as the JSON string "-Inf"
type LogLikelihood float64

// MarshalJSON implements json.Marshaler
func (l LogLikelihood) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(l), -1) {
		return []byte(`"-Inf"`), nil
	}
	return []byte(strconv.FormatFloat(float64(l), 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (l *LogLikelihood) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "-Inf" {
			return errors.New("invalid log-likelihood " + strconv.Quote(s))
		}
		*l = LogLikelihood(NegInf)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*l = LogLikelihood(f)
	return nil
}
