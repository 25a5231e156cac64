package bisbm

// Sweep moves every node of p exactly once. Each step commits the best
// switch available among the nodes not yet moved, even when it lowers the
// score, and the sweep returns the best partition seen after any step.
// p must satisfy the group ranges of a and b; it is not modified.
func Sweep(p Partition, a, b int, g Graph) SweepResult {
	return sweep(p, a, b, g, ScoringFull, nil)
}

// SweepWith is Sweep with an explicit scoring strategy
func SweepWith(p Partition, a, b int, g Graph, scoring Scoring) SweepResult {
	return sweep(p, a, b, g, scoring, nil)
}

func sweep(p Partition, a, b int, g Graph, scoring Scoring, onStep func(Step)) SweepResult {
	n := len(p)
	work := p.Clone()
	scorer := newSwitchScorer(scoring, work, a, b, g)
	used := make([]bool, n)

	result := SweepResult{
		Partition: p.Clone(),
		Score:     LogLikelihood(NegInf),
		BestStep:  -1,
		Steps:     make([]Step, 0, n),
	}

	for step := 0; step < n; step++ {
		v, group, score, evaluations := selectBestSwitch(scorer, work, used, a, b, g)
		result.Evaluations += evaluations

		from := work[v]
		if group >= 0 {
			scorer.move(v, group)
		}
		used[v] = true

		s := Step{Step: step, Vertex: v, FromGroup: from, ToGroup: work[v], Score: LogLikelihood(score)}
		result.Steps = append(result.Steps, s)
		if onStep != nil {
			onStep(s)
		}

		if LogLikelihood(score) > result.Score {
			result.Score = LogLikelihood(score)
			result.Partition = work.Clone()
			result.BestStep = step
		}
	}

	return result
}

// selectBestSwitch scans every unused node and every legal target group and
// returns the first pair reaching the highest score. When nothing scores
// above negative infinity it falls back to the first unused node and its
// first legal group, or group -1 if that node has nowhere to go.
func selectBestSwitch(scorer switchScorer, work Partition, used []bool, a, b int, g Graph) (int, int, float64, int64) {
	bestVertex, bestGroup := -1, -1
	bestScore := NegInf
	var evaluations int64

	for v := range work {
		if used[v] {
			continue
		}

		currScore := NegInf
		currGroup := -1
		for group := 0; group < a+b; group++ {
			if group == work[v] || !inRange(g.Type(v), group, a, b) {
				continue
			}
			score := scorer.evaluate(v, group)
			evaluations++
			if score > currScore {
				currScore = score
				currGroup = group
			}
		}

		if currScore > bestScore {
			bestVertex = v
			bestGroup = currGroup
			bestScore = currScore
		}
	}

	if bestVertex < 0 {
		for v := range work {
			if !used[v] {
				return v, firstLegalGroup(work, v, a, b, g), NegInf, evaluations
			}
		}
	}
	return bestVertex, bestGroup, bestScore, evaluations
}

func firstLegalGroup(p Partition, v, a, b int, g Graph) int {
	for group := 0; group < a+b; group++ {
		if group != p[v] && inRange(g.Type(v), group, a, b) {
			return group
		}
	}
	return -1
}
