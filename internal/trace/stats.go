package trace

import "sort"

// RTTStats calculates RTT statistics from a slice of RTT values.
// Negative values are treated as timeouts and excluded from calculations.
func RTTStats(rtts []float64) (avg, min, max float64) {
	var valid []float64
	for _, rtt := range rtts {
		if rtt >= 0 {
			valid = append(valid, rtt)
		}
	}

	if len(valid) == 0 {
		return 0, 0, 0
	}

	min = valid[0]
	max = valid[0]
	sum := 0.0

	for _, rtt := range valid {
		sum += rtt
		if rtt < min {
			min = rtt
		}
		if rtt > max {
			max = rtt
		}
	}

	avg = sum / float64(len(valid))
	return
}

// LossPercent calculates packet loss percentage.
// Negative RTT values indicate timeouts.
func LossPercent(rtts []float64) float64 {
	if len(rtts) == 0 {
		return 0
	}

	timeouts := 0
	for _, rtt := range rtts {
		if rtt < 0 {
			timeouts++
		}
	}

	return float64(timeouts) / float64(len(rtts)) * 100
}

// Summarize calculates aggregate statistics for hops.
func Summarize(hops []Hop) Summary {
	summary := Summary{
		TotalHops: len(hops),
	}

	var totalLoss float64
	for _, hop := range hops {
		if hop.Responded() {
			summary.Responding++
		}
		totalLoss += hop.LossPercent
	}

	if len(hops) > 0 {
		summary.PacketLossPercent = totalLoss / float64(len(hops))
	}

	for i := len(hops) - 1; i >= 0; i-- {
		if hops[i].Responded() && hops[i].AvgRTT > 0 {
			summary.TotalTimeMs = hops[i].AvgRTT
			break
		}
	}

	return summary
}

// Normalize orders hops by number, drops non-positive numbers and keeps
// only the first hop seen for each number. When dest is non-empty, hops
// after the first one that answered from dest are dropped.
func Normalize(hops []Hop, dest string) []Hop {
	seen := make(map[int]bool, len(hops))
	out := make([]Hop, 0, len(hops))
	for _, hop := range hops {
		if hop.Number <= 0 || seen[hop.Number] {
			continue
		}
		seen[hop.Number] = true
		out = append(out, hop)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})

	if dest == "" {
		return out
	}
	for i, hop := range out {
		if hop.IP == dest {
			return out[:i+1]
		}
	}
	return out
}
