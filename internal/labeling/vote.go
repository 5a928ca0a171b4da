package labeling

import "sort"

// Prediction is one sub-token prediction returned by the model.
type Prediction struct {
	WordIndex int `json:"word_index"`
	LabelID   int `json:"label_id"`
}

// vote resolves sub-token predictions into one label id per word. The most
// frequent id wins and ties go to the smallest id. Predictions for indexes
// outside [0, words) are ignored.
func vote(preds []Prediction, words int) map[int]int {
	counts := make(map[int]map[int]int)
	for _, p := range preds {
		if p.WordIndex < 0 || p.WordIndex >= words {
			continue
		}
		if counts[p.WordIndex] == nil {
			counts[p.WordIndex] = make(map[int]int)
		}
		counts[p.WordIndex][p.LabelID]++
	}

	out := make(map[int]int, len(counts))
	for idx, byID := range counts {
		best, bestCount := 0, -1
		for id, n := range byID {
			if n > bestCount || (n == bestCount && id < best) {
				best, bestCount = id, n
			}
		}
		out[idx] = best
	}
	return out
}

// vocabulary lists the label names ordered by id.
func vocabulary(id2label map[int]string) []string {
	ids := make([]int, 0, len(id2label))
	for id := range id2label {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id2label[id]
	}
	return out
}
