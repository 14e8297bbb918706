package fuzzy

import "math"

// qwertyPosition models the physical QWERTY layout as (row, col) coordinates so
// adjacency can be scored by Euclidean key distance (spec §4.5 "keyboard").
var qwertyPosition = buildQwertyPositions()

func buildQwertyPositions() map[rune][2]float64 {
	rows := []string{
		"qwertyuiop",
		"asdfghjkl",
		"zxcvbnm",
	}
	pos := make(map[rune][2]float64)
	for r, row := range rows {
		// Stagger each row slightly, mirroring the physical keyboard offset.
		offset := float64(r) * 0.5
		for c, ch := range row {
			pos[ch] = [2]float64{float64(c) + offset, float64(r)}
		}
	}
	return pos
}

const keyboardAdjacentDistance = 1.5

// keyboardMatcher treats substitutions between physically adjacent keys as
// likely typos, scored by Euclidean key distance; length differences of at
// most one are additionally considered via single insertion/deletion
// alignment (spec §4.5 "keyboard").
type keyboardMatcher struct{}

func (k *keyboardMatcher) Name() string { return "keyboard" }

func (k *keyboardMatcher) Match(token string, vocabulary []string, opts Options) []Candidate {
	maxDist := opts.KeyboardMaxDistance
	if maxDist <= 0 {
		maxDist = keyboardAdjacentDistance
	}

	var cands []Candidate
	for _, term := range vocabulary {
		if term == token {
			continue
		}
		if score, ok := keyboardSimilarity(token, term, maxDist); ok {
			cands = append(cands, Candidate{Term: term, Score: score})
		}
	}

	cands = sortByScoreDesc(cands)
	if max := opts.MaxVariations; max > 0 && len(cands) > max {
		cands = cands[:max]
	}
	return cands
}

func keyDistance(a, b rune) float64 {
	pa, okA := qwertyPosition[a]
	pb, okB := qwertyPosition[b]
	if !okA || !okB {
		if a == b {
			return 0
		}
		return math.Inf(1)
	}
	dx, dy := pa[0]-pb[0], pa[1]-pb[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// keyboardSimilarity compares two equal-length strings key-by-key, or
// (when lengths differ by exactly one) the best single-insertion/deletion
// alignment between them.
func keyboardSimilarity(a, b string, maxDist float64) (float64, bool) {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == len(rb) {
		return sameLengthKeyboardScore(ra, rb, maxDist)
	}
	if abs(len(ra)-len(rb)) != 1 {
		return 0, false
	}

	longer, shorter := ra, rb
	if len(rb) > len(ra) {
		longer, shorter = rb, ra
	}
	// Try deleting each position of longer and comparing to shorter.
	best := 0.0
	found := false
	for skip := 0; skip < len(longer); skip++ {
		aligned := make([]rune, 0, len(shorter))
		aligned = append(aligned, longer[:skip]...)
		aligned = append(aligned, longer[skip+1:]...)
		if score, ok := sameLengthKeyboardScore(aligned, shorter, maxDist); ok {
			found = true
			if score > best {
				best = score
			}
		}
	}
	return best, found
}

func sameLengthKeyboardScore(a, b []rune, maxDist float64) (float64, bool) {
	if len(a) == 0 {
		return 0, false
	}
	total := 0.0
	typoCount := 0
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		d := keyDistance(a[i], b[i])
		if d > maxDist {
			return 0, false
		}
		total += d
		typoCount++
	}
	if typoCount == 0 {
		return 1.0, true
	}
	avgDist := total / float64(typoCount)
	score := 1.0 - (avgDist/maxDist)*0.5
	return score, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
