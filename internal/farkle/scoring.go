package farkle

// Score evaluates a set of dice values under the table scoring rules:
// a triple of 1s is worth 1000, a triple of any other face is worth
// face*100, and after triples are removed each leftover 1 is worth 100
// and each leftover 5 is worth 50. Everything else scores zero.
func Score(dice []int) int {
	var counts [7]int
	for _, d := range dice {
		if d >= 1 && d <= 6 {
			counts[d]++
		}
	}

	score := 0

	// Triples first, singles score only what remains.
	for v := 1; v <= 6; v++ {
		if counts[v] >= 3 {
			if v == 1 {
				score += 1000
			} else {
				score += v * 100
			}
			counts[v] -= 3
		}
	}

	score += counts[1] * 100
	score += counts[5] * 50

	return score
}

// IsFarkle reports whether none of the unheld dice can score.
func IsFarkle(dice [DiceCount]int, held [DiceCount]bool) bool {
	unheld := make([]int, 0, DiceCount)
	for i := 0; i < DiceCount; i++ {
		if !held[i] {
			unheld = append(unheld, dice[i])
		}
	}
	return Score(unheld) == 0
}

// validSelection reports whether replacing the current held array with
// next is a legal hold: at least one previously-unheld die becomes held,
// and every newly-selected die is either part of a complete triple or
// shows a 1 or a 5.
func validSelection(dice [DiceCount]int, held, next [DiceCount]bool) bool {
	var counts [7]int
	selected := 0
	for i := 0; i < DiceCount; i++ {
		if !held[i] && next[i] {
			counts[dice[i]]++
			selected++
		}
	}
	if selected == 0 {
		return false
	}

	for v := 1; v <= 6; v++ {
		for counts[v] >= 3 {
			counts[v] -= 3
		}
	}

	for v := 2; v <= 6; v++ {
		if v != 5 && counts[v] > 0 {
			return false
		}
	}
	return true
}
