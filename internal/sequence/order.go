package sequence

import (
	"math"
	"sort"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/planner"
)

// IdealJump is how many lines a racetrack pattern skips ahead so the
// U-turn diameter fits the line spacing.
func IdealJump(turnRadius, spacing float64) int {
	if spacing <= 1 {
		return 1
	}
	jump := int(math.Round(2 * turnRadius / spacing))
	if jump < 1 {
		return 1
	}
	return jump
}

// lineSpacing estimates the spacing between adjacent lines as the median
// distance between consecutive line start points in number order.
func lineSpacing(lines []planner.SurveyLine) float64 {
	if len(lines) < 2 {
		return 0
	}
	sorted := make([]planner.SurveyLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 0; i+1 < len(sorted); i++ {
		gaps = append(gaps, sorted[i].Start.Distance(sorted[i+1].Start))
	}
	sort.Float64s(gaps)
	return gaps[len(gaps)/2]
}

// racetrackOrder interleaves lines so consecutive acquisitions are jump
// lines apart: from the current line it prefers +jump, then -jump, then
// the nearest unvisited line by index.
func racetrackOrder(lines []planner.SurveyLine, firstLine, jump int) []int {
	nums := sortedNumbers(lines)
	indexOf := make(map[int]int, len(nums))
	for i, n := range nums {
		indexOf[n] = i
	}

	visited := make([]bool, len(nums))
	order := make([]int, 0, len(nums))

	cur := indexOf[firstLine]
	visited[cur] = true
	order = append(order, nums[cur])

	for len(order) < len(nums) {
		next := -1
		if cur+jump < len(nums) && !visited[cur+jump] {
			next = cur + jump
		} else if cur-jump >= 0 && !visited[cur-jump] {
			next = cur - jump
		} else {
			// Nearest unvisited index breaks the interleave deadlock.
			bestDist := len(nums) + 1
			for i, seen := range visited {
				if seen {
					continue
				}
				if d := abs(i - cur); d < bestDist {
					bestDist = d
					next = i
				}
			}
		}
		visited[next] = true
		order = append(order, nums[next])
		cur = next
	}
	return order
}

// teardropOrder greedily takes the nearest remaining line, which keeps the
// loop-back turns short when line spacing is below the turn diameter.
func teardropOrder(lines []planner.SurveyLine, firstLine int) []int {
	byNumber := make(map[int]planner.SurveyLine, len(lines))
	remaining := make(map[int]bool, len(lines))
	for _, l := range lines {
		byNumber[l.Number] = l
		remaining[l.Number] = true
	}

	order := []int{firstLine}
	delete(remaining, firstLine)
	cur := byNumber[firstLine]

	for len(remaining) > 0 {
		best := -1
		bestDist := math.MaxFloat64
		for num := range remaining {
			d := cur.Start.Distance(byNumber[num].Start)
			if d < bestDist || (d == bestDist && (best == -1 || num < best)) {
				bestDist = d
				best = num
			}
		}
		order = append(order, best)
		delete(remaining, best)
		cur = byNumber[best]
	}
	return order
}

func sortedNumbers(lines []planner.SurveyLine) []int {
	nums := make([]int, 0, len(lines))
	for _, l := range lines {
		nums = append(nums, l.Number)
	}
	sort.Ints(nums)
	return nums
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
