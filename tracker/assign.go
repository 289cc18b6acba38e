package tracker

import (
	"errors"
	"math"
)

// solveAssignment finds the minimum cost perfect matching of a square cost
// matrix using the shortest augmenting path form of the Hungarian method
// with row and column potentials.  rowsol[i] is the column given to row i
// and colsol[j] the row given to column j.
func solveAssignment(cost [][]float64) (rowsol, colsol []int, err error) {

	n := len(cost)

	for _, row := range cost {
		if len(row) != n {
			return nil, nil, errors.New("cost matrix must be square")
		}
	}

	// 1-indexed working arrays, index 0 is a virtual column
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {

		p[0] = i
		j0 := 0

		minv := make([]float64, n+1)
		used := make([]bool, n+1)

		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0

			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}

				cur := cost[i0-1][j-1] - u[i0] - v[j]

				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}

				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 == 0 {
				return nil, nil, errors.New("cost matrix contains invalid values")
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1

			if p[j0] == 0 {
				break
			}
		}

		// walk the augmenting path back to the virtual column
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowsol = make([]int, n)
	colsol = make([]int, n)

	for j := 1; j <= n; j++ {
		rowsol[p[j]-1] = j - 1
		colsol[j-1] = p[j] - 1
	}

	return rowsol, colsol, nil
}

// linearAssignment matches rows to columns of a rows x cols cost matrix
// minimising total cost.  Any pairing that costs more than thresh is left
// unmatched; the matrix is padded with dummy rows and columns costing
// thresh/2 so leaving both sides unmatched is cheaper than such a pairing.
func linearAssignment(costMatrix [][]float32, rows, cols int,
	thresh float32) (matchesIdx [][2]int, unmatchRowIdx, unmatchColIdx []int, err error) {

	if rows == 0 || cols == 0 {
		for i := 0; i < rows; i++ {
			unmatchRowIdx = append(unmatchRowIdx, i)
		}
		for i := 0; i < cols; i++ {
			unmatchColIdx = append(unmatchColIdx, i)
		}
		return
	}

	n := rows + cols
	extended := make([][]float64, n)

	for i := range extended {
		extended[i] = make([]float64, n)

		for j := range extended[i] {
			switch {
			case i < rows && j < cols:
				extended[i][j] = float64(costMatrix[i][j])
			case i >= rows && j >= cols:
				extended[i][j] = 0
			default:
				extended[i][j] = float64(thresh) / 2
			}
		}
	}

	rowsol, colsol, err := solveAssignment(extended)

	if err != nil {
		return nil, nil, nil, err
	}

	for i := 0; i < rows; i++ {
		if rowsol[i] < cols {
			matchesIdx = append(matchesIdx, [2]int{i, rowsol[i]})
		} else {
			unmatchRowIdx = append(unmatchRowIdx, i)
		}
	}

	for j := 0; j < cols; j++ {
		if colsol[j] >= rows {
			unmatchColIdx = append(unmatchColIdx, j)
		}
	}

	return matchesIdx, unmatchRowIdx, unmatchColIdx, nil
}
