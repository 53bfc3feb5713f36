/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package indiff

import (
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
)

// minParallelLanes is the number of lanes below which lanes are
// processed on the calling goroutine.
const minParallelLanes = 64

// LaneFunc computes the output lane dst from the input lane src.
type LaneFunc func(dst, src []float64)

// MapLanes applies fn to every one-dimensional lane of data along axis and
// returns a new array whose length along axis is outLen. Lanes are
// independent, so they are processed concurrently by up to workers
// goroutines; workers <= 0 means runtime.GOMAXPROCS(0).
func MapLanes(data *sparse.DenseArray, axis, outLen, workers int, fn LaneFunc) *sparse.DenseArray {
	shape := append([]int(nil), data.Shape...)
	outer, n, inner := stride(shape, axis)
	shape[axis] = outLen
	out := sparse.ZerosDense(shape...)
	nlanes := outer * inner

	nprocs := workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	if nlanes < minParallelLanes || nprocs == 1 {
		nprocs = 1
	}
	if nprocs > nlanes {
		nprocs = nlanes
	}

	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			src := make([]float64, n)
			dst := make([]float64, outLen)
			for ii := pp; ii < nlanes; ii += nprocs {
				o, k := ii/inner, ii%inner
				base := o*n*inner + k
				for i := range src {
					src[i] = data.Elements[base+i*inner]
				}
				fn(dst, src)
				base = o*outLen*inner + k
				for i, v := range dst {
					out.Elements[base+i*inner] = v
				}
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()
	return out
}
