// hazardbench exercises a hazard-pointer Writer/Reader pair under load:
// one writer continuously republishes a counter while N reader
// goroutines continuously read it, then prints the write and read counts
// and the registry accounting once the run finishes.
package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/fmstephe/hzrd/pkg/hazard/cell"
)

var (
	readersFlag  = flag.Int("readers", 8, "number of concurrent reader goroutines")
	durationFlag = flag.Duration("duration", time.Second, "how long to run the benchmark")
)

func main() {
	flag.Parse()

	w := cell.NewWriter(0)
	defer w.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup

	counts := make([]uint64, *readersFlag)
	for i := 0; i < *readersFlag; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := w.MakeReader()
			defer r.Close()

			for {
				select {
				case <-stop:
					return
				default:
					r.Get()
					counts[i]++
				}
			}
		}(i)
	}

	writes := uint64(0)
	wg.Add(1)
	go func() {
		defer wg.Done()
		n := 0
		for {
			select {
			case <-stop:
				return
			default:
				n++
				w.Set(n)
				writes++
			}
		}
	}()

	time.Sleep(*durationFlag)
	close(stop)
	wg.Wait()

	total := uint64(0)
	for _, c := range counts {
		total += c
	}

	fmt.Printf("writes: %d\n", writes)
	fmt.Printf("reads:  %d across %d readers\n", total, *readersFlag)

	w.Reclaim()
	fmt.Printf("registry stats: %+v\n", w.RegistryStats())
}
