package batch
import (
	"io"
	"fmt"
	"time"
	"strings"
	"text/tabwriter"
)

type Summary struct {
	Units		int
	Failed		int
	Total		time.Duration	// sum over units, not wall time
	Max		time.Duration
}

func Summarize( results []Result ) Summary {
	s := Summary{ Units: len(results) }
	for _, res := range results {
		if res.Err != nil {
			s.Failed++
		}
		s.Total += res.Elapsed
		if res.Elapsed > s.Max {
			s.Max = res.Elapsed
		}
	}
	return s
}

const barWidth = 40

// WriteReport prints one line per unit with a bar scaled to the slowest
// unit, followed by the totals.
func WriteReport( w io.Writer, op string, results []Result ) error {
	s := Summarize( results )
	tw := tabwriter.NewWriter( w, 0, 4, 2, ' ', 0 )
	fmt.Fprintf( tw, "unit\telapsed\tstatus\t\n" )
	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "FAILED: " + res.Err.Error()
		}
		bar := 0
		if s.Max > 0 {
			bar = int( int64(barWidth) * int64(res.Elapsed) / int64(s.Max) )
		}
		fmt.Fprintf( tw, "%d\t%v\t%s\t%s\n", res.Index, res.Elapsed.Round( time.Microsecond ),
			status, strings.Repeat( "#", bar ) )
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf( w, "Time to %s %d images: %v (%d failed, slowest %v)\n",
		op, s.Units, s.Total.Round( time.Microsecond ), s.Failed, s.Max.Round( time.Microsecond ) )
	return err
}
