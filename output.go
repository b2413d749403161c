package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mgutz/ansi"
)

// Output renders progress and final statistics. Human mode prints as it
// goes; JSON mode collects everything and marshals once at exit.
type Output interface {
	progress(s string)
	report(s string)
	reportError(s string)
	printBreakdown(b *Breakdown)
	printWriteTotals(t *WriteTotals)
	printAttrTotals(t *AttrTotals)
	finish()
}

func p(s string) {
	config.output.progress(s)
}

type HumanOutput struct{}

func newHumanOutput() *HumanOutput {
	return &HumanOutput{}
}

func (o *HumanOutput) progress(s string) {
	fmt.Print(s)
}

func (o *HumanOutput) report(s string) {
	fmt.Println(s)
}

func (o *HumanOutput) reportError(s string) {
	fmt.Fprintln(os.Stderr, ansi.Color("Error:", "red+h"), s)
}

func (o *HumanOutput) printBreakdown(b *Breakdown) {
	if b.Count == 0 {
		return
	}
	fmt.Println(ansi.Color("Latency breakdown", "blue+h"))
	fmt.Printf("min latency %g ms\n", durationMs(b.Min))
	fmt.Printf("max latency %g ms\n", durationMs(b.Max))
	for _, bucket := range b.Buckets {
		barsize := bucket.Count * maxBarSize / b.MaxCount
		bar := strings.Repeat("#", barsize) + strings.Repeat(" ", maxBarSize-barsize)
		fmt.Printf(">=%5g ms: %3d%% %s cnt=%d\n",
			float64(bucket.LowerNs)/1e6, bucket.Count*100/b.Count, bar, bucket.Count)
	}
	fmt.Printf("Average iops: %g\n", b.AvgIops)
	fmt.Printf("Average latency: %g ms\n", b.AvgLatencyMs)
	fmt.Println("Total ops:", b.Count)
	if b.Threads > 1 {
		fmt.Printf("iops per thread: %g\n", b.PerThreadIops)
	}
}

func (o *HumanOutput) printWriteTotals(t *WriteTotals) {
	fmt.Printf("Wrote %s in %v, at a rate of %s/s and %d iops\n",
		formatBytes(t.Bytes), t.Elapsed, formatBytes(t.Rate), t.Iops)
}

func (o *HumanOutput) printAttrTotals(t *AttrTotals) {
	fmt.Println("***************************************")
	fmt.Println("total time:", t.Elapsed)
	fmt.Println("number of k-v:", t.Entries)
	fmt.Println("per time of k-v:", t.PerOp)
	fmt.Println("key.size:", t.KeySize)
	fmt.Println("value.size:", t.ValueSize)
	fmt.Println("threads:", t.Threads)
	fmt.Println("***************************************")
}

func (o *HumanOutput) finish() {}

// Results is the full JSON-mode report.
type Results struct {
	Reports    []string     `json:"reports,omitempty"`
	Errors     []string     `json:"errors,omitempty"`
	Breakdowns []*Breakdown `json:"breakdowns,omitempty"`
	Write      *WriteTotals `json:"write,omitempty"`
	Attr       *AttrTotals  `json:"attr,omitempty"`
}

type JSONOutput struct {
	results Results
}

func (o *JSONOutput) progress(s string) {}

func (o *JSONOutput) report(s string) {
	o.results.Reports = append(o.results.Reports, s)
}

func (o *JSONOutput) reportError(s string) {
	o.results.Errors = append(o.results.Errors, s)
}

func (o *JSONOutput) printBreakdown(b *Breakdown) {
	o.results.Breakdowns = append(o.results.Breakdowns, b)
}

func (o *JSONOutput) printWriteTotals(t *WriteTotals) {
	o.results.Write = t
}

func (o *JSONOutput) printAttrTotals(t *AttrTotals) {
	o.results.Attr = t
}

func (o *JSONOutput) finish() {
	b, err := json.Marshal(&o.results)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return
	}
	fmt.Println(string(b))
}
