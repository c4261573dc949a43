package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/plan-systems/klog"

	"github.com/lamnet-systems/golam/golam"
	"github.com/lamnet-systems/golam/liblam"
)

var expmod = flag.String("expmod", "", "compute a^b mod m on the net engine, e.g. -expmod 100,100,31")

func main() {

	flag.Set("logtostderr", "true")
	flag.Set("v", "2")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	flag.Parse()

	if len(*expmod) > 0 {
		runExpMod(*expmod)
	} else {
		pathname := flag.Arg(0)
		go_gpython(pathname)
	}

	klog.Flush()
}

func runExpMod(arg string) {
	var a, b, m int
	if n, err := fmt.Sscanf(arg, "%d,%d,%d", &a, &b, &m); n != 3 || err != nil {
		klog.Fatalf("could not parse -expmod %q (want a,b,m)", arg)
	}
	if m <= 0 {
		klog.Fatalf("-expmod modulus must be positive")
	}

	startTime := time.Now()
	normal, stats, err := liblam.Normalize(golam.ExpMod(a, b, m))
	if err != nil {
		klog.Fatalf("normalize failed: %v", err)
	}
	elapsed := time.Since(startTime)

	result, err := golam.ChurchToInt(normal)
	if err != nil {
		klog.Fatalf("normal form is not a Church numeral: %v", err)
	}

	fmt.Printf("%d^%d mod %d = %d\n", a, b, m, result)
	fmt.Fprintf(os.Stderr, "%v elapsed, %d iterations, %d rewrites, %d beta, %d peak nodes\n",
		elapsed, stats.Iterations, stats.Rewrites, stats.BetaSteps, stats.PeakNodes)
}
