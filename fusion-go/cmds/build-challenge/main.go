package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/montanaflynn/stats"
	chart "github.com/wcharczuk/go-chart"

	"github.com/fusionbench/fusionbench/fusion-go/challenge"
	"github.com/fusionbench/fusionbench/fusion-go/mast"
	"github.com/fusionbench/fusionbench/fusion-golib/awsutil"
	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/fileutil"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
)

func fail(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func main() {
	args := struct {
		Out          string `arg:"required" help:"output directory or s3:// prefix"`
		BaseURL      string `help:"shot archive base URL"`
		Level        int    `help:"archive processing level (overrides the config file)"`
		Config       string `help:"YAML file overlaying the default build config"`
		OverrideJoin bool   `help:"take the first shot's non-time axes instead of validating them"`
		Plot         bool   `help:"render a mean-target overview next to the outputs"`
	}{
		BaseURL: mast.DefaultBaseURL,
		Level:   mast.DefaultLevel,
	}
	arg.MustParse(&args)

	cfg := challenge.DefaultConfig()
	if args.Config != "" {
		var err error
		cfg, err = challenge.LoadConfig(args.Config)
		fail(err)
	}
	cfg.Level = args.Level
	if args.OverrideJoin {
		cfg.OverrideJoin = true
	}

	start := time.Now()
	client := mast.NewClient(args.BaseURL, cfg.Level)
	arts, report, err := challenge.Build(client, cfg, args.Out)
	fail(err)

	if args.Plot {
		if awsutil.IsS3URI(args.Out) {
			log.Println("skipping plot: reading back NetCDF needs a local output directory")
		} else {
			fail(writeOverview(arts.TrainPath, fileutil.Join(args.Out, "psi-overview.png"), cfg))
		}
	}

	fmt.Printf("Done! took %v\n", time.Since(start))
	fmt.Printf("train: %d steps from shots %v\n", report.TrainSteps, report.TrainShots)
	fmt.Printf("test:  %d steps from shots %v\n", report.TestSteps, report.TestShots)
}

// writeOverview charts the per-step mean of the target variable from the
// written training set.
func writeOverview(trainPath, outPath string, cfg challenge.Config) error {
	ds, err := labarr.ReadNetCDF(trainPath)
	if err != nil {
		return err
	}
	target := ds.Var(cfg.TargetVar)
	if target == nil {
		return errors.Errorf("%s has no variable %s", trainPath, cfg.TargetVar)
	}
	rows := target.Shape[0]
	if rows == 0 {
		return errors.Errorf("%s is empty", trainPath)
	}
	samples := target.Size() / rows

	xs := make([]float64, 0, rows)
	ys := make([]float64, 0, rows)
	for r := 0; r < rows; r++ {
		finite := make([]float64, 0, samples)
		for _, v := range target.Values[r*samples : (r+1)*samples] {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				finite = append(finite, v)
			}
		}
		if len(finite) == 0 {
			continue
		}
		mean, _ := stats.Mean(finite)
		xs = append(xs, float64(r))
		ys = append(ys, mean)
	}
	if len(xs) == 0 {
		return errors.Errorf("%s has no finite %s values to plot", trainPath, cfg.TargetVar)
	}

	graph := chart.Chart{
		Title:      fmt.Sprintf("Mean %s per training time step", cfg.TargetVar),
		TitleStyle: chart.StyleShow(),
		XAxis: chart.XAxis{
			Name:      "time step",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
		},
		YAxis: chart.YAxis{
			Name:      cfg.TargetVar,
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    cfg.TargetVar,
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{Show: true, StrokeColor: chart.GetAlternateColor(0)},
			},
		},
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
