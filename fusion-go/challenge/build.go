package challenge

import (
	"io"
	"io/ioutil"
	"log"
	"os"
	"time"

	"github.com/fusionbench/fusionbench/fusion-golib/awsutil"
	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/fileutil"
	"github.com/fusionbench/fusionbench/fusion-golib/labarr"
	"github.com/fusionbench/fusionbench/fusion-golib/serialization"
)

// Artifacts records where one build wrote its outputs.
type Artifacts struct {
	TrainPath    string
	TestPath     string
	SolutionPath string
	ManifestPath string
	SummaryPath  string
	ReportPath   string
}

// Build runs the whole pipeline: split the shots, assemble the train and
// test sets, extract the solution, strip the target from the test set, and
// write every artifact under out (a local directory or s3:// prefix).
func Build(f Fetcher, cfg Config, out string) (*Artifacts, *Report, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	train, test := SplitShots(cfg)
	log.Printf("splitting %d shots: %d train, %d test", len(cfg.ShotIDs), len(train), len(test))

	trainDS, err := Assemble(f, cfg, train)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "assembling train split")
	}
	testDS, err := Assemble(f, cfg, test)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "assembling test split")
	}

	sol, err := BuildSolution(testDS, cfg)
	if err != nil {
		return nil, nil, err
	}

	arts := &Artifacts{
		TrainPath:    fileutil.Join(out, "train.nc"),
		TestPath:     fileutil.Join(out, "test.nc"),
		SolutionPath: fileutil.Join(out, "solution.csv"),
		ManifestPath: fileutil.Join(out, "manifest.csv"),
		SummaryPath:  fileutil.Join(out, "summary.csv"),
		ReportPath:   fileutil.Join(out, "report.json"),
	}

	if err := writeDataset(trainDS, arts.TrainPath); err != nil {
		return nil, nil, err
	}
	if err := writeDataset(testDS, arts.TestPath); err != nil {
		return nil, nil, err
	}
	if err := sol.WriteCSV(arts.SolutionPath); err != nil {
		return nil, nil, err
	}
	if err := WriteManifest(arts.ManifestPath, buildManifest(train, test, trainDS, testDS)); err != nil {
		return nil, nil, err
	}
	if err := WriteSummary(arts.SummaryPath, summarize(trainDS)); err != nil {
		return nil, nil, err
	}

	trainSteps, _ := trainDS.DimLen(cfg.TimeAxis)
	testSteps, _ := testDS.DimLen(cfg.TimeAxis)
	report := &Report{
		BuiltAt:    start.UTC(),
		DurationMS: time.Since(start).Milliseconds(),
		Config:     cfg,
		TrainShots: shotIDs(train),
		TestShots:  shotIDs(test),
		TrainSteps: trainSteps,
		TestSteps:  testSteps,
		Columns:    len(sol.Columns) - 1,
	}
	if err := serialization.Encode(arts.ReportPath, report); err != nil {
		return nil, nil, errors.Wrapf(err, "writing report")
	}

	log.Printf("wrote %s (%d rows) and %s (%d rows)", arts.TrainPath, trainSteps, arts.TestPath, testSteps)
	return arts, report, nil
}

func shotIDs(refs []ShotRef) []int64 {
	out := make([]int64, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func buildManifest(train, test []ShotRef, trainDS, testDS *labarr.Dataset) []ShotManifest {
	rows := make([]ShotManifest, 0, len(train)+len(test))
	counts := timeStepsByIndex(trainDS)
	for _, r := range train {
		rows = append(rows, ShotManifest{ShotID: r.ID, Split: "train", Index: r.Index, TimeSteps: counts[r.Index]})
	}
	counts = timeStepsByIndex(testDS)
	for _, r := range test {
		rows = append(rows, ShotManifest{ShotID: r.ID, Split: "test", Index: r.Index, TimeSteps: counts[r.Index]})
	}
	return rows
}

// writeDataset writes NetCDF to a local path directly; remote destinations go
// through a temp file because the NetCDF writer needs a seekable target.
func writeDataset(ds *labarr.Dataset, path string) error {
	if !awsutil.IsS3URI(path) {
		return labarr.WriteNetCDF(ds, path)
	}

	tmp, err := ioutil.TempFile("", "fusionbench-*.nc")
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := labarr.WriteNetCDF(ds, tmpPath); err != nil {
		return err
	}
	src, err := os.Open(tmpPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := fileutil.NewBufferedWriter(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.Wrapf(err, "uploading %s", path)
	}
	return dst.Close()
}
