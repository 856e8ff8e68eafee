// Command fourinarow-fit fits the move-choice model to participant data by
// Inverse Binomial Sampling with cross-validation over splits.
//
// Example usages:
//
//	Ingest a file and fit:                 fourinarow-fit -f input.csv -o output/
//	Generate 5 splits and cross-validate:  fourinarow-fit -f input.csv 5 -o output/
//	Generate 5 splits and terminate:       fourinarow-fit -f input.csv 5 -s -o output/
//	Read splits back and cross-validate:   fourinarow-fit -i output/ 5 -o output/
//	Process a single split on a cluster:   fourinarow-fit -i output/ 5 -o output/ -c 2
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fourbynine/fourinarow/internal/fit"
	"github.com/fourbynine/fourinarow/internal/parse"
	"github.com/fourbynine/fourinarow/internal/storage"
)

var (
	participantFile = flag.String("f", "", "participant data file to ingest; an optional trailing argument gives the split count")
	inputDir        = flag.String("i", "", "directory containing pre-split groups named [1-n].csv; the trailing argument gives the split count")
	outputDir       = flag.String("o", "./", "directory to output results to")
	splitsOnly      = flag.Bool("s", false, "terminate after generating splits")
	verbose         = flag.Bool("v", false, "print extra debugging info")
	clusterSplit    = flag.Int("c", 0, "only process the given split (1-based); requires -i")
	subsampleSize   = flag.Int("r", 0, "evaluate a random subsample of this size per optimizer probe")
	workers         = flag.Int("t", 16, "worker count for the IBS pool")
	seed            = flag.Uint64("seed", 0, "random seed; 0 derives one from the clock")
)

func main() {
	flag.Parse()
	// The split count may appear between flags; collect positionals and
	// keep parsing what follows them.
	var positionals []string
	for flag.NArg() > 0 {
		positionals = append(positionals, flag.Arg(0))
		if err := flag.CommandLine.Parse(flag.Args()[1:]); err != nil {
			os.Exit(2)
		}
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if err := run(log, positionals); err != nil {
		log.Error().Err(err).Msg("fit failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, positionals []string) error {
	if *participantFile != "" && *inputDir != "" {
		return fmt.Errorf("can't specify both -f and -i")
	}
	if *participantFile == "" && *inputDir == "" {
		return fmt.Errorf("either -f or -i must be specified")
	}
	if *clusterSplit != 0 && *participantFile != "" {
		return fmt.Errorf("-c cannot be used with -f; pre-split with -s first")
	}
	if len(positionals) > 1 {
		return fmt.Errorf("at most one positional argument (the split count) is accepted")
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(runSeed, runSeed^0x9e3779b97f4a7c15))

	splitCount := 1
	if len(positionals) == 1 {
		n, err := strconv.Atoi(positionals[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid split count %q", positionals[0])
		}
		splitCount = n
	} else if *inputDir != "" {
		return fmt.Errorf("-i requires a split count")
	}

	var (
		groups    [][]parse.Observation
		inputPath string
	)
	if *participantFile != "" {
		inputPath = *participantFile
		obs, skipped, err := parse.ParseParticipantFile(inputPath, 1, "1")
		if err != nil {
			return err
		}
		reportSkipped(log, inputPath, skipped)
		if len(obs) == 0 {
			return fmt.Errorf("no valid observations in %s", inputPath)
		}
		log.Info().Int("observations", len(obs)).Str("file", inputPath).Msg("ingested participant file")
		groups = fit.GenerateSplits(obs, splitCount, rng)
	} else {
		inputPath = *inputDir
		for i := 1; i <= splitCount; i++ {
			path := filepath.Join(*inputDir, strconv.Itoa(i)+".csv")
			log.Info().Str("split", path).Msg("ingesting split")
			obs, skipped, err := parse.ParseParticipantFile(path, i, strconv.Itoa(i))
			if err != nil {
				return err
			}
			reportSkipped(log, path, skipped)
			groups = append(groups, obs)
		}
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		return err
	}

	// Only output splits if we generated new ones to output.
	if *participantFile != "" {
		for i, group := range groups {
			path := filepath.Join(*outputDir, strconv.Itoa(i+1)+".csv")
			log.Info().Str("split", path).Msg("writing split")
			if err := writeSplit(path, group); err != nil {
				return err
			}
		}
	}
	if *splitsOnly {
		return nil
	}

	checkpointDir, err := storage.CheckpointDir(*outputDir)
	if err != nil {
		return err
	}
	store, err := storage.Open(checkpointDir)
	if err != nil {
		return err
	}
	defer store.Close()

	total := 0
	for _, g := range groups {
		total += len(g)
	}
	if err := store.SaveRunInfo(storage.RunInfo{
		InputPath:    inputPath,
		SplitCount:   len(groups),
		Observations: total,
		StartedAt:    time.Now(),
	}); err != nil {
		return err
	}

	cfg := fit.DefaultConfig()
	cfg.Workers = *workers
	cfg.SubsampleSize = *subsampleSize
	cfg.Seed = runSeed

	start, end := 0, len(groups)
	if *clusterSplit != 0 {
		if *clusterSplit < 1 || *clusterSplit > len(groups) {
			return fmt.Errorf("cluster split %d out of range [1, %d]", *clusterSplit, len(groups))
		}
		start = *clusterSplit - 1
		end = start + 1
	}

	for i := start; i < end; i++ {
		split := i + 1
		if done, err := store.IsSplitDone(split); err != nil {
			return err
		} else if done {
			log.Info().Int("split", split).Msg("split already checkpointed; skipping")
			continue
		}
		log.Info().Int("split", split).Int("of", len(groups)).Msg("cross validating split against the others")

		fitter := fit.NewFitter(cfg, log)
		result, llTest, err := fitter.CrossValidate(context.Background(), groups, i)
		if err != nil {
			return fmt.Errorf("split %d: %w", split, err)
		}

		if err := writeFloats(filepath.Join(*outputDir, fmt.Sprintf("params%d.csv", split)), result.Params, ","); err != nil {
			return err
		}
		if err := writeFloats(filepath.Join(*outputDir, fmt.Sprintf("lltrain%d.csv", split)), result.LLTrain, ","); err != nil {
			return err
		}
		if err := writeFloats(filepath.Join(*outputDir, fmt.Sprintf("lltest%d.csv", split)), llTest, " "); err != nil {
			return err
		}
		if err := store.SaveSplitResult(storage.SplitResult{
			Split:   split,
			Params:  result.Params,
			LLTrain: result.LLTrain,
			LLTest:  llTest,
		}); err != nil {
			return err
		}
		log.Info().Int("split", split).Floats64("params", result.Params).Msg("split finished")
	}
	return nil
}

func reportSkipped(log zerolog.Logger, path string, skipped []error) {
	for _, err := range skipped {
		log.Warn().Str("file", path).Err(err).Msg("skipping malformed record")
	}
}

func writeSplit(path string, obs []parse.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return parse.WriteObservationCSV(f, obs)
}

func writeFloats(path string, values []float64, sep string) error {
	fields := make([]string, 0, len(values))
	for _, v := range values {
		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return os.WriteFile(path, []byte(strings.Join(fields, sep)+"\n"), 0o644)
}
