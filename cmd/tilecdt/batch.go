package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/erinpentecost/tilecdt/internal/config"
	"github.com/erinpentecost/tilecdt/internal/imageio"
	"github.com/erinpentecost/tilecdt/internal/tablefile"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/sync/errgroup"
)

type batchCmd struct {
	params    paramFlags
	jobs      int
	format    string
	summaries bool
}

func (c *batchCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "batch",
		Usage: "[flags] <input dir> <output dir>",
		Desc:  "Build a table for every decodable image in a directory.",
	}
}

func (c *batchCmd) RegisterFlags(fl *pflag.FlagSet) {
	c.params.register(fl)
	fl.IntVarP(&c.jobs, "jobs", "j", 4, "images processed at once")
	fl.StringVar(&c.format, "format", "", "output extension, .tcdt or an image format (default from config)")
	fl.BoolVar(&c.summaries, "summaries", false, "write a JSON summary next to each output")
}

func (c *batchCmd) Run(fl *pflag.FlagSet) {
	if fl.NArg() != 2 {
		fl.Usage()
		os.Exit(2)
	}
	params, err := c.params.resolve(fl)
	fail(err)
	if c.format != "" {
		params.OutputFormat = c.format
	}
	fail(runBatch(context.Background(), fl.Arg(0), fl.Arg(1), params, c.jobs, c.summaries))
}

type batchJob struct {
	In      string
	Out     string
	Summary string
}

// failureLog collects per-image errors so one bad file does not stop the
// rest of the batch.
type failureLog struct {
	mu     sync.Mutex
	failed map[string]error
}

func (l *failureLog) record(path string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failed == nil {
		l.failed = map[string]error{}
	}
	l.failed[path] = err
}

func (l *failureLog) err(total int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.failed) == 0 {
		return nil
	}
	paths := make([]string, 0, len(l.failed))
	for p := range l.failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		logf("Failed %q: %v\n", p, l.failed[p])
	}
	return fmt.Errorf("%d of %d images failed", len(l.failed), total)
}

// outputName derives the output file name for in. keepExt keeps the source
// extension so a.png and a.bmp do not share an output.
func outputName(in string, params config.Params, keepExt bool) string {
	ext := params.OutputFormat
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if params.Compress && !imageio.CanEncode(ext) && !strings.HasSuffix(ext, tablefile.CompressedExt) {
		ext += tablefile.CompressedExt
	}
	return stem(in, keepExt) + ext
}

func stem(path string, keepExt bool) string {
	base := filepath.Base(path)
	if keepExt {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func planBatch(inDir, outDir string, params config.Params, summaries bool) ([]*batchJob, error) {
	for _, dir := range []string{inDir, outDir} {
		if info, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("open directory %q: %w", dir, err)
		} else if !info.IsDir() {
			return nil, fmt.Errorf("%q is not a directory", dir)
		}
	}
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("read dirs in %q: %w", inDir, err)
	}

	var inputs []string
	stems := map[string]int{}
	for _, entry := range entries {
		if entry.IsDir() || !imageio.CanDecode(entry.Name()) {
			continue
		}
		inputs = append(inputs, entry.Name())
		stems[strings.ToLower(stem(entry.Name(), false))]++
	}

	jobs := []*batchJob{}
	for _, name := range inputs {
		keepExt := stems[strings.ToLower(stem(name, false))] > 1
		in := filepath.Join(inDir, name)
		job := &batchJob{
			In:  in,
			Out: filepath.Join(outDir, outputName(in, params, keepExt)),
		}
		if summaries {
			job.Summary = filepath.Join(outDir, stem(name, keepExt)+".json")
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func runBatch(ctx context.Context, inDir, outDir string, params config.Params, limit int, summaries bool) error {
	jobs, err := planBatch(inDir, outDir, params, summaries)
	if err != nil {
		return err
	}
	logf("Building %d tables...\n", len(jobs))

	var failures failureLog
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, limit))
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := buildOne(gctx, job.In, job.Out, job.Summary, params, nil); err != nil {
				failures.record(job.In, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return failures.err(len(jobs))
}
