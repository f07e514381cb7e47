/*
ccmdc cooks ccmd sources into bytecode blobs that the engine loads without
compiling, and dumps existing blobs in a readable form.

	ccmdc [-o out] [-workers n] files-or-dirs...
	ccmdc -dump blobs...
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spaghettifunk/anima/engine/ccmd"
	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/systems"
)

const cookedExt = ".ccmdc"

var sourceExts = []string{".ccmd", ".amt"}

type options struct {
	out     string
	dump    bool
	workers int
	verbose bool
}

// job maps one source to the blob it produces.
type job struct {
	src string
	dst string
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "ccmdc: %s\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("ccmdc", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var opts options
	flags.StringVar(&opts.out, "o", "", "output file, or directory when cooking several inputs")
	flags.BoolVar(&opts.dump, "dump", false, "disassemble the given blobs instead of cooking")
	flags.IntVar(&opts.workers, "workers", runtime.NumCPU(), "number of parallel compile jobs")
	flags.BoolVar(&opts.verbose, "v", false, "log every cooked file")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("no inputs given")
	}

	core.SetLogOutput(stderr)
	core.SetLogLevel(core.WarnLevel)
	if opts.verbose {
		core.SetLogLevel(core.DebugLevel)
	}

	if opts.dump {
		return dump(flags.Args(), stdout)
	}
	return cook(flags.Args(), opts)
}

func dump(paths []string, w io.Writer) error {
	for _, path := range paths {
		blob, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if len(paths) > 1 {
			fmt.Fprintf(w, "== %s\n", path)
		}
		if err := ccmd.Disassemble(w, blob); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func cook(inputs []string, opts options) error {
	jobs, err := plan(inputs, opts.out)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no ccmd sources found")
	}

	workers := opts.workers
	if workers <= 0 {
		workers = 1
	}
	js, err := systems.NewJobSystem(workers, workers*2)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for _, j := range jobs {
		wg.Add(1)
		js.Submit(systems.JobTask{
			Name:    j.src,
			OnStart: func() error { return cookFile(j) },
			OnComplete: func() {
				core.LogDebug("cooked %s -> %s", j.src, j.dst)
				wg.Done()
			},
			OnFailure: func(err error) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", j.src, err))
				mu.Unlock()
				wg.Done()
			},
		})
	}
	wg.Wait()

	return errors.Join(append(errs, js.Shutdown())...)
}

func cookFile(j job) error {
	src, err := os.ReadFile(j.src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(j.dst, ccmd.Compile(src), 0o644)
}

// plan resolves the inputs into source/destination pairs. Without -o every
// blob is written next to its source. With -o a single file input names the
// blob itself, otherwise -o is a directory mirroring the input trees.
func plan(inputs []string, out string) ([]job, error) {
	var jobs []job
	single := len(inputs) == 1

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !isSource(input) {
				return nil, fmt.Errorf("%s: not a ccmd source, use -dump to inspect cooked blobs", input)
			}
			dst := cookedPath(input)
			switch {
			case out != "" && single:
				dst = out
			case out != "":
				dst = filepath.Join(out, filepath.Base(dst))
			}
			if sameFile(input, dst) {
				return nil, fmt.Errorf("%s: refusing to overwrite the source", input)
			}
			jobs = append(jobs, job{src: input, dst: dst})
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isSource(path) {
				return nil
			}
			dst := cookedPath(path)
			if out != "" {
				rel, err := filepath.Rel(input, dst)
				if err != nil {
					return err
				}
				dst = filepath.Join(out, rel)
			}
			jobs = append(jobs, job{src: path, dst: dst})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range sourceExts {
		if ext == e {
			return true
		}
	}
	return false
}

func cookedPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + cookedExt
}

func sameFile(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
