// Package evaluate measures model accuracy over a labelled image corpus.
//
// The corpus layout is <root>/<size>/<challenge>/{matches,not matches}/<image>.
// Challenge directory names may use spaces in place of underscores. An image
// under "matches" is scored correct when its prediction is mainly
// affirmative; an image under "not matches" when it is not.
package evaluate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/haze/nocap/internal/challenge"
	"github.com/haze/nocap/pkg/types"
)

// Label directory names.
const (
	MatchesDir    = "matches"
	NotMatchesDir = "not matches"
)

// Predictor scores one image. *registry.Registry implements it.
type Predictor interface {
	Predict(ctx context.Context, c challenge.Challenge, image string) (types.Prediction, error)
}

// Tally counts scored images.
type Tally struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

func (t Tally) Total() int { return t.Correct + t.Incorrect }

// Accuracy is the correct share in percent; zero for an empty tally.
func (t Tally) Accuracy() float64 {
	if t.Total() == 0 {
		return 0
	}
	return 100 * float64(t.Correct) / float64(t.Total())
}

func (t Tally) add(o Tally) Tally {
	return Tally{Correct: t.Correct + o.Correct, Incorrect: t.Incorrect + o.Incorrect}
}

// Result is the outcome for one challenge at one size.
type Result struct {
	Size       string              `json:"size"`
	Challenge  challenge.Challenge `json:"challenge"`
	Matches    Tally               `json:"matches"`
	NotMatches Tally               `json:"not_matches"`
}

func (r Result) Overall() Tally { return r.Matches.add(r.NotMatches) }

// Report holds every result, ordered by size then catalog order.
type Report struct {
	Results []Result `json:"results"`
}

// Overall sums every result.
func (r Report) Overall() Tally {
	var t Tally
	for _, res := range r.Results {
		t = t.add(res.Overall())
	}
	return t
}

// Options tunes Run.
type Options struct {
	// Concurrency bounds the challenges evaluated at once; defaults to 4.
	Concurrency int
	Logger      *zerolog.Logger
}

type job struct {
	size string
	c    challenge.Challenge
	dir  string
}

// Run evaluates every challenge directory under root. Directories whose
// names are not challenges are skipped. A missing label directory counts as
// empty. The first prediction or read failure aborts the run.
func Run(ctx context.Context, root string, p Predictor, opts Options) (Report, error) {
	log := opts.Logger
	if log == nil {
		l := zerolog.Nop()
		log = &l
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	jobs, err := collect(root, log)
	if err != nil {
		return Report{}, err
	}

	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			res := Result{Size: j.size, Challenge: j.c}
			var err error
			if res.Matches, err = scoreDir(gctx, p, j.c, filepath.Join(j.dir, MatchesDir), true, log); err != nil {
				return err
			}
			if res.NotMatches, err = scoreDir(gctx, p, j.c, filepath.Join(j.dir, NotMatchesDir), false, log); err != nil {
				return err
			}
			results[i] = res
			o := res.Overall()
			log.Info().Str("size", j.size).Str("challenge", j.c.String()).
				Int("correct", o.Correct).Int("incorrect", o.Incorrect).
				Float64("accuracy", o.Accuracy()).Msg("challenge evaluated")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Results: results}, nil
}

// collect lists the (size, challenge) directories in a stable order.
func collect(root string, log *zerolog.Logger) ([]job, error) {
	sizes, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", root, err)
	}
	var jobs []job
	for _, size := range sizes {
		if !size.IsDir() {
			continue
		}
		sizeDir := filepath.Join(root, size.Name())
		entries, err := os.ReadDir(sizeDir)
		if err != nil {
			return nil, fmt.Errorf("read size dir %s: %w", sizeDir, err)
		}
		var batch []job
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			c, err := challenge.Parse(strings.ReplaceAll(e.Name(), " ", "_"))
			if err != nil {
				log.Warn().Str("dir", filepath.Join(sizeDir, e.Name())).Msg("skipping non-challenge directory")
				continue
			}
			batch = append(batch, job{size: size.Name(), c: c, dir: filepath.Join(sizeDir, e.Name())})
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].c < batch[j].c })
		jobs = append(jobs, batch...)
	}
	return jobs, nil
}

func scoreDir(ctx context.Context, p Predictor, c challenge.Challenge, dir string, expectMatch bool, log *zerolog.Logger) (Tally, error) {
	var t Tally
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Debug().Str("dir", dir).Msg("label directory missing")
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		img, err := os.ReadFile(path)
		if err != nil {
			return t, fmt.Errorf("read image %s: %w", path, err)
		}
		pred, err := p.Predict(ctx, c, string(img))
		if err != nil {
			return t, fmt.Errorf("predict %s: %w", path, err)
		}
		log.Debug().Str("challenge", c.String()).Str("path", path).
			Float32("affirmative", pred.AffirmativeConfidence).Float32("negative", pred.NegativeConfidence).Msg("scored")
		if pred.IsMainlyAffirmative() == expectMatch {
			t.Correct++
		} else {
			t.Incorrect++
		}
	}
	return t, nil
}

// WriteText renders r as one line per result plus a total.
func (r Report) WriteText(w io.Writer) error {
	for _, res := range r.Results {
		o := res.Overall()
		if _, err := fmt.Fprintf(w, "[%s/%s] %.1f%% %d correct, %.1f%% %d incorrect (%d total; matches %.1f%%, not matches %.1f%%)\n",
			res.Size, res.Challenge, o.Accuracy(), o.Correct, 100-o.Accuracy(), o.Incorrect, o.Total(),
			res.Matches.Accuracy(), res.NotMatches.Accuracy()); err != nil {
			return err
		}
	}
	o := r.Overall()
	_, err := fmt.Fprintf(w, "total: %.1f%% correct (%d/%d)\n", o.Accuracy(), o.Correct, o.Total())
	return err
}
