package probe

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/field"
	"github.com/pders01/foamkit/internal/foam"
	"github.com/pders01/foamkit/internal/logging"
	"github.com/pders01/foamkit/internal/models"
	"github.com/pders01/foamkit/internal/timedir"
)

// DefaultProgressInterval is the minimum wall time between progress lines.
const DefaultProgressInterval = 10 * time.Second

// ReadOptions configures ReadProbes.
type ReadOptions struct {
	// SkipFirst drops the earliest time directory of the case, usually
	// the initial conditions.
	SkipFirst bool
	TMin      float64
	TMax      float64

	ProgressInterval time.Duration
	// Decompressor expands compressed field files into a transient raw
	// file. Defaults to an in-process gzip decompressor on the case Fs.
	Decompressor  field.Decompressor
	CompressedExt string
	// OnStep, if set, is called after every time directory.
	OnStep func(done, total int)
}

// DefaultReadOptions reads every time directory except the first.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		SkipFirst:        true,
		TMin:             math.Inf(-1),
		TMax:             math.Inf(1),
		ProgressInterval: DefaultProgressInterval,
		CompressedExt:    field.CompressedExt,
	}
}

// ReadReport lists the time directories read and those that were unusable.
type ReadReport struct {
	Times   []timedir.Entry
	BadDirs []models.BadDir
}

// Bad reports whether dir was marked unusable.
func (r *ReadReport) Bad(dir string) bool {
	for _, b := range r.BadDirs {
		if b.Dir == dir {
			return true
		}
	}
	return false
}

// SelectTimes returns the time directories ReadProbes uses for opts.
func (c *Case) SelectTimes(opts ReadOptions) []timedir.Entry {
	var out []timedir.Entry
	for i, e := range c.times {
		if opts.SkipFirst && i == 0 {
			continue
		}
		if e.Value < opts.TMin || e.Value > opts.TMax {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ReadProbes fills every probe with the values of its field at its cell
// for each selected time directory. All probes share one time axis.
//
// A time directory where any probed field is missing, cannot be
// decompressed or cannot be parsed is marked bad for all probes and gets a
// row of NaN; reading continues with the next directory.
func (c *Case) ReadProbes(opts ReadOptions) (*ReadReport, error) {
	report := &ReadReport{}
	if len(c.probes) == 0 {
		c.log.Info("No probes to read.")
		return report, nil
	}
	if opts.Decompressor == nil {
		opts.Decompressor = field.GzipDecompressor{Fs: c.fs}
	}
	if opts.CompressedExt == "" {
		opts.CompressedExt = field.CompressedExt
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}

	defer c.log.Timed("READING PROBES")()

	report.Times = c.SelectTimes(opts)
	nt := len(report.Times)
	names := timedir.Names(report.Times)
	for _, p := range c.probes {
		p.Times = append([]string(nil), names...)
		p.Data = make([][]float64, nt)
	}
	c.log.Info("Using %s/%s time directories.", logging.Count(nt), logging.Count(len(c.times)))

	var fields []string
	seen := map[string]bool{}
	for _, p := range c.probes {
		if !seen[p.Field] {
			seen[p.Field] = true
			fields = append(fields, p.Field)
		}
	}

	start := c.now()
	lastReport := start
	for i, e := range report.Times {
		values, reason := c.readStep(e.Name, fields, opts)
		if reason == "" {
			reason = c.fillRows(i, values)
		}
		if reason != "" {
			report.BadDirs = append(report.BadDirs, models.BadDir{Dir: e.Name, Reason: reason})
			c.log.Warn("%s", reason)
			c.fillNaN(i)
		}

		done := i + 1
		if opts.OnStep != nil {
			opts.OnStep(done, nt)
		}
		if now := c.now(); now.Sub(lastReport) > opts.ProgressInterval {
			elapsed := now.Sub(start).Seconds()
			perStep := elapsed / float64(done)
			c.log.Info("Read %6d/%6d time points in %6.1f secs. %6.3f secs / time point. %6.3f secs remaining. Latest directory read: %s",
				done, nt, elapsed, perStep, perStep*float64(nt-done), e.Name)
			lastReport = now
		}
	}

	c.log.Info("Done reading probes. %d bad time directories.", len(report.BadDirs))
	for i, b := range report.BadDirs {
		c.log.Info("%4d %12s: %s", i+1, b.Dir, b.Reason)
	}
	return report, nil
}

// readStep loads every field once for a time directory. A non-empty
// reason means the directory is unusable.
func (c *Case) readStep(dir string, fields []string, opts ReadOptions) (map[string]*foam.Field, string) {
	values := make(map[string]*foam.Field, len(fields))
	for _, name := range fields {
		f, err := c.readTransient(dir, name, opts)
		if err != nil {
			return nil, err.Error()
		}
		if f.Dim != c.fields[name] {
			return nil, fmt.Sprintf("data for field %s in time directory %s has %d components, expected %d", name, dir, f.Dim, c.fields[name])
		}
		values[name] = f
	}
	return values, ""
}

// readTransient reads a field file, decompressing the compressed sibling
// into the raw location when needed. A file decompressed here is always
// removed again.
func (c *Case) readTransient(dir, name string, opts ReadOptions) (*foam.Field, error) {
	raw := field.Path(c.path, dir, name)
	if ok, _ := afero.Exists(c.fs, raw); ok {
		return field.ReadFile(c.fs, raw)
	}

	zipped := raw + opts.CompressedExt
	if ok, _ := afero.Exists(c.fs, zipped); !ok {
		return nil, fmt.Errorf("could not find raw field file %s or compressed version %s", raw, zipped)
	}

	defer c.fs.Remove(raw)
	if err := opts.Decompressor.Decompress(zipped, raw); err != nil {
		return nil, fmt.Errorf("could not decompress %s: %w", zipped, err)
	}
	if ok, _ := afero.Exists(c.fs, raw); !ok {
		return nil, fmt.Errorf("could not find %s after decompressing", raw)
	}
	return field.ReadFile(c.fs, raw)
}

func (c *Case) fillRows(i int, values map[string]*foam.Field) string {
	rows := make([][]float64, len(c.probes))
	for k, p := range c.probes {
		row, ok := values[p.Field].Row(p.Index)
		if !ok {
			return fmt.Sprintf("data for field %s in time directory %s has no value for cell %d", p.Field, p.Times[i], p.Index)
		}
		rows[k] = append([]float64(nil), row...)
	}
	for k, p := range c.probes {
		p.Data[i] = rows[k]
	}
	return ""
}

func (c *Case) fillNaN(i int) {
	for _, p := range c.probes {
		row := make([]float64, c.fields[p.Field])
		for d := range row {
			row[d] = math.NaN()
		}
		p.Data[i] = row
	}
}
