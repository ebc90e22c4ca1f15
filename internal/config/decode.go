package config

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/dshills/taptrack/internal/config/loader"
)

// decoder reads typed values from a merged map and collects errors.
type decoder struct {
	m    map[string]any
	errs []error
}

func (d *decoder) fail(err error) {
	d.errs = append(d.errs, err)
}

func (d *decoder) lookup(path string) (any, bool) {
	return loader.Lookup(d.m, path)
}

// duration accepts time.Duration, Go duration strings and integer
// milliseconds.
func (d *decoder) duration(path string, dst *time.Duration) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}

	switch x := v.(type) {
	case time.Duration:
		*dst = x
	case int64:
		*dst = time.Duration(x) * time.Millisecond
	case int:
		*dst = time.Duration(x) * time.Millisecond
	case float64:
		*dst = time.Duration(x * float64(time.Millisecond))
	case string:
		parsed, err := time.ParseDuration(x)
		if err != nil {
			ms, merr := strconv.ParseInt(x, 10, 64)
			if merr != nil {
				d.fail(invalid(path, v, "not a duration"))
				return
			}
			parsed = time.Duration(ms) * time.Millisecond
		}
		*dst = parsed
	default:
		d.fail(invalid(path, v, "expected duration, got %T", v))
	}
}

func (d *decoder) float(path string, dst *float64) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}

	switch x := v.(type) {
	case float64:
		*dst = x
	case int64:
		*dst = float64(x)
	case int:
		*dst = float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			d.fail(invalid(path, v, "not a number"))
			return
		}
		*dst = f
	default:
		d.fail(invalid(path, v, "expected number, got %T", v))
		return
	}
	if math.IsNaN(*dst) || math.IsInf(*dst, 0) {
		d.fail(invalid(path, v, "must be finite"))
	}
}

func (d *decoder) boolean(path string, dst *bool) {
	v, ok := d.lookup(path)
	if !ok {
		return
	}

	switch x := v.(type) {
	case bool:
		*dst = x
	case int64:
		if x != 0 && x != 1 {
			d.fail(invalid(path, v, "expected boolean"))
			return
		}
		*dst = x == 1
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			d.fail(invalid(path, v, "expected boolean"))
			return
		}
		*dst = b
	default:
		d.fail(invalid(path, v, "expected boolean, got %T", v))
	}
}

func (d *decoder) str(path string, dst *string) bool {
	v, ok := d.lookup(path)
	if !ok {
		return false
	}

	s, ok := v.(string)
	if !ok {
		d.fail(invalid(path, v, "expected string, got %T", v))
		return false
	}
	*dst = s
	return true
}

// parents reads a table of child target to parent target names.
func (d *decoder) parents(path string) map[string]string {
	v, ok := d.lookup(path)
	if !ok {
		return nil
	}
	table, ok := v.(map[string]any)
	if !ok {
		d.fail(invalid(path, v, "expected a table of target = parent, got %T", v))
		return nil
	}

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(table))
	for _, child := range keys {
		parent, ok := table[child].(string)
		if !ok || parent == "" || child == "" {
			d.fail(invalid(path+"."+child, table[child], "expected a non-empty parent target name"))
			continue
		}
		out[child] = parent
	}
	return out
}
