package exchange

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jing2uo/pricepanel/model"
)

var builtin = map[string]holidayRule{
	"XNYS": nyseHolidays,
	"XNAS": nyseHolidays,
	"XLON": lseHolidays,
}

// Source serves trading sessions from <dir>/<ID>.txt session lists, falling
// back to the built-in holiday rules.
type Source struct {
	dir string
}

func NewSource(sessionsDir string) *Source {
	return &Source{dir: sessionsDir}
}

// Sessions returns the sessions of id within [start, end] in ascending order.
func (s *Source) Sessions(ctx context.Context, id string, start, end time.Time) ([]time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.ToUpper(strings.TrimSpace(id))
	start, end = model.Date(start), model.Date(end)

	if s.dir != "" {
		sessions, err := readSessionFile(filepath.Join(s.dir, id+".txt"))
		switch {
		case err == nil:
			return clip(sessions, start, end), nil
		case !errors.Is(err, fs.ErrNotExist):
			return nil, &model.UnsupportedCalendarError{Calendar: id, Reason: err.Error(), Known: Known()}
		}
	}

	rule, ok := builtin[id]
	if !ok {
		return nil, &model.UnsupportedCalendarError{Calendar: id, Reason: "unknown exchange id", Known: Known()}
	}
	return weekdaysExcept(rule, start, end), nil
}

// Known lists the built-in exchange ids.
func Known() []string {
	ids := make([]string, 0, len(builtin))
	for id := range builtin {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func weekdaysExcept(rule holidayRule, start, end time.Time) []time.Time {
	closed := make(map[time.Time]bool)
	for y := start.Year(); y <= end.Year(); y++ {
		for _, h := range rule(y) {
			closed[h] = true
		}
	}

	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday || closed[d] {
			continue
		}
		out = append(out, d)
	}
	return out
}

func readSessionFile(path string) ([]time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []time.Time
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		d, err := time.Parse(model.DateLayout, text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid session date %q", path, line, text)
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func clip(sessions []time.Time, start, end time.Time) []time.Time {
	var out []time.Time
	for _, d := range sessions {
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}
