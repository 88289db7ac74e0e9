package plans

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Plan is one reading plan: an ordered list of daily readings.
type Plan struct {
	Key   string
	Title string
	Days  []Day
}

type Day struct {
	Number  int
	Reading string
}

// Library holds every plan found in the plans directory, addressable both by
// positional key ("plan_1") and by file stem.
type Library struct {
	plans map[string]*Plan
	order []string // positional keys, load order
}

// LoadDir reads every *.csv file in dir. A plan file has a two-row header:
//
//	plan_title,План чтения Евангелий
//	day,reading
//
// followed by one row per day. Files that fail to parse are skipped with the
// error reported, so one bad file does not hide the rest.
func LoadDir(dir string) (*Library, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("read plans dir: %w", err)}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	lib := &Library{plans: make(map[string]*Plan)}
	var errs []error
	for _, name := range names {
		plan, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("plan %s: %w", name, err))
			continue
		}
		key := fmt.Sprintf("plan_%d", len(lib.order)+1)
		plan.Key = key
		lib.plans[key] = plan
		stem := strings.TrimSuffix(name, ".csv")
		if stem != key {
			lib.plans[stem] = plan
		}
		lib.order = append(lib.order, key)
	}
	return lib, errs
}

func loadFile(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("missing header rows")
	}
	if len(records[0]) < 2 || records[0][0] != "plan_title" {
		return nil, fmt.Errorf("first row must be plan_title,<title>")
	}
	title := strings.TrimSpace(records[0][1])
	if title == "" {
		return nil, fmt.Errorf("empty plan title")
	}
	if len(records[1]) < 2 || records[1][0] != "day" || records[1][1] != "reading" {
		return nil, fmt.Errorf("second row must be day,reading")
	}

	plan := &Plan{Title: title}
	for i, record := range records[2:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("row %d: expected day,reading", i+3)
		}
		number, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || number <= 0 {
			return nil, fmt.Errorf("row %d: bad day number %q", i+3, record[0])
		}
		plan.Days = append(plan.Days, Day{
			Number:  number,
			Reading: strings.TrimSpace(record[1]),
		})
	}
	if len(plan.Days) == 0 {
		return nil, fmt.Errorf("plan has no days")
	}
	return plan, nil
}

// Get looks a plan up by either key form.
func (l *Library) Get(key string) (*Plan, bool) {
	plan, ok := l.plans[key]
	return plan, ok
}

// List returns the plans in load order, one entry per plan.
func (l *Library) List() []*Plan {
	out := make([]*Plan, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.plans[key])
	}
	return out
}

// DayReading returns the reading for the given 1-based day of a plan.
func (l *Library) DayReading(key string, day int) (string, bool) {
	plan, ok := l.Get(key)
	if !ok {
		return "", false
	}
	for _, d := range plan.Days {
		if d.Number == day {
			return d.Reading, true
		}
	}
	return "", false
}
