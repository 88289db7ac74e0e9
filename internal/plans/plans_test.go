package plans

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gospelsPlan = `plan_title,Евангелия за 30 дней
day,reading
1,Матфея 1-3
2,Матфея 4-6
3,Матфея 7-9
`

const psalmsPlan = `plan_title,Псалтирь за неделю
day,reading
1,Псалтирь 1-20
2,Псалтирь 21-40
`

func writePlans(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writePlans(t, map[string]string{
		"gospels.csv": gospelsPlan,
		"psalms.csv":  psalmsPlan,
	})

	lib, errs := LoadDir(dir)
	require.Empty(t, errs)

	list := lib.List()
	require.Len(t, list, 2)
	// Files load in name order, so gospels comes first.
	assert.Equal(t, "Евангелия за 30 дней", list[0].Title)
	assert.Equal(t, "plan_1", list[0].Key)
	assert.Len(t, list[0].Days, 3)
}

func TestLookupByBothKeyForms(t *testing.T) {
	dir := writePlans(t, map[string]string{"gospels.csv": gospelsPlan})
	lib, errs := LoadDir(dir)
	require.Empty(t, errs)

	byPosition, ok := lib.Get("plan_1")
	require.True(t, ok)
	byStem, ok := lib.Get("gospels")
	require.True(t, ok)
	assert.Same(t, byPosition, byStem)
}

func TestDayReading(t *testing.T) {
	dir := writePlans(t, map[string]string{"gospels.csv": gospelsPlan})
	lib, errs := LoadDir(dir)
	require.Empty(t, errs)

	reading, ok := lib.DayReading("plan_1", 2)
	require.True(t, ok)
	assert.Equal(t, "Матфея 4-6", reading)

	_, ok = lib.DayReading("plan_1", 99)
	assert.False(t, ok)
	_, ok = lib.DayReading("missing", 1)
	assert.False(t, ok)
}

func TestBadFileSkippedOthersLoad(t *testing.T) {
	dir := writePlans(t, map[string]string{
		"bad.csv":     "not,a,plan\n1,2,3\n",
		"gospels.csv": gospelsPlan,
	})

	lib, errs := LoadDir(dir)
	assert.Len(t, errs, 1)
	assert.Len(t, lib.List(), 1)
}

func TestHeaderValidation(t *testing.T) {
	cases := map[string]string{
		"missing title":  "day,reading\n1,Матфея 1\n",
		"empty title":    "plan_title,\nday,reading\n1,Матфея 1\n",
		"bad second row": "plan_title,План\nreading,day\n1,Матфея 1\n",
		"no days":        "plan_title,План\nday,reading\n",
		"bad day number": "plan_title,План\nday,reading\nодин,Матфея 1\n",
	}
	for name, content := range cases {
		dir := writePlans(t, map[string]string{"plan.csv": content})
		lib, errs := LoadDir(dir)
		assert.Len(t, errs, 1, name)
		assert.Empty(t, lib.List(), name)
	}
}

func TestNonCSVFilesIgnored(t *testing.T) {
	dir := writePlans(t, map[string]string{
		"readme.txt":  "not a plan",
		"gospels.csv": gospelsPlan,
	})

	lib, errs := LoadDir(dir)
	require.Empty(t, errs)
	assert.Len(t, lib.List(), 1)
}
