package calendar

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const samplePage = `<html><body>
<p class="pdataheader">Четверг, 28 Августа 2025 года (15 Августа по ст.ст.)</p>
<p class="pheaderheader">Седмица 12-я по Пятидесятнице. Глас 2.</p>
<span class="normaltext">Успение Пресвятой Владычицы нашей Богородицы и Приснодевы Марии. Святых отец шести Вселенских Соборов.</span>
<p class="pscriptureheader">Чтения дня</p>
<a href="#">Флп.2:5-11</a><br><a href="#">Лк.10:38-42,11:27-28</a><br>
</body></html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDayAtParsesAndCachesPage(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String(samplePage)
	require.NoError(t, err)

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "8", r.URL.Query().Get("month"))
		assert.Equal(t, "28", r.URL.Query().Get("today"))
		assert.Equal(t, "2025", r.URL.Query().Get("year"))
		assert.Equal(t, "0", r.URL.Query().Get("lives"))
		_, _ = w.Write([]byte(encoded))
	}))
	defer srv.Close()

	c := newClient(srv.URL, time.Second, testLogger())
	date := time.Date(2025, 8, 28, 10, 0, 0, 0, time.UTC)

	day, err := c.DayAt(context.Background(), date)
	require.NoError(t, err)
	assert.Contains(t, day.Date, "28 Августа 2025")
	assert.Contains(t, day.Header, "Глас 2")
	require.Len(t, day.Saints, 2)
	assert.Equal(t, "Успение Пресвятой Владычицы нашей Богородицы и Приснодевы Марии.", day.Saints[0])
	assert.Equal(t, "Святых отец шести Вселенских Соборов.", day.Saints[1])
	assert.Equal(t, []string{"Флп.2:5-11", "Лк.10:38-42,11:27-28"}, day.Readings)

	// The same day within the hour is answered from the cache.
	_, err = c.DayAt(context.Background(), date)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestDayAtErrorsOnUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(srv.URL, time.Second, testLogger())
	_, err := c.DayAt(context.Background(), time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestParseDayTolerantOfMissingSections(t *testing.T) {
	day := parseDay(`<html><body><p class="pdataheader">1 Января 2026 года</p></body></html>`)
	assert.Equal(t, "1 Января 2026 года", day.Date)
	assert.Empty(t, day.Header)
	assert.Empty(t, day.Saints)
	assert.Empty(t, day.Readings)
}

func TestFormatDay(t *testing.T) {
	day := Day{
		Date:     "28 Августа 2025 года",
		Header:   "Седмица 12-я по Пятидесятнице. Глас 2.",
		Saints:   []string{"Успение Пресвятой Богородицы."},
		Readings: []string{"Флп.2:5-11"},
	}
	text := day.Format()
	assert.Contains(t, text, "📅 Православный календарь")
	assert.Contains(t, text, "📆 28 Августа 2025 года")
	assert.Contains(t, text, "👼 Память святых:")
	assert.Contains(t, text, "• Флп.2:5-11")

	empty := Day{}
	assert.Equal(t, "📅 Православный календарь", empty.Format())
}
