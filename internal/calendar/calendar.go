package calendar

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Day pages come from the Holy Trinity parish calendar as windows-1251 HTML.
const defaultBaseURL = "http://www.holytrinityorthodox.com/ru/calendar/calendar.php"

const cacheTTL = time.Hour

// Day is the parsed calendar entry for one date.
type Day struct {
	Date     string // civil date with its church-calendar counterpart
	Header   string // week of the liturgical year and tone
	Saints   []string
	Readings []string
}

// Format renders the day for chat.
func (d *Day) Format() string {
	var sb strings.Builder
	sb.WriteString("📅 Православный календарь\n")
	if d.Date != "" {
		fmt.Fprintf(&sb, "📆 %s\n", d.Date)
	}
	if d.Header != "" {
		fmt.Fprintf(&sb, "✨ %s\n", d.Header)
	}
	if len(d.Saints) > 0 {
		sb.WriteString("\n👼 Память святых:\n")
		for _, saint := range d.Saints {
			fmt.Fprintf(&sb, "• %s\n", saint)
		}
	}
	if len(d.Readings) > 0 {
		sb.WriteString("\n📖 Чтения дня:\n")
		for _, reading := range d.Readings {
			fmt.Fprintf(&sb, "• %s\n", reading)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

type cacheEntry struct {
	day       Day
	fetchedAt time.Time
}

// Client fetches and parses daily calendar pages, keeping each day cached for
// an hour so repeated /calendar taps do not hammer the upstream.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewClient(timeout time.Duration, log *slog.Logger) *Client {
	return newClient(defaultBaseURL, timeout, log)
}

func newClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		cache:      make(map[string]cacheEntry),
	}
}

// DayAt returns the calendar entry for the given date.
func (c *Client) DayAt(ctx context.Context, date time.Time) (*Day, error) {
	key := date.Format("2006-01-02")
	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.fetchedAt) < cacheTTL {
		day := entry.day
		c.mu.Unlock()
		return &day, nil
	}
	c.mu.Unlock()

	page, err := c.fetch(ctx, date)
	if err != nil {
		return nil, err
	}
	day := parseDay(page)

	c.mu.Lock()
	c.cache[key] = cacheEntry{day: day, fetchedAt: time.Now()}
	c.mu.Unlock()
	return &day, nil
}

func (c *Client) fetch(ctx context.Context, date time.Time) (string, error) {
	params := url.Values{}
	params.Set("month", strconv.Itoa(int(date.Month())))
	params.Set("today", strconv.Itoa(date.Day()))
	params.Set("year", strconv.Itoa(date.Year()))
	// Dual civil/church date, week header and readings; no lives or troparia.
	params.Set("dt", "1")
	params.Set("header", "1")
	params.Set("lives", "0")
	params.Set("trp", "0")
	params.Set("scripture", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build calendar request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("calendar responded with status %d", resp.StatusCode)
	}
	decoded, err := io.ReadAll(transform.NewReader(resp.Body, charmap.Windows1251.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode calendar page: %w", err)
	}
	return string(decoded), nil
}

var (
	datePattern      = regexp.MustCompile(`(?s)<p class="pdataheader"[^>]*>(.*?)</p>`)
	headerPattern    = regexp.MustCompile(`(?s)<p class="pheaderheader"[^>]*>(.*?)</p>`)
	saintsPattern    = regexp.MustCompile(`(?s)<span class="normaltext"[^>]*>(.*?)<p class="pscriptureheader"`)
	scripturePattern = regexp.MustCompile(`(?s)<p class="pscriptureheader"[^>]*>.*?</p>\s*(.*?)\s*(?:<p class="ptroparionheader"|</body>|\z)`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
	spacePattern     = regexp.MustCompile(`\s+`)

	// Commemorations run together in one text block; a new entry starts after
	// a period with one of the customary opening words.
	saintStartPattern = regexp.MustCompile(`\.\s+(Славного|Святого|Святой|Святых|Преподобного|Преподобной|Преподобных|Мученика|Мученицы|Мучеников|Священномученика|Священномучеников|Великомученика|Великомучеников|Великомученицы|Преставление|Обретение|Перенесение|Память|Собор|Празднование|Блаженного|Блаженной|Блаженных|Праведного|Праведной|Праведных|Пророка|Пророков|Апостола|Апостолов)`)
)

func parseDay(page string) Day {
	content := html.UnescapeString(page)
	day := Day{}

	if m := datePattern.FindStringSubmatch(content); m != nil {
		day.Date = stripTags(m[1])
	}
	if m := headerPattern.FindStringSubmatch(content); m != nil {
		day.Header = stripTags(m[1])
	}
	if m := saintsPattern.FindStringSubmatch(content); m != nil {
		day.Saints = splitSaints(stripTags(m[1]))
	}
	if m := scripturePattern.FindStringSubmatch(content); m != nil {
		for _, line := range strings.Split(m[1], "<br>") {
			if clean := stripTags(line); clean != "" {
				day.Readings = append(day.Readings, clean)
			}
		}
	}
	return day
}

func stripTags(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(tagPattern.ReplaceAllString(s, " "), " "))
}

func splitSaints(text string) []string {
	if text == "" {
		return nil
	}
	var entries []string
	start := 0
	for _, cut := range saintStartPattern.FindAllStringSubmatchIndex(text, -1) {
		entries = append(entries, text[start:cut[2]])
		start = cut[2]
	}
	entries = append(entries, text[start:])

	var out []string
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, "Седмица") || strings.HasPrefix(entry, "Глас") {
			continue
		}
		if !strings.HasSuffix(entry, ".") {
			entry += "."
		}
		out = append(out, entry)
	}
	return out
}
