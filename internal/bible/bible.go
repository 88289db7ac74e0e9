package bible

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// User-facing lookup failures. Handlers send these straight to the chat, so
// they are messages, not errors.
const (
	MsgBookNotFound    = "Книга не найдена"
	MsgChapterNotFound = "Глава не найдена"
	MsgVerseNotFound   = "Стих не найден"
	MsgBadVerseRange   = "Неверный диапазон стихов"
)

// Bible is an in-memory Synodal text: book -> chapter -> verse -> text.
// Loaded once at startup and read-only afterwards.
type Bible struct {
	books map[string]map[string]map[string]string
	names map[string]string // lowercased name -> display name
}

// Load reads the bible JSON file. Two layouts are accepted: the wrapped form
//
//	{"books": {"Бытие": {"1": {"1": "В начале..."}}}}
//
// and the same map without the "books" envelope.
func Load(path string) (*Bible, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bible file: %w", err)
	}

	var wrapped struct {
		Books map[string]map[string]map[string]string `json:"books"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Books) > 0 {
		return newBible(wrapped.Books), nil
	}

	var flat map[string]map[string]map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("parse bible file: %w", err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("bible file %s contains no books", path)
	}
	return newBible(flat), nil
}

func newBible(books map[string]map[string]map[string]string) *Bible {
	b := &Bible{
		books: books,
		names: make(map[string]string, len(books)),
	}
	for name := range books {
		b.names[strings.ToLower(name)] = name
	}
	return b
}

// Books returns the display names of all loaded books, sorted.
func (b *Bible) Books() []string {
	names := make([]string, 0, len(b.books))
	for name := range b.books {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindBook resolves a user-typed book name case-insensitively.
func (b *Bible) FindBook(name string) (string, bool) {
	display, ok := b.names[strings.ToLower(strings.TrimSpace(name))]
	return display, ok
}

// GetVerse returns a single formatted verse, or a lookup-failure message.
func (b *Bible) GetVerse(book string, chapter, verse int) string {
	return b.GetVerseRange(book, chapter, verse, verse)
}

// GetVerseRange returns formatted verses from..to inclusive. A reversed or
// non-positive range yields the range message; verses missing from the
// chapter yield the verse message.
func (b *Bible) GetVerseRange(book string, chapter, from, to int) string {
	display, ok := b.FindBook(book)
	if !ok {
		return MsgBookNotFound
	}
	verses, ok := b.books[display][strconv.Itoa(chapter)]
	if !ok {
		return MsgChapterNotFound
	}
	if from <= 0 || to < from {
		return MsgBadVerseRange
	}

	var sb strings.Builder
	if from == to {
		fmt.Fprintf(&sb, "📖 %s %d:%d\n\n", display, chapter, from)
	} else {
		fmt.Fprintf(&sb, "📖 %s %d:%d-%d\n\n", display, chapter, from, to)
	}

	found := false
	for v := from; v <= to; v++ {
		text, ok := verses[strconv.Itoa(v)]
		if !ok {
			continue
		}
		found = true
		fmt.Fprintf(&sb, "%d. %s\n", v, text)
	}
	if !found {
		return MsgVerseNotFound
	}
	return strings.TrimRight(sb.String(), "\n")
}

// GetChapter returns the whole chapter formatted, or a lookup-failure message.
func (b *Bible) GetChapter(book string, chapter int) string {
	display, ok := b.FindBook(book)
	if !ok {
		return MsgBookNotFound
	}
	verses, ok := b.books[display][strconv.Itoa(chapter)]
	if !ok {
		return MsgChapterNotFound
	}

	numbers := make([]int, 0, len(verses))
	for key := range verses {
		if n, err := strconv.Atoi(key); err == nil {
			numbers = append(numbers, n)
		}
	}
	sort.Ints(numbers)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📖 %s, глава %d\n\n", display, chapter)
	for _, n := range numbers {
		fmt.Fprintf(&sb, "%d. %s\n", n, verses[strconv.Itoa(n)])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ChapterCount returns how many chapters a book has, zero for an unknown book.
func (b *Bible) ChapterCount(book string) int {
	display, ok := b.FindBook(book)
	if !ok {
		return 0
	}
	return len(b.books[display])
}
