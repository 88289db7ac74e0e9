package bible

import (
	"regexp"
	"strconv"
	"strings"
)

// Reference is a parsed passage request like "Бытие 1:1-5" or "Псалтирь 22".
type Reference struct {
	Book    string
	Chapter int
	From    int // zero means the whole chapter
	To      int
}

// IsRange reports whether more than one verse was requested.
func (r Reference) IsRange() bool {
	return r.From != 0 && r.To > r.From
}

func (r Reference) String() string {
	var sb strings.Builder
	sb.WriteString(r.Book)
	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(r.Chapter))
	if r.From != 0 {
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(r.From))
		if r.To > r.From {
			sb.WriteString("-")
			sb.WriteString(strconv.Itoa(r.To))
		}
	}
	return sb.String()
}

// "<book> <chapter>[:<verse>[-<verse>]]", book may contain digits ("1 Иоанна").
var referencePattern = regexp.MustCompile(`^([0-9]?\s?[^\d:]+?)\s+(\d+)(?::(\d+)(?:-(\d+))?)?$`)

// ParseReference recognizes a passage reference in free chat text. It does
// not check the book against the loaded canon; the lookup does that.
func ParseReference(text string) (Reference, bool) {
	match := referencePattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return Reference{}, false
	}

	chapter, err := strconv.Atoi(match[2])
	if err != nil || chapter <= 0 {
		return Reference{}, false
	}
	ref := Reference{
		Book:    strings.TrimSpace(match[1]),
		Chapter: chapter,
	}
	if match[3] != "" {
		from, err := strconv.Atoi(match[3])
		if err != nil {
			return Reference{}, false
		}
		ref.From = from
		ref.To = from
	}
	if match[4] != "" {
		to, err := strconv.Atoi(match[4])
		if err != nil {
			return Reference{}, false
		}
		ref.To = to
	}
	return ref, true
}

// Lookup resolves the reference against the loaded text.
func (b *Bible) Lookup(ref Reference) string {
	if ref.From == 0 {
		return b.GetChapter(ref.Book, ref.Chapter)
	}
	return b.GetVerseRange(ref.Book, ref.Chapter, ref.From, ref.To)
}
