// Package parser converts raw proceeding pages into ordered, speaker-attributed
// statement records. The layout it understands is the Turkish parliament
// transcript format: repeating page boilerplate, attribution lines of the form
// "UPPERCASE NAME (Title) – text", and hard-wrapped statement bodies.
package parser

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/tutanak-ai/tutanak/internal/domain"
)

// ErrMalformedDocument signals that no attribution line was found anywhere in
// the document, meaning the layout is likely unsupported. Nothing should be stored.
var ErrMalformedDocument = errors.New("malformed document: no speaker attribution found")

const (
	// DefaultMinStatementLen filters attribution fragments (procedural
	// one-liners, vote call-outs) that carry no analyzable content.
	DefaultMinStatementLen = 20
	// Boilerplate patterns are only applied within these margins of a page,
	// so quoted boilerplate inside speech is never stripped.
	headerMargin = 4
	footerMargin = 3
)

// Boilerplate recognized in page headers and footers.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)T\s*B\s*M\s*M`),
	regexp.MustCompile(`(?i)Tutanak\s+Hizmetleri`),
	regexp.MustCompile(`(?i)Türkiye\s+Büyük\s+Millet\s+Meclisi`),
	regexp.MustCompile(`(?i)İncelenmemiş\s+Tutanak`),
	regexp.MustCompile(`(?i)Sayfa\s*:\s*\d+`),
	regexp.MustCompile(`(?i)^Birleşim\s*:`),
	regexp.MustCompile(`(?i)^Tarih\s*:`),
	regexp.MustCompile(`(?i)^Oturum\s*:`),
	regexp.MustCompile(`^\s*-\s*\d+\s*-\s*$`), // "- 12 -" page marker
	regexp.MustCompile(`^\s*\d+\s*$`),         // bare page number
	regexp.MustCompile(`^\s*-+\s*$`),
	regexp.MustCompile(`^\s*\*+\s*$`),
}

var trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

const turkishUpper = "ABCÇDEFGĞHIİJKLMNOÖPRSŞTUÜVYZ"

// Options tune the parser. The zero value means defaults.
type Options struct {
	MinStatementLen int
}

// Parse converts a source document into the ordered statement records it
// attributes. Statement ids are deterministic over (document id, sequence), so
// parsing the same document twice yields identical ids.
func Parse(doc domain.SourceDocument, opts Options) ([]domain.StatementRecord, error) {
	minLen := opts.MinStatementLen
	if minLen <= 0 {
		minLen = DefaultMinStatementLen
	}

	kind := doc.Kind
	if kind == "" {
		kind = domain.SessionUnknown
	}

	var (
		records    []domain.StatementRecord
		curSpeaker string
		curLines   []string
		curPage    int
		sawSpeaker bool
	)

	flush := func() {
		if curSpeaker == "" || len(curLines) == 0 {
			return
		}
		text := joinWrapped(curLines)
		if len([]rune(text)) < minLen {
			return
		}
		seq := len(records)
		records = append(records, domain.StatementRecord{
			ID:         domain.StatementID(doc.ID, seq),
			RawSpeaker: curSpeaker,
			Text:       text,
			Date:       doc.Date,
			Kind:       kind,
			SourceID:   doc.ID,
			Page:       curPage,
			Seq:        seq,
		})
	}

	for _, page := range doc.Pages {
		lines := strings.Split(page.Text, "\n")
		for i, line := range lines {
			line = strings.TrimSpace(line)
			if line == "" || len([]rune(line)) < 3 {
				continue
			}
			if inMargin(i, len(lines)) && isBoilerplate(line) {
				continue
			}

			speaker, remaining, ok := splitAttribution(line)
			if ok {
				flush()
				sawSpeaker = true
				curSpeaker = speaker
				curPage = page.Number
				curLines = curLines[:0]
				if remaining != "" {
					curLines = append(curLines, remaining)
				}
				continue
			}

			// Continuation of the current statement. Lines before the first
			// attribution are session preamble and carry no speaker.
			if curSpeaker != "" {
				curLines = append(curLines, line)
			}
		}
	}
	flush()

	if !sawSpeaker {
		return nil, ErrMalformedDocument
	}
	return records, nil
}

func inMargin(idx, total int) bool {
	return idx < headerMargin || idx >= total-footerMargin
}

func isBoilerplate(line string) bool {
	for _, p := range boilerplatePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// splitAttribution reports whether the line opens a new statement, returning
// the speaker segment as written and any text following the dash. Attribution
// lines read "UPPERCASE NAME – text" or end in a bare dash with the text on
// the next line; a trailing parenthetical (ministerial title, province) is
// part of the speaker segment but excluded from the uppercase test.
func splitAttribution(line string) (speaker, remaining string, ok bool) {
	var candidate string
	for _, sep := range []string{" - ", " – "} {
		if idx := strings.Index(line, sep); idx > 0 {
			candidate = strings.TrimSpace(line[:idx])
			remaining = strings.TrimSpace(line[idx+len(sep):])
			break
		}
	}
	if candidate == "" {
		for _, suffix := range []string{" -", " –"} {
			if strings.HasSuffix(line, suffix) {
				candidate = strings.TrimSpace(strings.TrimSuffix(line, suffix))
				break
			}
		}
	}
	if candidate == "" {
		return "", "", false
	}

	name := strings.TrimSpace(trailingParen.ReplaceAllString(candidate, ""))
	if !mostlyUppercase(name) {
		return "", "", false
	}
	return candidate, remaining, true
}

// mostlyUppercase requires at least 3 letters, 70% of them uppercase in the
// Turkish alphabet. Interjections like "(Alkışlar)" and quoted sentences fail
// this and stay inside the current statement.
func mostlyUppercase(s string) bool {
	var upper, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if strings.ContainsRune(turkishUpper, r) {
				upper++
			}
		}
	}
	if letters < 3 {
		return false
	}
	return float64(upper)/float64(letters) >= 0.7
}

// joinWrapped reconstructs sentence flow from hard-wrapped lines. Every line
// of a block joins with a single space, so statement text never embeds a
// newline regardless of how the source wrapped it.
func joinWrapped(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, " "))
}
