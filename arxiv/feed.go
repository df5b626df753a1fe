package arxiv

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alen-hh/arxiv-query-proxy/types"
)

// Feed markup is matched with patterns rather than decoded with
// encoding/xml: an <entry> with no closing tag is dropped while the rest of
// the feed is still read, and a malformed field only blanks that field.
var (
	entryPattern    = regexp.MustCompile(`<entry>[\s\S]*?</entry>`)
	titlePattern    = regexp.MustCompile(`<title>([\s\S]*?)</title>`)
	summaryPattern  = regexp.MustCompile(`<summary>([\s\S]*?)</summary>`)
	pdfLinkPattern  = regexp.MustCompile(`<link title="pdf" href="([^"]*)"`)
	authorPattern   = regexp.MustCompile(`<author>[\s\S]*?<name>(.*?)</name>[\s\S]*?</author>`)
	categoryPattern = regexp.MustCompile(`<category term="([^"]*)"`)
)

// BlockError records an entry block that could not be translated
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("entry block %d: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error {
	return e.Err
}

// TranslateResult holds the entries of a feed along with the blocks that
// were dropped. Failures never include blocks with merely missing fields.
type TranslateResult struct {
	Entries  []types.Entry
	Failures []*BlockError
}

// Extractor turns a single <entry> block into an Entry
type Extractor func(block string) (types.Entry, error)

// Translate splits feed into <entry> blocks and extracts one Entry per
// block, in document order.
func Translate(feed string) *TranslateResult {
	return TranslateWith(feed, func(block string) (types.Entry, error) {
		return parseEntry(block), nil
	})
}

// TranslateWith is Translate with a caller-supplied extractor. A block whose
// extractor fails or panics is recorded in Failures and the remaining
// blocks are still translated. Invalid UTF-8 in feed is replaced with
// U+FFFD before the feed is split.
func TranslateWith(feed string, extract Extractor) *TranslateResult {
	feed = strings.ToValidUTF8(feed, "\uFFFD")

	blocks := entryPattern.FindAllString(feed, -1)
	result := &TranslateResult{
		Entries: make([]types.Entry, 0, len(blocks)),
	}

	for i, block := range blocks {
		entry, err := extractBlock(extract, block)
		if err != nil {
			result.Failures = append(result.Failures, &BlockError{Index: i, Err: err})
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result
}

// ParseFeed returns the entries of feed, discarding per-block failures
func ParseFeed(feed string) []types.Entry {
	return Translate(feed).Entries
}

func extractBlock(extract Extractor, block string) (entry types.Entry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return extract(block)
}

// parseEntry extracts the fields of a single <entry> block. Fields that are
// missing come back empty.
func parseEntry(block string) types.Entry {
	entry := types.Entry{
		Title:      normalizeWhitespace(firstSubmatch(titlePattern, block)),
		Summary:    normalizeWhitespace(firstSubmatch(summaryPattern, block)),
		PDFLink:    firstSubmatch(pdfLinkPattern, block),
		Authors:    make([]string, 0),
		Categories: make([]string, 0),
	}

	for _, m := range authorPattern.FindAllStringSubmatch(block, -1) {
		entry.Authors = append(entry.Authors, strings.TrimSpace(m[1]))
	}

	for _, m := range categoryPattern.FindAllStringSubmatch(block, -1) {
		entry.Categories = append(entry.Categories, m[1])
	}

	return entry
}

// firstSubmatch returns the first capture group of the leftmost match, or ""
func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// normalizeWhitespace collapses whitespace runs to a single space and trims
// both ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
