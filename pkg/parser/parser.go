package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mh131105/TP1-BD/constants"
	"github.com/mh131105/TP1-BD/types"
	"github.com/mh131105/TP1-BD/utils/logger"
	"github.com/mh131105/TP1-BD/utils/typeutils"
)

// Line prefixes recognized by the record state machine. Matching is
// case-sensitive except for the discontinued marker, the review tallies
// and the review lines themselves.
const (
	prefixID         = "Id:"
	prefixASIN       = "ASIN:"
	prefixTitle      = "title:"
	prefixGroup      = "group:"
	prefixSalesrank  = "salesrank:"
	prefixSimilar    = "similar:"
	prefixCategories = "categories:"
	prefixReviews    = "reviews:"
)

var (
	// <yyyy-m-d> customer: <id> rating: <n> votes: <n> helpful: <n>
	// The dump misspells "customer" as "cutomer" in places.
	reviewLineRegex = regexp.MustCompile(
		`(?i)^(\d{4}-\d{1,2}-\d{1,2})\s+(?:customer|cutomer)\s*:\s*(\S+)\s+rating\s*:\s*(\d+)\s+votes\s*:\s*(\d+)\s+helpful\s*:\s*(\d+)$`)

	reviewTotalRegex      = regexp.MustCompile(`(?i)total\s*:\s*(\d+)`)
	reviewDownloadedRegex = regexp.MustCompile(`(?i)downloaded\s*:\s*(\d+)`)
	reviewAvgRegex        = regexp.MustCompile(`(?i)avg\s*rating\s*:\s*([0-9.]+)`)
)

const maxLineSize = 1024 * 1024

// Parser assembles one product record per "Id:" marker from the raw line
// stream. The format announces sub-list lengths inline (categories,
// reviews); the parser trusts those counts and reads exactly that many
// lines, so a wrong count desynchronizes the remainder of the stream.
type Parser struct {
	scanner *bufio.Scanner
	lineNo  int
	current *types.ProductRecord
}

func New(reader io.Reader) *Parser {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Parser{scanner: scanner}
}

// Next returns the following complete record. io.EOF signals a cleanly
// exhausted stream; any other error is a mid-body read failure and the
// caller must treat it as fatal.
func (p *Parser) Next() (*types.ProductRecord, error) {
	for {
		line, ok := p.readLine()
		if !ok {
			if err := p.scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read input at line %d: %s", p.lineNo, err)
			}
			if p.current != nil {
				record := p.current
				p.current = nil
				return record, nil
			}
			return nil, io.EOF
		}

		if record := p.consume(line); record != nil {
			return record, nil
		}
	}
}

// consume dispatches one line; it returns the previous record when the
// line is an "Id:" marker that closes it.
func (p *Parser) consume(line string) *types.ProductRecord {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	switch {
	case strings.HasPrefix(trimmed, prefixID):
		previous := p.current
		p.current = &types.ProductRecord{ID: typeutils.Int(valueAfter(trimmed, prefixID), 0)}
		return previous
	case p.current == nil:
		// lines before the first marker carry no record context
		return nil
	case strings.HasPrefix(trimmed, prefixASIN):
		p.current.ASIN = valueAfter(trimmed, prefixASIN)
	case strings.HasPrefix(strings.ToLower(trimmed), constants.DiscontinuedTitle):
		p.current.Title = typeutils.Ptr(constants.DiscontinuedTitle)
		p.current.Discontinued = true
	case strings.HasPrefix(trimmed, prefixTitle):
		p.current.Title = typeutils.Ptr(valueAfter(trimmed, prefixTitle))
	case strings.HasPrefix(trimmed, prefixGroup):
		p.current.Group = typeutils.Ptr(valueAfter(trimmed, prefixGroup))
	case strings.HasPrefix(trimmed, prefixSalesrank):
		p.current.Salesrank = typeutils.Ptr(typeutils.Int(valueAfter(trimmed, prefixSalesrank), 0))
	case strings.HasPrefix(trimmed, prefixSimilar):
		p.parseSimilar(valueAfter(trimmed, prefixSimilar))
	case strings.HasPrefix(trimmed, prefixCategories):
		p.parseCategories(valueAfter(trimmed, prefixCategories))
	case strings.HasPrefix(trimmed, prefixReviews):
		p.parseReviews(trimmed)
	}
	return nil
}

// similar: <count> <asin> <asin> ... The declared count bounds how many
// tokens are taken; a missing or malformed count means none.
func (p *Parser) parseSimilar(value string) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return
	}
	count := typeutils.Int(fields[0], 0)
	if count <= 0 {
		return
	}
	targets := fields[1:]
	if count < len(targets) {
		targets = targets[:count]
	}
	p.current.Similar = append(p.current.Similar, targets...)
}

// categories: <count>, followed by exactly count path lines.
func (p *Parser) parseCategories(value string) {
	fields := strings.Fields(value)
	count := 0
	if len(fields) > 0 {
		count = typeutils.Int(fields[0], 0)
	}
	if count <= 0 {
		return
	}

	lines, complete := p.readLines(count)
	if !complete {
		logger.Warnf("record %d: stream ended inside a categories block (wanted %d lines, got %d)", p.current.ID, count, len(lines))
	}
	for _, pathLine := range lines {
		if path := parseCategoryPath(pathLine); len(path) > 0 {
			p.current.Categories = append(p.current.Categories, path)
		}
	}
}

// reviews: total: <n> downloaded: <n> avg rating: <f>, followed by exactly
// <downloaded> review lines. A review line that does not match the grammar
// is dropped, never fatal.
func (p *Parser) parseReviews(line string) {
	if m := reviewTotalRegex.FindStringSubmatch(line); m != nil {
		p.current.ReviewTotal = typeutils.Ptr(typeutils.Int(m[1], 0))
	}
	downloaded := 0
	if m := reviewDownloadedRegex.FindStringSubmatch(line); m != nil {
		downloaded = typeutils.Int(m[1], 0)
		p.current.ReviewDownloaded = typeutils.Ptr(downloaded)
	}
	if m := reviewAvgRegex.FindStringSubmatch(line); m != nil {
		p.current.ReviewAvgRating = typeutils.Ptr(typeutils.Float(m[1], 0))
	}

	if downloaded <= 0 {
		return
	}

	lines, complete := p.readLines(downloaded)
	if !complete {
		logger.Warnf("record %d: stream ended inside a reviews block (wanted %d lines, got %d)", p.current.ID, downloaded, len(lines))
	}
	for _, reviewLine := range lines {
		entry, ok := parseReviewLine(reviewLine)
		if !ok {
			logger.Debugf("record %d: dropping unparsable review line: %s", p.current.ID, strings.TrimSpace(reviewLine))
			continue
		}
		p.current.Reviews = append(p.current.Reviews, entry)
	}
}

// readLines consumes exactly n raw lines regardless of their content. It
// returns what it got plus false when the stream ended short; the caller
// aborts the surrounding sub-block without failing the record.
func (p *Parser) readLines(n int) ([]string, bool) {
	lines := make([]string, 0, n)
	for len(lines) < n {
		line, ok := p.readLine()
		if !ok {
			return lines, false
		}
		lines = append(lines, line)
	}
	return lines, true
}

func (p *Parser) readLine() (string, bool) {
	if !p.scanner.Scan() {
		return "", false
	}
	p.lineNo++
	return p.scanner.Text(), true
}

// parseCategoryPath splits one "|Books[283155]|Subjects[1000]|..." line
// into ordered segments, root first. Segments whose bracketed id is not
// numeric are dropped; bracketless segments stay name-only.
func parseCategoryPath(line string) types.CategoryPath {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")

	var path types.CategoryPath
	for _, segment := range strings.Split(trimmed, "|") {
		if segment == "" {
			continue
		}
		open := strings.LastIndex(segment, "[")
		if open < 0 {
			path = append(path, types.CategorySegment{Name: segment})
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(segment[open+1:], "]"))
		if err != nil {
			logger.Debugf("skipping category segment %q: non-numeric id", segment)
			continue
		}
		path = append(path, types.CategorySegment{Name: segment[:open], ID: id, HasID: true})
	}
	return path
}

func parseReviewLine(line string) (types.ReviewEntry, bool) {
	m := reviewLineRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return types.ReviewEntry{}, false
	}
	return types.ReviewEntry{
		Date:       m[1],
		CustomerID: m[2],
		Rating:     typeutils.Int(m[3], 0),
		Votes:      typeutils.Int(m[4], 0),
		Helpful:    typeutils.Int(m[5], 0),
	}, true
}

func valueAfter(line, prefix string) string {
	return strings.TrimSpace(line[len(prefix):])
}
