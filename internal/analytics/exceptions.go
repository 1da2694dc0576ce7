package analytics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/wesm/stack-digest/internal/models"
)

// exceptionVocabulary lists the Java exception and error types that are
// counted in question text
var exceptionVocabulary = []string{
	"ClassNotFoundException",
	"CloneNotSupportedException",
	"IllegalAccessException",
	"InstantiationException",
	"InterruptedException",
	"NoSuchFieldException",
	"NoSuchMethodException",
	"ArithmeticException",
	"ArrayStoreException",
	"ClassCastException",
	"IllegalArgumentException",
	"IllegalMonitorStateException",
	"IllegalStateException",
	"IndexOutOfBoundsException",
	"NegativeArraySizeException",
	"NullPointerException",
	"SecurityException",
	"UnsupportedOperationException",
	"ArrayIndexOutOfBoundsException",
	"StringIndexOutOfBoundsException",
	"NumberFormatException",

	"AssertionError",
	"ClassCircularityError",
	"ClassFormatError",
	"ExceptionInInitializerError",
	"IncompatibleClassChangeError",
	"NoClassDefFoundError",
	"UnsatisfiedLinkError",
	"VerifyError",
	"InternalError",
	"OutOfMemoryError",
	"StackOverflowError",
	"UnknownError",
	"AbstractMethodError",
	"IllegalAccessError",
	"InstantiationError",
	"NoSuchFieldError",
	"NoSuchMethodError",
}

var (
	exceptionPattern   = compileVocabulary(exceptionVocabulary)
	canonicalException = make(map[string]string, len(exceptionVocabulary))
)

func init() {
	for _, name := range exceptionVocabulary {
		canonicalException[strings.ToLower(name)] = name
	}
}

func compileVocabulary(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// CanonicalException returns the vocabulary spelling of name, matched
// case-insensitively after trimming
func CanonicalException(name string) (string, bool) {
	canonical, ok := canonicalException[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// ExceptionCounts holds mention counts keyed by canonical exception name,
// remembering the order in which each name was first seen
type ExceptionCounts struct {
	order  []string
	counts map[string]int
}

// CountExceptions scans the title and then the body of every question, in
// the order given, and counts each vocabulary match
func CountExceptions(questions []models.QuestionStats) *ExceptionCounts {
	c := &ExceptionCounts{counts: make(map[string]int)}
	for _, q := range questions {
		c.scan(q.Title)
		c.scan(q.Body)
	}
	return c
}

func (c *ExceptionCounts) scan(text string) {
	if text == "" {
		return
	}
	for _, match := range exceptionPattern.FindAllString(text, -1) {
		name := canonicalException[strings.ToLower(match)]
		if _, seen := c.counts[name]; !seen {
			c.order = append(c.order, name)
		}
		c.counts[name]++
	}
}

// Rank returns the topN most mentioned exceptions, ties kept in first-seen
// order
func (c *ExceptionCounts) Rank(topN int) []models.ExceptionFrequency {
	if topN <= 0 {
		return []models.ExceptionFrequency{}
	}

	ranked := make([]models.ExceptionFrequency, 0, len(c.order))
	for _, name := range c.order {
		ranked = append(ranked, models.ExceptionFrequency{Exception: name, Frequency: c.counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Frequency > ranked[j].Frequency
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// FrequencyOf returns the mention count of one exception. Unknown or unseen
// names count 0.
func (c *ExceptionCounts) FrequencyOf(name string) int {
	canonical, ok := CanonicalException(name)
	if !ok {
		return 0
	}
	return c.counts[canonical]
}
