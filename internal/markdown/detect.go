package markdown

import (
	"regexp"
	"strings"
)

var idioms = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s`),      // heading
	regexp.MustCompile(`(?m)^\s*[-*+]\s`),    // bullet
	regexp.MustCompile(`(?m)^\s*\d+\.\s`),    // ordered item
	regexp.MustCompile(`\*\*.+\*\*`),         // bold
	regexp.MustCompile(`\*.+\*`),             // italic
	regexp.MustCompile("`[^`]+`"),            // inline code
	regexp.MustCompile("```[\\s\\S]*```"),    // fenced code
	regexp.MustCompile(`(?m)^\s*>`),          // quote
	regexp.MustCompile(`\[.+\]\(.+\)`),       // link
	regexp.MustCompile(`!\[.+\]\(.+\)`),      // image
}

// LooksLikeMarkdown guesses whether pasted text was written as markdown.
func LooksLikeMarkdown(text string) bool {
	for _, re := range idioms {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ExportFileName returns the download name for a document export.
func ExportFileName(title string, annotated bool) string {
	name := strings.ToLower(unsafeName.ReplaceAllString(title, "_"))
	if annotated {
		return name + "_annotated.md"
	}
	return name + ".md"
}
