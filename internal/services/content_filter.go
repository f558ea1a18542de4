package services

import (
	"fmt"
	"regexp"
	"strings"
)

var BannedWords = []string{
	"fuck", "fucking", "fucker", "shit", "shitty", "bullshit",
	"asshole", "bastard", "bitch", "cunt",
	"nigger", "nigga", "chink", "spic", "kike", "faggot", "fag",
	"retard", "retarded", "tranny",
	"porn", "porno", "nude", "nudes",
	"scam", "scammer", "phishing", "malware",
}

// ContentFilter screens user-written text. Chat may carry contact details
// (players swap numbers to meet up); public reviews may not.
type ContentFilter struct {
	bannedWords    []*regexp.Regexp
	urlPattern     *regexp.Regexp
	emailPattern   *regexp.Regexp
	phonePattern   *regexp.Regexp
	repeatedChars  *regexp.Regexp
	allCapsPattern *regexp.Regexp
}

func NewContentFilter() *ContentFilter {
	f := &ContentFilter{
		bannedWords:    make([]*regexp.Regexp, 0, len(BannedWords)),
		urlPattern:     regexp.MustCompile(`(?i)(https?://\S+|www\.\S+\.\S+)`),
		emailPattern:   regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phonePattern:   regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		repeatedChars:  regexp.MustCompile(repeatedCharExpr()),
		allCapsPattern: regexp.MustCompile(`[A-Z]{5,}`),
	}
	for _, word := range BannedWords {
		f.bannedWords = append(f.bannedWords, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(word)+`\b`))
	}
	return f
}

// Message checks chat content.
func (f *ContentFilter) Message(text string) error {
	return f.check(text, true)
}

// Review checks review comments, which are public.
func (f *ContentFilter) Review(text string) error {
	return f.check(text, false)
}

func (f *ContentFilter) check(text string, allowContact bool) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, re := range f.bannedWords {
		if re.MatchString(text) {
			return rejected("inappropriate_language")
		}
	}
	if !allowContact {
		if f.urlPattern.MatchString(text) {
			return rejected("url_not_allowed")
		}
		if f.emailPattern.MatchString(text) || f.phonePattern.MatchString(text) {
			return rejected("contact_info_not_allowed")
		}
	}
	if f.repeatedChars.MatchString(text) {
		return rejected("spam_detected")
	}
	if len(f.allCapsPattern.FindAllString(text, -1)) > 2 {
		return rejected("excessive_caps")
	}
	return nil
}

// repeatedCharExpr spells out each character because RE2 has no backreferences.
func repeatedCharExpr() string {
	parts := make([]string, 0, 28)
	for c := 'a'; c <= 'z'; c++ {
		parts = append(parts, string(c)+"{6,}")
	}
	parts = append(parts, `!{6,}`, `\?{6,}`)
	return `(?i)(` + strings.Join(parts, "|") + `)`
}

var rejectionMessages = map[string]string{
	"inappropriate_language":   "your text contains inappropriate language",
	"url_not_allowed":          "links are not allowed in reviews",
	"contact_info_not_allowed": "contact information is not allowed in reviews",
	"spam_detected":            "your text looks like spam",
	"excessive_caps":           "please avoid excessive capital letters",
}

func rejected(reason string) error {
	return fmt.Errorf("%w: %s", ErrContentRejected, rejectionMessages[reason])
}
