package services

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ahmetcoskunkizilkaya/sportpartner/internal/models"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// latinFold spells out Latin letters that have no canonical decomposition.
var latinFold = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"æ", "ae", "Æ", "ae",
	"œ", "oe", "Œ", "oe",
	"ø", "o", "Ø", "o",
	"ł", "l", "Ł", "l",
	"đ", "d", "Đ", "d",
	"ð", "d", "Ð", "d",
	"þ", "th", "Þ", "th",
	"ı", "i",
)

// Slugify folds accents, lowercases and joins alphanumeric runs with '-'.
// Letters outside the Latin script are dropped, so a name written entirely
// in Cyrillic or CJK yields "" and productSlug falls back to "activity".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, latinFold.Replace(s))
	if err != nil {
		folded = latinFold.Replace(s)
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// productSlug returns base, or base-N with the smallest free N. The product
// being renamed (exclude) does not count as a collision.
func productSlug(db *gorm.DB, base string, exclude uuid.UUID) (string, error) {
	if base == "" {
		base = "activity"
	}

	var taken []string
	q := db.Model(&models.Product{}).Where("(slug = ? OR slug LIKE ?)", base, base+"-%")
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Pluck("slug", &taken).Error; err != nil {
		return "", err
	}

	used := make(map[string]bool, len(taken))
	for _, s := range taken {
		used[s] = true
	}
	if !used[base] {
		return base, nil
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate, nil
		}
	}
}
