package utils

import (
	"regexp"
	"strings"
)

// MaxSlugLength bounds every slug, derived or manually entered: explicit
// slugs pass through GenerateSlug too, so the same normalization and
// truncation apply everywhere a slug is written.
const MaxSlugLength = 50

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen  = regexp.MustCompile(`-+`)
)

// GenerateSlug derives a URL-safe slug from a title.
//
// Steps:
//  1. Strip diacritics ("Événement Été" → "Evenement Ete")
//  2. Lowercase
//  3. Replace runs of non-alphanumeric characters with a single hyphen
//  4. Trim leading/trailing hyphens
//  5. Truncate to MaxSlugLength
//
// Deriving twice from the same title yields the same slug; uniqueness is
// the database's job (unique index on posts.slug).
func GenerateSlug(input string) string {
	ascii := RemoveDiacritics(input)
	lower := strings.ToLower(ascii)

	cleaned := nonSlugChars.ReplaceAllString(lower, "-")
	normalized := multiHyphen.ReplaceAllString(cleaned, "-")
	trimmed := strings.Trim(normalized, "-")

	if len(trimmed) > MaxSlugLength {
		trimmed = strings.TrimRight(trimmed[:MaxSlugLength], "-")
	}

	return trimmed
}

// RemoveDiacritics maps accented Latin characters to their ASCII base.
// Characters with no mapping pass through unchanged; GenerateSlug drops
// anything still outside [a-z0-9] afterwards.
func RemoveDiacritics(input string) string {
	mappings := map[rune]rune{
		// Vowel A
		'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
		'ả': 'a', 'ạ': 'a', 'ă': 'a', 'ắ': 'a', 'ằ': 'a', 'ẳ': 'a', 'ẵ': 'a', 'ặ': 'a',
		'ấ': 'a', 'ầ': 'a', 'ẩ': 'a', 'ẫ': 'a', 'ậ': 'a',

		// Vowel E
		'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e', 'ẻ': 'e', 'ẽ': 'e', 'ẹ': 'e',
		'ế': 'e', 'ề': 'e', 'ể': 'e', 'ễ': 'e', 'ệ': 'e',

		// Vowel I
		'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i', 'ỉ': 'i', 'ĩ': 'i', 'ị': 'i',

		// Vowel O
		'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o', 'ø': 'o',
		'ỏ': 'o', 'ọ': 'o', 'ố': 'o', 'ồ': 'o', 'ổ': 'o', 'ỗ': 'o', 'ộ': 'o',
		'ơ': 'o', 'ớ': 'o', 'ờ': 'o', 'ở': 'o', 'ỡ': 'o', 'ợ': 'o',

		// Vowel U
		'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u', 'ủ': 'u', 'ũ': 'u', 'ụ': 'u',
		'ư': 'u', 'ứ': 'u', 'ừ': 'u', 'ử': 'u', 'ữ': 'u', 'ự': 'u',

		// Vowel Y
		'ý': 'y', 'ỳ': 'y', 'ÿ': 'y', 'ỷ': 'y', 'ỹ': 'y', 'ỵ': 'y',

		// Consonants
		'ç': 'c', 'ñ': 'n', 'đ': 'd', 'ß': 's',

		// Uppercase
		'Á': 'A', 'À': 'A', 'Â': 'A', 'Ä': 'A', 'Ã': 'A', 'Å': 'A',
		'Ả': 'A', 'Ạ': 'A', 'Ă': 'A', 'Ắ': 'A', 'Ằ': 'A', 'Ẳ': 'A', 'Ẵ': 'A', 'Ặ': 'A',
		'Ấ': 'A', 'Ầ': 'A', 'Ẩ': 'A', 'Ẫ': 'A', 'Ậ': 'A',

		'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E', 'Ẻ': 'E', 'Ẽ': 'E', 'Ẹ': 'E',
		'Ế': 'E', 'Ề': 'E', 'Ể': 'E', 'Ễ': 'E', 'Ệ': 'E',

		'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I', 'Ỉ': 'I', 'Ĩ': 'I', 'Ị': 'I',

		'Ó': 'O', 'Ò': 'O', 'Ô': 'O', 'Ö': 'O', 'Õ': 'O', 'Ø': 'O',
		'Ỏ': 'O', 'Ọ': 'O', 'Ố': 'O', 'Ồ': 'O', 'Ổ': 'O', 'Ỗ': 'O', 'Ộ': 'O',
		'Ơ': 'O', 'Ớ': 'O', 'Ờ': 'O', 'Ở': 'O', 'Ỡ': 'O', 'Ợ': 'O',

		'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U', 'Ủ': 'U', 'Ũ': 'U', 'Ụ': 'U',
		'Ư': 'U', 'Ứ': 'U', 'Ừ': 'U', 'Ử': 'U', 'Ữ': 'U', 'Ự': 'U',

		'Ý': 'Y', 'Ỳ': 'Y', 'Ÿ': 'Y', 'Ỷ': 'Y', 'Ỹ': 'Y', 'Ỵ': 'Y',

		'Ç': 'C', 'Ñ': 'N', 'Đ': 'D',
	}

	result := make([]rune, 0, len(input))
	for _, r := range input {
		if replacement, ok := mappings[r]; ok {
			result = append(result, replacement)
		} else {
			result = append(result, r)
		}
	}

	return string(result)
}
