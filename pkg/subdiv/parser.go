package subdiv

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MelodieDahi/zam/pkg/errs"
)

// Multipliers is the closed set of Latin multiplicative adverbs used to
// number inserted subdivisions, in order.
var Multipliers = []string{
	"bis", "ter", "quater", "quinquies", "sexies", "septies", "octies",
	"nonies", "decies", "undecies", "duodecies", "terdecies",
	"quaterdecies", "quindecies", "sexdecies", "septdecies", "octodecies",
	"novodecies", "vicies",
}

var multiplierIndex = func() map[string]int {
	index := make(map[string]int, len(Multipliers))
	for position, word := range Multipliers {
		index[word] = position
	}
	return index
}()

// MultiplierRank returns the ordinal rank of a multiplier word: "bis" is
// 2, "ter" is 3 and so on. The second result is false for words outside
// the closed set.
func MultiplierRank(word string) (int, bool) {
	position, ok := multiplierIndex[strings.ToLower(word)]
	if !ok {
		return 0, false
	}
	return position + 2, true
}

var keywords = map[string]string{
	"article":  TypeArticle,
	"articles": TypeArticle,
	"art":      TypeArticle,
	"chapitre": TypeChapitre,
	"titre":    TypeTitre,
	"section":  TypeSection,
	"annexe":   TypeAnnexe,
	"annexes":  TypeAnnexe,
}

var positions = map[string]string{
	"avant": PosAvant,
	"apres": PosApres,
}

// firstOrdinals are the spellings of "first" after a subdivision keyword.
var firstOrdinals = map[string]bool{
	"premier":  true,
	"premiere": true,
	"1er":      true,
	"1re":      true,
	"ier":      true,
	"er":       true,
}

var (
	digitsPattern      = regexp.MustCompile(`^\d+$`)
	digitPrefixPattern = regexp.MustCompile(`^\d+`)
	romanPattern       = regexp.MustCompile(`^[ivxlcdm]+$`)
	letterPattern      = regexp.MustCompile(`^[A-Z]$`)
)

// Parse turns a free-text legislative reference into a Subdivision.
//
// Input without any recognised keyword or leading number yields the zero
// Subdivision and a nil error. A number token that cannot be read as an
// integer ("12a", or a digit run that overflows) yields a *errs.ParseError.
func Parse(text string) (Subdivision, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Subdivision{}, nil
	}
	lower := make([]string, len(tokens))
	for tokenIndex, token := range tokens {
		lower[tokenIndex] = strings.ToLower(token)
	}

	if strings.HasPrefix(lower[0], "intitule") {
		return Subdivision{Type: TypeTitre}, nil
	}

	cursor := 0
	position := ""

	// "Article(s) additionnel(s) avant|après l'article N"
	if keywords[lower[0]] == TypeArticle && len(lower) > 1 && strings.HasPrefix(lower[1], "additionnel") {
		cursor = 2
	}
	if cursor < len(lower) {
		if pos, ok := positions[lower[cursor]]; ok {
			position = pos
			cursor++
		}
	}
	if cursor >= len(lower) {
		return Subdivision{}, nil
	}

	kind, ok := keywords[strings.TrimPrefix(lower[cursor], "l'")]
	if ok {
		cursor++
	} else if digitPrefixPattern.MatchString(lower[cursor]) {
		// a bare number such as "7 bis" refers to an article
		kind = TypeArticle
	} else {
		return Subdivision{}, nil
	}

	result := Subdivision{Type: kind, Pos: position}
	if cursor >= len(lower) {
		return result, nil
	}

	num, consumed, err := parseNumber(lower[cursor], kind)
	if err != nil {
		return Subdivision{}, err
	}
	if !consumed {
		return result, nil
	}
	result.Num = num
	cursor++

	if cursor < len(lower) {
		if _, isMult := multiplierIndex[lower[cursor]]; isMult {
			result.Mult = lower[cursor]
			cursor++
		}
	}
	if cursor < len(tokens) && letterPattern.MatchString(tokens[cursor]) {
		result.Mult = strings.TrimSpace(result.Mult + " " + tokens[cursor])
		cursor++
	}

	// trailing modifier: "Article 7 bis avant"
	if cursor < len(lower) && result.Pos == "" {
		if pos, ok := positions[lower[cursor]]; ok {
			result.Pos = pos
		}
	}

	return result, nil
}

// parseNumber reads the identifier following a subdivision keyword. The
// boolean result is false when the token is not an identifier at all
// (e.g. "Article unique"), in which case the subdivision has no number.
//
// Titles and chapters are numbered in roman numerals, so their first
// ordinal ("Ier", "1er", "premier") reads as "I"; articles and the other
// kinds use "1".
func parseNumber(token, kind string) (string, bool, error) {
	romanKind := kind == TypeTitre || kind == TypeChapitre
	switch {
	case firstOrdinals[token]:
		if romanKind {
			return "I", true, nil
		}
		return "1", true, nil
	case digitsPattern.MatchString(token):
		value, err := strconv.Atoi(token)
		if err != nil {
			return "", false, errs.NewParseError("subdivision number", token, err)
		}
		return strconv.Itoa(value), true, nil
	case digitPrefixPattern.MatchString(token):
		return "", false, errs.NewParseError("subdivision number", token, strconv.ErrSyntax)
	case kind != TypeArticle && romanPattern.MatchString(token):
		return strings.ToUpper(token), true, nil
	}
	return "", false, nil
}

// tokenize normalizes whitespace, apostrophes and accents, strips
// punctuation glued to words, and splits the text into tokens. Case is
// preserved so that capital letter suffixes ("bis A") survive.
func tokenize(text string) []string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		text,
	)
	if err != nil {
		folded = text
	}
	folded = strings.NewReplacer("\u2019", "'", "\u00a0", " ", "\u202f", " ").Replace(folded)

	fields := strings.Fields(folded)
	tokens := fields[:0]
	for _, field := range fields {
		trimmed := strings.TrimRight(field, ".,;:()")
		trimmed = strings.TrimLeft(trimmed, "(")
		if trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}
