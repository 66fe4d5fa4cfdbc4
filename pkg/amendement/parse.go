package amendement

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/MelodieDahi/zam/pkg/errs"
	"github.com/MelodieDahi/zam/pkg/subdiv"
)

// numPattern matches "230", "230 rect.", "230 rect. bis" and the senate
// committee form "COM-12 rect.".
var numPattern = regexp.MustCompile(`^(?:[A-Z]+-)?(\d+)(?:\s+rect\.(?:\s+([a-z]+))?)?$`)

// ParseNum splits a numbering token into the amendment number and its
// revision counter.
func ParseNum(token string) (num, rectif int, err error) {
	normalized := strings.Join(strings.Fields(token), " ")
	match := numPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, 0, errs.NewParseError("num", token, nil)
	}
	num, err = strconv.Atoi(match[1])
	if err != nil {
		return 0, 0, errs.NewParseError("num", token, err)
	}
	if !strings.Contains(normalized, "rect.") {
		return num, 0, nil
	}
	if match[2] == "" {
		return num, 1, nil
	}
	rank, known := subdiv.MultiplierRank(match[2])
	if !known {
		return 0, 0, errs.NewParseError("num", token, nil)
	}
	return num, rank, nil
}

// ParseBool accepts exactly "true" or "false".
func ParseBool(text string) (bool, error) {
	switch text {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errs.NewParseError("bool", text, nil)
}

// ParseDate reads an ISO date. The empty string means the date is not
// known and yields nil.
func ParseDate(text string) (*time.Time, error) {
	if text == "" {
		return nil, nil
	}
	date, err := time.Parse(time.DateOnly, text)
	if err != nil {
		return nil, errs.NewParseError("date", text, err)
	}
	return &date, nil
}

var fichePattern = regexp.MustCompile(`^[\w/]+(\d{5}[\da-z])\.html$`)

// ExtractMatricule returns the senator registry key found in the path of
// a senator page URL, upper-cased: "/senateur/dupont_jean14032x.html"
// gives "14032X". An empty URL yields nil.
func ExtractMatricule(pageURL string) (*string, error) {
	if pageURL == "" {
		return nil, nil
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, errs.NewParseError("matricule", pageURL, err)
	}
	match := fichePattern.FindStringSubmatch(parsed.Path)
	if match == nil {
		return nil, errs.NewParseError("matricule", pageURL, nil)
	}
	matricule := strings.ToUpper(match[1])
	return &matricule, nil
}

// AllowedTags are the elements kept by CleanHTML.
var AllowedTags = []string{"div", "p", "ul", "ol", "li", "b", "i", "strong", "em", "sub", "sup"}

var (
	contentPolicy = func() *bluemonday.Policy {
		policy := bluemonday.NewPolicy()
		policy.AllowElements(AllowedTags...)
		return policy
	}()
	strictPolicy = bluemonday.StrictPolicy()
)

// CleanHTML decodes HTML entities and strips every element outside
// AllowedTags, keeping their text content.
func CleanHTML(fragment string) string {
	return strings.TrimSpace(contentPolicy.Sanitize(html.UnescapeString(fragment)))
}

// StripHTML removes all markup, for plain-text renderings.
func StripHTML(fragment string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(fragment)))
}

// sortPending is the upstream label of an amendment not yet disposed of.
const sortPending = "En traitement"

// NormalizeSort maps the pending label to "".
func NormalizeSort(label string) string {
	label = strings.TrimSpace(label)
	if label == sortPending {
		return ""
	}
	return label
}

// Avis is the closed list of government positions on an amendment.
var Avis = []string{
	"Favorable",
	"Défavorable",
	"Favorable sous réserve de",
	"Retrait",
	"Retrait au profit de",
	"Retrait sinon rejet",
	"Retrait sous réserve de",
	"Sagesse",
}

// NormalizeAvis returns the canonical spelling of an avis, matching case
// insensitively. The second result is false for labels outside Avis.
func NormalizeAvis(label string) (string, bool) {
	label = strings.Join(strings.Fields(label), " ")
	for _, avis := range Avis {
		if strings.EqualFold(avis, label) {
			return avis, true
		}
	}
	return "", false
}
