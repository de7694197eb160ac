package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func init() {
	register(&embeddedJSON{})
	register(&domSelectors{})
	register(&labeledText{})
}

// Embedded JSON state. The status page hydrates from a JSON blob, and the
// alternate endpoints return JSON directly, so these keys are the most
// reliable source when present.
var (
	// "shipNumber":"3939" or "aircraftNumber": 3939
	jsonShipRe = regexp.MustCompile(`"(?:shipNumber|aircraftNumber|noseNumber)"\s*:\s*"?(\d{1,4})"?`)

	// "tailNumber":"N37536"
	jsonTailRe = regexp.MustCompile(`"(?:tailNumber|registration|aircraftRegistration)"\s*:\s*"(N[0-9A-Z]{2,7})"`)
)

type embeddedJSON struct{}

func (s *embeddedJSON) Name() string  { return "embedded_json" }
func (s *embeddedJSON) Priority() int { return 10 }

func (s *embeddedJSON) QuickCheck(body string) bool {
	return strings.Contains(body, "shipNumber") ||
		strings.Contains(body, "aircraftNumber") ||
		strings.Contains(body, "noseNumber") ||
		strings.Contains(body, "tailNumber") ||
		strings.Contains(body, "aircraftRegistration")
}

func (s *embeddedJSON) Extract(body string) string {
	if m := jsonShipRe.FindStringSubmatch(body); m != nil {
		return padShip(m[1])
	}
	if m := jsonTailRe.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// DOM selectors. Aircraft details render inside elements whose test ids or
// classes mention the aircraft; the text inside still needs a pattern
// match, but scoping to those nodes avoids picking numbers up elsewhere on
// the page.
var domShipRe = regexp.MustCompile(`#?\s*(\d{4})\b`)

type domSelectors struct{}

func (s *domSelectors) Name() string  { return "dom_selectors" }
func (s *domSelectors) Priority() int { return 20 }

func (s *domSelectors) QuickCheck(body string) bool {
	return strings.Contains(body, "aircraft") || strings.Contains(body, "Aircraft")
}

func (s *domSelectors) Extract(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	selectors := []string{
		`[data-testid*="aircraft"]`,
		`[class*="aircraft"]`,
		`[id*="aircraft"]`,
	}

	var found string
	for _, sel := range selectors {
		doc.Find(sel).EachWithBreak(func(_ int, node *goquery.Selection) bool {
			if m := domShipRe.FindStringSubmatch(node.Text()); m != nil {
				found = m[1]
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// Loose text patterns, last resort. These run over the whole body, so each
// anchors on a label word to avoid matching flight numbers or dates.
var textPatterns = []*regexp.Regexp{
	// Aircraft: Boeing 737-900 #3939
	regexp.MustCompile(`(?i)aircraft[^#\n]{0,80}#\s*(\d{4})\b`),
	// Ship 3939 / Ship No. 3939 / Ship Number: 3939
	regexp.MustCompile(`(?i)\bship(?:\s*(?:no\.?|number))?\s*[:#]?\s*(\d{4})\b`),
	// Tail Number: N37536
	regexp.MustCompile(`(?i)\btail\s*(?:number)?\s*[:#]?\s*(N\d{2,5}[A-Z]{0,2})\b`),
	// Registration N37536
	regexp.MustCompile(`(?i)\bregistration\s*[:#]?\s*(N\d{2,5}[A-Z]{0,2})\b`),
}

type labeledText struct{}

func (s *labeledText) Name() string  { return "labeled_text" }
func (s *labeledText) Priority() int { return 30 }

func (s *labeledText) QuickCheck(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "aircraft") ||
		strings.Contains(lower, "ship") ||
		strings.Contains(lower, "tail") ||
		strings.Contains(lower, "registration")
}

func (s *labeledText) Extract(body string) string {
	for _, re := range textPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

// padShip left-pads a short ship number to the 4-digit shape. Embedded
// JSON sometimes stores the id numerically, dropping leading zeros.
func padShip(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
