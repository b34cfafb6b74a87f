package review

import (
	"encoding/xml"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/cardsort/internal/model"
)

var (
	reviewBlock = regexp.MustCompile(`(?s)<review\b([^>]*)>(.*?)</review>`)
	idAttr      = regexp.MustCompile(`\bid\s*=\s*["']([^"']*)["']`)
)

type reviewXML struct {
	XMLName         xml.Name `xml:"review"`
	Decision        string   `xml:"decision"`
	FinalCategory   string   `xml:"final_category"`
	FinalConfidence string   `xml:"final_confidence"`
	Reason          string   `xml:"reason"`
}

// parseReviews extracts every well-formed <review id="..."> block. Blocks
// without an id, with an unknown decision, or failing to decode are skipped.
// When an id repeats, the first block wins.
func parseReviews(text string) []model.ReviewDecision {
	var out []model.ReviewDecision
	seen := make(map[string]bool)

	for _, m := range reviewBlock.FindAllStringSubmatch(text, -1) {
		idMatch := idAttr.FindStringSubmatch(m[1])
		if idMatch == nil {
			continue
		}
		id := strings.TrimSpace(idMatch[1])
		if id == "" || seen[id] {
			continue
		}

		var rx reviewXML
		if err := xml.Unmarshal([]byte("<review>"+m[2]+"</review>"), &rx); err != nil {
			continue
		}
		decision, ok := model.ParseDecision(rx.Decision)
		if !ok {
			continue
		}

		d := model.ReviewDecision{
			TransactionID: id,
			Decision:      decision,
			FinalCategory: strings.TrimSpace(rx.FinalCategory),
			Reason:        strings.TrimSpace(rx.Reason),
		}
		if s := strings.TrimSpace(rx.FinalConfidence); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			d.FinalConfidence = math.Round(math.Max(0, math.Min(1, v))*100) / 100
		}

		seen[id] = true
		out = append(out, d)
	}
	return out
}
