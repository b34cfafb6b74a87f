package llm

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errNoPrediction = errors.New("no <prediction> element")
	errNoCategory   = errors.New("no <category> element")

	categoryTag   = regexp.MustCompile(`(?s)<category>\s*([^<]+?)\s*</category>`)
	confidenceTag = regexp.MustCompile(`(?s)<confidence>\s*([\d.]+)\s*</confidence>`)
	reasoningTag  = regexp.MustCompile(`(?s)<reasoning>\s*([^<]+?)\s*</reasoning>`)
)

// parsed is the raw content of a model's <prediction> answer.
type parsed struct {
	Category   string
	Rationale  string
	Confidence float64
	// Err is set when the structured decode failed, even if salvage recovered fields.
	Err error
}

type predictionXML struct {
	XMLName    xml.Name `xml:"prediction"`
	Category   string   `xml:"category"`
	Confidence string   `xml:"confidence"`
	Reasoning  string   `xml:"reasoning"`
}

// parsePrediction never fails. Category is empty when nothing could be recovered.
func parsePrediction(text string) parsed {
	p, err := decodePrediction(text)
	if err == nil {
		return p
	}
	return salvage(text, err)
}

func decodePrediction(text string) (parsed, error) {
	start := strings.Index(text, "<prediction>")
	end := strings.LastIndex(text, "</prediction>")
	if start < 0 || end < start {
		return parsed{}, errNoPrediction
	}

	var px predictionXML
	if err := xml.Unmarshal([]byte(text[start:end+len("</prediction>")]), &px); err != nil {
		return parsed{}, fmt.Errorf("xml decode: %w", err)
	}

	category := strings.TrimSpace(px.Category)
	if category == "" {
		return parsed{}, errNoCategory
	}

	conf := 0.0
	if s := strings.TrimSpace(px.Confidence); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return parsed{}, fmt.Errorf("confidence %q: %w", s, err)
		}
		conf = v
	}

	rationale := strings.TrimSpace(px.Reasoning)
	if rationale == "" {
		rationale = "근거 없음"
	}
	return parsed{Category: category, Confidence: roundConfidence(conf), Rationale: rationale}, nil
}

func salvage(text string, cause error) parsed {
	p := parsed{Err: cause}

	if m := categoryTag.FindStringSubmatch(text); m != nil {
		p.Category = unescape(m[1])
	}
	if m := confidenceTag.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Confidence = roundConfidence(v)
		}
	}
	if m := reasoningTag.FindStringSubmatch(text); m != nil {
		p.Rationale = unescape(m[1])
	}

	if p.Category == "" {
		p.Confidence = 0
	}
	if p.Rationale == "" {
		p.Rationale = "XML 파싱 실패 (대체 파싱 사용): " + truncate(cause.Error(), 100)
	}
	return p
}

func roundConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*100) / 100
}

var entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescape(s string) string {
	return strings.TrimSpace(entityReplacer.Replace(s))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
