package scraper

import (
	"regexp"
	"strings"
)

// BlockKind classifies why a page refused to serve content
type BlockKind string

const (
	BlockNone      BlockKind = ""
	BlockCaptcha   BlockKind = "captcha"
	BlockHTTPError BlockKind = "http_error"
	BlockBotWall   BlockKind = "bot_wall"
)

// BotVerdict is the outcome of inspecting a page
type BotVerdict struct {
	Blocked bool
	Kind    BlockKind
	Score   float64
	Reasons []string
}

// Reason renders the verdict as a short failure reason
func (v BotVerdict) Reason() string {
	if !v.Blocked {
		return ""
	}
	return "blocked (" + string(v.Kind) + "): " + strings.Join(v.Reasons, "; ")
}

// BotDetector spots bot walls and CAPTCHAs on search engine pages.
// Search engines serve these instead of results when they throttle us.
type BotDetector struct {
	botPatterns     []*regexp.Regexp
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		botPatterns: compileAll(
			`unusual traffic`,
			`access denied`,
			`automated queries`,
			`please verify you are human`,
			`checking your browser`,
			`ddos protection`,
			`too many requests`,
			`our systems have detected`,
		),
		captchaPatterns: compileAll(
			`captcha`,
			`i'm not a robot`,
			`verify you are human`,
			`select all images`,
			`turnstile`,
		),
		blockPatterns: compileAll(
			`403 forbidden`,
			`429 too many requests`,
			`503 service unavailable`,
		),
	}
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// Inspect scores page text. Anything above 0.3 counts as blocked.
func (bd *BotDetector) Inspect(pageText string) BotVerdict {
	v := BotVerdict{}

	for _, p := range bd.captchaPatterns {
		if p.MatchString(pageText) {
			v.Score += 0.5
			v.Reasons = append(v.Reasons, "captcha: "+p.String()[4:])
			v.Kind = BlockCaptcha
		}
	}
	for _, p := range bd.blockPatterns {
		if p.MatchString(pageText) {
			v.Score += 0.4
			v.Reasons = append(v.Reasons, "http error: "+p.String()[4:])
			if v.Kind == BlockNone {
				v.Kind = BlockHTTPError
			}
		}
	}
	for _, p := range bd.botPatterns {
		if p.MatchString(pageText) {
			v.Score += 0.3
			v.Reasons = append(v.Reasons, p.String()[4:])
		}
	}

	// Short pages with any indicator are almost always interstitials
	if len(pageText) < 1000 && v.Score > 0 {
		v.Score += 0.2
	}
	if v.Score > 1.0 {
		v.Score = 1.0
	}

	v.Blocked = v.Score > 0.3
	if v.Blocked && v.Kind == BlockNone {
		v.Kind = BlockBotWall
	}
	return v
}
