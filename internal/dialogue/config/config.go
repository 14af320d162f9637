// Package config holds the tunable engine parameters that govern how a
// View is projected from raw visiting state: per-language typing speed,
// complexity weighting, start delay, and the fast-forward multiplier.
package config

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// TypingConfig governs the typing-speed model described in spec.md §4.7.
type TypingConfig struct {
	// SpeedFactor multiplies every language's base speed uniformly.
	SpeedFactor float64
	// LanguageSpeeds overrides the default per-language base speed
	// (characters/second) for specific BCP-47 tags.
	LanguageSpeeds map[string]float64
	// AutoAdjust enables the character-complexity weighting pass.
	AutoAdjust bool
	// StartDelay is subtracted from elapsed time before the first
	// character becomes visible, unless the line began mid-fast-forward.
	StartDelay time.Duration
	// FastForwardFactor multiplies accumulated fast-forward duration
	// before it is added to elapsed time.
	FastForwardFactor float64
}

// defaultLanguageSpeeds holds the base characters/second for each
// supported language, per spec.md §4.7 step 1.
var defaultLanguageSpeeds = map[string]float64{
	"en": 30,
	"es": 28,
	"fr": 28,
	"de": 28,
	"it": 28,
	"ru": 25,
	"ja": 20,
	"ko": 18,
	"zh": 15,
}

// defaultFallbackSpeed is used for languages absent from both
// LanguageSpeeds and defaultLanguageSpeeds.
const defaultFallbackSpeed = 25

// DefaultTyping returns the engine's baseline typing configuration.
func DefaultTyping() TypingConfig {
	return TypingConfig{
		SpeedFactor:       1.0,
		LanguageSpeeds:    map[string]float64{},
		AutoAdjust:        true,
		StartDelay:        300 * time.Millisecond,
		FastForwardFactor: 4.0,
	}
}

// baseSpeed resolves the primary-language base speed for a BCP-47 tag,
// falling back to defaultFallbackSpeed for anything unrecognized.
func (c TypingConfig) baseSpeed(lang string) float64 {
	primary := canonicalPrimary(lang)
	if v, ok := c.LanguageSpeeds[primary]; ok {
		return v
	}
	if v, ok := defaultLanguageSpeeds[primary]; ok {
		return v
	}
	return defaultFallbackSpeed
}

func canonicalPrimary(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(lang)
	}
	base, _ := tag.Base()
	return base.String()
}

// ComplexityFactor weighs a string's character mix per spec.md §4.7 step
// 2: ASCII 1.0, Hiragana/Katakana 0.8, CJK Unified Ideographs 0.6, other
// 0.9, averaged over the string's characters.
func ComplexityFactor(s string) float64 {
	if s == "" {
		return 1.0
	}
	var total float64
	var count int
	for _, r := range s {
		total += runeWeight(r)
		count++
	}
	return total / float64(count)
}

func runeWeight(r rune) float64 {
	switch {
	case r < 0x80:
		return 1.0
	case r >= 0x3040 && r <= 0x30FF:
		return 0.8 // Hiragana + Katakana
	case r >= 0x4E00 && r <= 0x9FFF:
		return 0.6 // CJK Unified Ideographs
	default:
		return 0.9
	}
}

// EffectiveSpeed computes the final characters/second rate for rendering
// text, per spec.md §4.7 step 3: base language speed, optionally weighted
// by complexity, times the uniform speed factor, times the line's own
// speed multiplier (default 1.0 if lineSpeed is nil).
func (c TypingConfig) EffectiveSpeed(lang, text string, lineSpeed *float32) float64 {
	speed := c.baseSpeed(lang) * c.SpeedFactor
	if c.AutoAdjust {
		speed *= ComplexityFactor(text)
	}
	if lineSpeed != nil {
		speed *= float64(*lineSpeed)
	}
	return speed
}

// Config is the root engine configuration.
type Config struct {
	Language string
	Typing   TypingConfig
}

// Default returns the engine's baseline configuration: English, the
// default typing model.
func Default() Config {
	return Config{Language: "en", Typing: DefaultTyping()}
}
