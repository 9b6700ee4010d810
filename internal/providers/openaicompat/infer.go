package openaicompat

import (
	"strings"

	"modelhub/internal/core"
)

// inferCapabilities derives a capability set from common naming conventions
// in model identifiers. Chat is assumed for anything that is not an
// embedding, image, or audio model.
func inferCapabilities(id string) core.CapabilitySet {
	lower := strings.ToLower(id)
	caps := core.NewCapabilitySet()

	switch {
	case strings.Contains(lower, "embed"):
		caps.Add(core.CapabilityEmbedding)
		return caps
	case strings.Contains(lower, "dall-e"), strings.Contains(lower, "image"):
		caps.Add(core.CapabilityImage)
		return caps
	case strings.Contains(lower, "whisper"), strings.Contains(lower, "transcribe"):
		caps.Add(core.CapabilityHearing)
		return caps
	case strings.Contains(lower, "tts"), strings.Contains(lower, "audio"):
		caps.Add(core.CapabilityAudio)
		return caps
	}

	caps.Add(core.CapabilityChat)
	caps.Add(core.CapabilityStreaming)
	caps.Add(core.CapabilityTools)
	caps.Add(core.CapabilityJSON)

	if strings.Contains(lower, "vision") ||
		strings.Contains(lower, "4o") ||
		strings.Contains(lower, "gemini") ||
		strings.Contains(lower, "claude") {
		caps.Add(core.CapabilityVision)
	}
	if strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") ||
		strings.Contains(lower, "reason") || strings.Contains(lower, "-r1") ||
		strings.Contains(lower, "thinking") {
		caps.Add(core.CapabilityReasoning)
	}
	return caps
}

// inferTier maps identifier hints to a coarse tier. Unknown names stay
// untiered so overrides or enrichment sources can fill them in.
func inferTier(id string) core.Tier {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "preview"), strings.Contains(lower, "exp"),
		strings.Contains(lower, "alpha"), strings.Contains(lower, "beta"):
		return core.TierExperimental
	// "-mini" rather than "mini" so gemini models are not misclassified
	case strings.Contains(lower, "-mini"), strings.Contains(lower, "nano"),
		strings.Contains(lower, "flash"), strings.Contains(lower, "haiku"),
		strings.Contains(lower, "lite"), strings.Contains(lower, "turbo"):
		return core.TierEfficient
	case strings.Contains(lower, "opus"), strings.Contains(lower, "pro"),
		strings.HasPrefix(lower, "gpt-4"), strings.HasPrefix(lower, "gpt-5"),
		strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"),
		strings.Contains(lower, "sonnet"), strings.Contains(lower, "large"):
		return core.TierFlagship
	}
	return ""
}
