// Package license derives feature availability from the stored license
// record and manages that record.
package license

import (
	"fmt"
	"time"

	"github.com/existflow/promptpicker/internal/model"
)

// Free tier allowance: the six defaults plus five custom prompts
const (
	MaxCustomPrompts = 5
	MaxTotalPrompts  = 11
)

// Unlimited is reported by LimitInfo for pro
const Unlimited = -1

// Feature is a capability gated on tier
type Feature string

const (
	FeatureFolders     Feature = "folders"
	FeatureDragToGroup Feature = "drag-to-group"
	FeatureAI          Feature = "ai"
)

// Decision is the outcome of a gate check. A denial is not an error; Reason
// explains it to the user.
type Decision struct {
	Allowed bool
	Reason  string
}

// LimitInfo describes how close a free user is to the prompt limit
type LimitInfo struct {
	IsAtLimit   bool `json:"isAtLimit"`
	IsNearLimit bool `json:"isNearLimit"`
	Remaining   int  `json:"remainingPrompts"`
	Total       int  `json:"totalAllowed"`
}

// IsEntitled returns pro only for a valid, unexpired pro license
func IsEntitled(lic model.License, now time.Time) model.Tier {
	if lic.IsValid && lic.Tier == model.TierPro && !lic.Expired(now) {
		return model.TierPro
	}
	return model.TierFree
}

// Effective returns the license as readers must see it: an expired record
// reads as free and invalid, whatever the stored bytes say.
func Effective(lic model.License, now time.Time) model.License {
	if lic.Tier == "" {
		lic.Tier = model.TierFree
	}
	if lic.Expired(now) {
		lic.IsValid = false
		lic.Tier = model.TierFree
	}
	return lic
}

// CanAddPrompt checks the prompt count limit
func CanAddPrompt(tier model.Tier, currentCount int) Decision {
	if tier == model.TierPro {
		return Decision{Allowed: true}
	}
	if currentCount >= MaxTotalPrompts {
		return Decision{
			Reason: fmt.Sprintf(
				"Free tier is limited to %d custom prompts (%d total including defaults). Upgrade to PRO for unlimited prompts!",
				MaxCustomPrompts, MaxTotalPrompts,
			),
		}
	}
	return Decision{Allowed: true}
}

// PromptLimitInfo reports the remaining allowance for tier
func PromptLimitInfo(tier model.Tier, currentCount int) LimitInfo {
	if tier == model.TierPro {
		return LimitInfo{Remaining: Unlimited, Total: Unlimited}
	}
	remaining := MaxTotalPrompts - currentCount
	return LimitInfo{
		IsAtLimit:   remaining <= 0,
		IsNearLimit: remaining <= 2,
		Remaining:   max(0, remaining),
		Total:       MaxTotalPrompts,
	}
}

// Allow checks a pro-only feature
func Allow(tier model.Tier, feature Feature) Decision {
	if tier == model.TierPro {
		return Decision{Allowed: true}
	}
	switch feature {
	case FeatureFolders:
		return Decision{Reason: "Folders are a PRO feature. Upgrade to PRO to organize prompts into folders!"}
	case FeatureDragToGroup:
		return Decision{Reason: "Grouping prompts is a PRO feature. Upgrade to PRO to merge prompts into folders!"}
	case FeatureAI:
		return Decision{Reason: "AI features require a PRO license. Upgrade to PRO to enhance and generate prompts!"}
	default:
		return Decision{Reason: fmt.Sprintf("%s requires a PRO license", feature)}
	}
}
