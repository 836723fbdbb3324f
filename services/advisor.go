package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lborres/realty/core"
)

var strategyOptions = []string{
	"Low Risk + Discounted",
	"High Cashflow Rental",
	"Renovate & Rent/Sell",
	"Buy & Hold (Long-Term Growth)",
	"Development",
}

// Advisor builds dashboard prompts and forwards them to a ChatCompleter.
type Advisor struct {
	chat  core.ChatCompleter
	prefs core.PreferencesProvider
}

var _ core.AdvisorProvider = (*Advisor)(nil)

func NewAdvisor(chat core.ChatCompleter, prefs core.PreferencesProvider) *Advisor {
	return &Advisor{chat: chat, prefs: prefs}
}

// SuggestSuburbs asks for suburbs matching the buyer's saved preferences.
// Missing preferences render as N/A.
func (a *Advisor) SuggestSuburbs(ctx context.Context, userID, request string) (string, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		v := core.NewValidationError()
		v.Add("prompt", msgRequired("prompt"))
		return "", v
	}

	prefs := core.Preferences{}
	if a.prefs != nil {
		p, err := a.prefs.GetPreferences(ctx, userID)
		switch {
		case err == nil:
			prefs = p
		case !errors.Is(err, core.ErrNotImplemented):
			return "", err
		}
	}

	prompt := fmt.Sprintf(
		"Based on these preferences: Location: %s, Property Type: %s, Budget: %s, Lifestyle: %s. "+
			"User's specific request: %q. Suggest suitable suburbs and reasons. "+
			"Focus on general advice and avoid specific financial recommendations.",
		prefString(prefs, "location"),
		prefString(prefs, "propertyType"),
		prefString(prefs, "budget"),
		prefString(prefs, "lifestyle"),
		request,
	)

	return a.chat.Complete(ctx, []core.ChatMessage{{Role: "user", Content: prompt}})
}

// SuggestStrategy picks one of the fixed investment strategies for goal.
func (a *Advisor) SuggestStrategy(ctx context.Context, goal string) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		v := core.NewValidationError()
		v.Add("goal", msgRequired("goal"))
		return "", v
	}

	prompt := fmt.Sprintf(
		"I am an investor. My investment goals and considerations are: %q. "+
			"Based on this, suggest a suitable real estate investment strategy from the following options: %s. "+
			"Provide a brief explanation for your suggestion. Avoid specific financial advice.",
		goal, strings.Join(strategyOptions, ", "),
	)

	return a.chat.Complete(ctx, []core.ChatMessage{{Role: "user", Content: prompt}})
}

func prefString(p core.Preferences, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return "N/A"
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return "N/A"
	}
	return s
}
