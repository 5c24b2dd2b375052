package domain

// Tier is a priority class of AI provider, distinguished by cost and control.
// Priority order is SelfHosted > Premium > Free.
type Tier string

const (
	TierSelfHosted Tier = "selfhosted"
	TierPremium    Tier = "premium"
	TierFree       Tier = "free"
)

// Candidate is one (tier, provider) pair the coordinator may attempt.
type Candidate struct {
	Tier     Tier
	Provider string
}

// Label returns the observability label stored as providerUsed.
func (c Candidate) Label() string {
	return string(c.Tier) + "/" + c.Provider
}

// Capabilities is the value object describing which provider credentials are
// configured. It is computed once per run and passed explicitly into the
// selector so no global state is re-read mid-run.
type Capabilities struct {
	SelfHosted bool
	Premium    map[string]bool
	Free       map[string]bool
}

// HasPremium reports whether the named premium provider is configured.
func (c Capabilities) HasPremium(name string) bool {
	return c.Premium[name]
}

// HasFree reports whether the named free provider is configured.
func (c Capabilities) HasFree(name string) bool {
	return c.Free[name]
}
