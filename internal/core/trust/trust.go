// Package trust holds the published trust score formula and its report projection
package trust

// Weights of the additive formula; these are a public contract surfaced as the score breakdown
const (
	Base            = 50
	DNSBonus        = 20
	DNSSECBonus     = 10
	HTTPSBonus      = 15
	MultiLayerBonus = 5
)

// Proofs are the independently verified signals for one alias
type Proofs struct {
	DNSVerified   bool `json:"dnsVerified"`
	HTTPSVerified bool `json:"httpsVerified"`
	DNSSECEnabled bool `json:"dnssecEnabled"`
}

// Breakdown itemizes a score
type Breakdown struct {
	BaseScore       int `json:"baseScore"`
	DNSBonus        int `json:"dnsBonus"`
	DNSSECBonus     int `json:"dnssecBonus"`
	HTTPSBonus      int `json:"httpsBonus"`
	MultiLayerBonus int `json:"multiLayerBonus"`
}

// Total sums the breakdown clamped to 0..100
func (b Breakdown) Total() int {
	return clamp(b.BaseScore + b.DNSBonus + b.DNSSECBonus + b.HTTPSBonus + b.MultiLayerBonus)
}

// Explain returns the per-signal contributions for p
func Explain(p Proofs) Breakdown {
	b := Breakdown{BaseScore: Base}
	if p.DNSVerified {
		b.DNSBonus = DNSBonus
	}
	if p.DNSSECEnabled {
		b.DNSSECBonus = DNSSECBonus
	}
	if p.HTTPSVerified {
		b.HTTPSBonus = HTTPSBonus
	}
	if p.DNSVerified && p.HTTPSVerified {
		b.MultiLayerBonus = MultiLayerBonus
	}
	return b
}

// Score is 50 + 20·dns + 10·dnssec + 15·https + 5·(dns∧https), clamped to [0,100]
func Score(p Proofs) int { return Explain(p).Total() }

// Status buckets
const (
	StatusExcellent = "excellent"
	StatusGood      = "good"
	StatusFair      = "fair"
	StatusPoor      = "poor"
)

// Status labels a score
func Status(score int) string {
	switch {
	case score >= 90:
		return StatusExcellent
	case score >= 75:
		return StatusGood
	case score >= 60:
		return StatusFair
	default:
		return StatusPoor
	}
}

// Recommendations lists one remediation per missing proof, most valuable first
func Recommendations(p Proofs) []string {
	var out []string
	if !p.DNSVerified {
		out = append(out, "Publish an oa1:<chain> TXT record with recipient_address for this domain to earn the DNS bonus (+20)")
	}
	if !p.HTTPSVerified {
		out = append(out, "Serve /.well-known/alias.json over HTTPS listing your addresses to earn the HTTPS bonus (+15)")
	}
	if !p.DNSSECEnabled {
		out = append(out, "Enable DNSSEC signing for the zone so resolvers can authenticate the TXT record (+10)")
	}
	if !(p.DNSVerified && p.HTTPSVerified) {
		out = append(out, "Verify through both DNS and HTTPS to earn the multi-layer bonus (+5)")
	}
	return out
}

// Report is the read-only trust projection of a stored alias record
type Report struct {
	Alias              string    `json:"alias"`
	TrustScore         int       `json:"trustScore"`
	VerificationMethod string    `json:"verificationMethod"`
	Proofs             Proofs    `json:"proofs"`
	Breakdown          Breakdown `json:"breakdown"`
	Status             string    `json:"status"`
	Recommendations    []string  `json:"recommendations"`
}

// NewReport builds a report; the score is recomputed from the proofs so the breakdown always adds up
func NewReport(alias, method string, p Proofs) Report {
	b := Explain(p)
	score := b.Total()
	recs := Recommendations(p)
	if recs == nil {
		recs = []string{}
	}
	return Report{
		Alias:              alias,
		TrustScore:         score,
		VerificationMethod: method,
		Proofs:             p,
		Breakdown:          b,
		Status:             Status(score),
		Recommendations:    recs,
	}
}

func clamp(n int) int {
	return min(max(n, 0), 100)
}
