// Package abuse scores signup attempts with cheap heuristics so obviously
// throwaway accounts can be blocked or routed to review before they reach
// the generative backend.
package abuse

import (
	"strings"
	"sync"
	"time"
	"unicode"
)

type Verdict string

const (
	VerdictAllow  Verdict = "allow"
	VerdictReview Verdict = "review"
	VerdictBlock  Verdict = "block"
)

// Thresholds mapping score to verdict.
const (
	reviewThreshold = 30
	blockThreshold  = 60
)

// Signup is one signup attempt as seen by the API layer.
type Signup struct {
	Email     string `json:"email"`
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// Result is the scored outcome. Reasons name every heuristic that fired,
// for audit logs and manual review.
type Result struct {
	Score   int      `json:"score"`
	Verdict Verdict  `json:"verdict"`
	Reasons []string `json:"reasons,omitempty"`
}

// Scorer holds the per-IP signup tracker. Safe for concurrent use.
type Scorer struct {
	mu     sync.Mutex
	byIP   map[string][]time.Time
	now    func() time.Time
	window time.Duration
}

const ipBurstLimit = 3

func NewScorer() *Scorer {
	return NewScorerWithClock(time.Now)
}

// NewScorerWithClock creates a Scorer with a custom clock for the per-IP
// window. Tests pass a fake clock to step time deterministically.
func NewScorerWithClock(now func() time.Time) *Scorer {
	return &Scorer{
		byIP:   make(map[string][]time.Time),
		now:    now,
		window: 10 * time.Minute,
	}
}

var disposableDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.com":      true,
	"temp-mail.org":     true,
	"throwaway.email":   true,
	"yopmail.com":       true,
	"sharklasers.com":   true,
	"getnada.com":       true,
	"dispostable.com":   true,
}

var suspiciousTLDs = map[string]bool{
	"tk": true, "ml": true, "ga": true, "cf": true, "gq": true,
}

var botUASubstrings = []string{
	"curl", "wget", "python-requests", "httpclient", "headless", "phantomjs",
}

// Score evaluates one signup. It records the attempt in the per-IP tracker
// as a side effect; given identical tracker state the result is fully
// deterministic. Never errors: unparseable input just scores high.
func (s *Scorer) Score(up Signup) Result {
	var (
		score   int
		reasons []string
	)
	add := func(points int, reason string) {
		score += points
		reasons = append(reasons, reason)
	}

	local, domain, ok := splitEmail(up.Email)
	if !ok {
		add(40, "malformed email")
	} else {
		if disposableDomains[domain] {
			add(40, "disposable email domain")
		}
		if tld := domain[strings.LastIndex(domain, ".")+1:]; suspiciousTLDs[tld] {
			add(15, "suspicious email TLD")
		}
		if digitHeavy(local) {
			add(20, "digit-heavy email local part")
		}
		if strings.Count(local, "+") >= 2 {
			add(15, "stacked plus-addressing")
		}
	}

	ua := strings.ToLower(strings.TrimSpace(up.UserAgent))
	if ua == "" {
		add(25, "empty user agent")
	} else {
		for _, bot := range botUASubstrings {
			if strings.Contains(ua, bot) {
				add(25, "bot user agent")
				break
			}
		}
	}

	if up.IP != "" && s.recordAndCount(up.IP) > ipBurstLimit {
		add(30, "repeated signups from IP")
	}

	return Result{Score: score, Verdict: verdictFor(score), Reasons: reasons}
}

func verdictFor(score int) Verdict {
	switch {
	case score >= blockThreshold:
		return VerdictBlock
	case score >= reviewThreshold:
		return VerdictReview
	default:
		return VerdictAllow
	}
}

// recordAndCount appends this attempt and returns how many attempts the IP
// has made inside the window, including this one. Old entries are pruned
// on access so the map cannot grow unbounded per IP.
func (s *Scorer) recordAndCount(ip string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)
	kept := s.byIP[ip][:0]
	for _, at := range s.byIP[ip] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	s.byIP[ip] = kept
	return len(kept)
}

func splitEmail(email string) (local, domain string, ok bool) {
	email = strings.TrimSpace(strings.ToLower(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	local, domain = email[:at], email[at+1:]
	if !strings.Contains(domain, ".") {
		return "", "", false
	}
	return local, domain, true
}

// digitHeavy reports whether at least half of the local part is digits and
// there are at least four of them, e.g. "user84123".
func digitHeavy(local string) bool {
	digits := 0
	for _, r := range local {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 4 && digits*2 >= len(local)
}
