package email

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultResolver is queried when no resolver address is configured.
const DefaultResolver = "8.8.8.8:53"

// Resolver reads TXT records of the sending domain.
type Resolver struct {
	Server string
	Net    string // "udp" (default) or "tcp"
}

func (r Resolver) server() string {
	if r.Server == "" {
		return DefaultResolver
	}
	return r.Server
}

// TXT returns the joined strings of each TXT record at name.
func (r Resolver) TXT(name string) ([]string, error) {
	client := &dns.Client{Net: r.Net, Timeout: 5 * time.Second}
	message := new(dns.Msg)
	message.SetQuestion(dns.Fqdn(name), dns.TypeTXT)

	response, _, err := client.Exchange(message, r.server())
	if err != nil {
		return nil, err
	}
	if response.Rcode != dns.RcodeSuccess && response.Rcode != dns.RcodeNameError {
		return nil, fmt.Errorf("lookup %s: %s", name, dns.RcodeToString[response.Rcode])
	}

	var records []string
	for _, answer := range response.Answer {
		if txt, ok := answer.(*dns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}
	return records, nil
}

// SPF returns the domain's SPF record, or "" when none is published.
func (r Resolver) SPF(domain string) (string, error) {
	records, err := r.TXT(domain)
	if err != nil {
		return "", err
	}
	for _, rec := range records {
		if strings.HasPrefix(strings.ToLower(rec), "v=spf1") {
			return rec, nil
		}
	}
	return "", nil
}

// DMARCPolicy represents a DMARC policy
type DMARCPolicy struct {
	Published    bool   `json:"published"`
	Policy       string `json:"policy"`    // none, quarantine, reject
	SubPolicy    string `json:"subPolicy"` // none, quarantine, reject
	Percentage   int    `json:"percentage"`
	ReportURI    string `json:"reportUri,omitempty"`
	ReportFormat string `json:"reportFormat,omitempty"`
}

// DMARC retrieves the DMARC policy for a domain. A domain without a record
// gets the "none" policy.
func (r Resolver) DMARC(domain string) (*DMARCPolicy, error) {
	records, err := r.TXT("_dmarc." + domain)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if strings.HasPrefix(strings.ToLower(rec), "v=dmarc1") {
			return parseDMARCRecord(rec), nil
		}
	}
	return &DMARCPolicy{Policy: "none", SubPolicy: "none", Percentage: 100}, nil
}

func parseDMARCRecord(record string) *DMARCPolicy {
	policy := &DMARCPolicy{
		Published:  true,
		Policy:     "none",
		SubPolicy:  "",
		Percentage: 100,
	}

	for _, part := range strings.Split(record, ";") {
		part = strings.TrimSpace(part)
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "p":
			policy.Policy = value
		case "sp":
			policy.SubPolicy = value
		case "pct":
			if pct, err := strconv.Atoi(value); err == nil && pct >= 0 && pct <= 100 {
				policy.Percentage = pct
			}
		case "rua":
			policy.ReportURI = strings.Trim(value, "\"")
		case "rf":
			policy.ReportFormat = value
		}
	}

	// sp defaults to p
	if policy.SubPolicy == "" {
		policy.SubPolicy = policy.Policy
	}
	return policy
}
