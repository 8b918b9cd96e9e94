package models

import (
	"strings"
	"time"
)

// AccessStatus classifies how a jurisdiction regulates access to a substance.
type AccessStatus string

const (
	StatusApprovedMedicalUse  AccessStatus = "ApprovedMedicalUse"
	StatusBanned              AccessStatus = "Banned"
	StatusLimitedAccessTrials AccessStatus = "LimitedAccessTrials"
	StatusUnknown             AccessStatus = "Unknown"
)

// ParseAccessStatus maps free-form provider output onto the enum. Anything
// unrecognized collapses to StatusUnknown rather than failing the record.
func ParseAccessStatus(raw string) AccessStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approvedmedicaluse", "approved_medical_use", "approved medical use":
		return StatusApprovedMedicalUse
	case "banned", "illegal", "prohibited":
		return StatusBanned
	case "limitedaccesstrials", "limited_access_trials", "limited access trials":
		return StatusLimitedAccessTrials
	default:
		return StatusUnknown
	}
}

// NormalizedKey is the case-folded identifier used for all cache reads and
// writes. Two queries resolving to the same display name must produce the
// same key regardless of casing or incidental whitespace.
type NormalizedKey string

// NormalizeKey lowercases and collapses whitespace in a resolved name.
func NormalizeKey(name string) NormalizedKey {
	return NormalizedKey(strings.ToLower(strings.Join(strings.Fields(name), " ")))
}

// ResolvedSubstance is the resolver's best-effort structured guess for a
// free-form query. An empty ResolvedName signals "not found".
type ResolvedSubstance struct {
	ResolvedName  string `json:"resolvedName"`
	CanonicalName string `json:"canonicalName,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Unresolved reports whether the resolver failed to map the query.
func (r ResolvedSubstance) Unresolved() bool {
	return strings.TrimSpace(r.ResolvedName) == ""
}

// Key returns the cache key for the resolution. The colloquial resolved name
// is the identity; the pharmacological canonical name is carried for display
// only.
func (r ResolvedSubstance) Key() NormalizedKey {
	return NormalizeKey(r.ResolvedName)
}

// StatusRecord is one (substance, jurisdiction) status row. Collection-unique
// on that pair; re-insertion overwrites rather than duplicates.
type StatusRecord struct {
	Substance     NormalizedKey `json:"substance"`
	CountryCode   string        `json:"country_code"`
	Status        AccessStatus  `json:"access_status"`
	ReferenceLink string        `json:"reference_link,omitempty"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Source says where a check result came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceFresh Source = "freshly-computed"
	SourceNone  Source = "none"
)

// CheckResult is the orchestrator's outcome for one query.
type CheckResult struct {
	Source        Source
	NormalizedKey NormalizedKey
	ResolvedName  string
	CanonicalName string
	Records       []StatusRecord
}

// RefreshEntry reports the forced-enrichment outcome for one substance.
type RefreshEntry struct {
	Substance string `json:"substance"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
}
