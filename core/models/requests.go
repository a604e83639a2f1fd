package models

import (
	"regexp"
	"strings"
)

const (
	MaxAccountBatch = 10
	MaxDemoCURPs    = 5
	CURPLength      = 18
)

var curpPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}[HM][A-Z]{5}[0-9]{2}$`)

// CreateRequest is a user-initiated request to start new jobs.
// Validate runs before any network call.
type CreateRequest interface {
	Validate() error
	Kind() string
}

// AccountBatch asks the account backend to create Count accounts
type AccountBatch struct {
	Count int `yaml:"count" json:"count"`
}

func (r AccountBatch) Kind() string { return "accounts" }

// Validate checks the batch size bounds
func (r AccountBatch) Validate() error {
	if r.Count < 1 || r.Count > MaxAccountBatch {
		return NewValidationError("count must be between 1 and %d, got %d", MaxAccountBatch, r.Count)
	}
	return nil
}

// DemoAccount asks the account backend for a single demo account
type DemoAccount struct{}

func (DemoAccount) Kind() string    { return "demo_account" }
func (DemoAccount) Validate() error { return nil }

// CURPRequest starts processing of one real CURP record
type CURPRequest struct {
	CURPID      string `yaml:"curp_id" json:"curp_id"`
	FirstName   string `yaml:"first_name" json:"first_name"`
	LastName    string `yaml:"last_name" json:"last_name"`
	DateOfBirth string `yaml:"date_of_birth" json:"date_of_birth"` // YYYY-MM-DD
}

func (r CURPRequest) Kind() string { return "curp" }

// Validate checks required fields and the CURP format
func (r CURPRequest) Validate() error {
	if strings.TrimSpace(r.CURPID) == "" || strings.TrimSpace(r.FirstName) == "" ||
		strings.TrimSpace(r.LastName) == "" || strings.TrimSpace(r.DateOfBirth) == "" {
		return NewValidationError("curp_id, first_name, last_name and date_of_birth are required")
	}
	return ValidateCURP(r.CURPID)
}

// DemoCURPBatch asks the document backend to process Count generated CURPs
type DemoCURPBatch struct {
	Count int `yaml:"count" json:"count"`
}

func (r DemoCURPBatch) Kind() string { return "demo_curp" }

// Validate checks the demo batch size bounds
func (r DemoCURPBatch) Validate() error {
	if r.Count < 1 || r.Count > MaxDemoCURPs {
		return NewValidationError("demo count must be between 1 and %d, got %d", MaxDemoCURPs, r.Count)
	}
	return nil
}

// ValidateCURP checks that curp is exactly 18 characters of the form
// 4 letters, 6 digits, H or M, 5 letters, 2 digits.
func ValidateCURP(curp string) error {
	if len(curp) != CURPLength {
		return NewValidationError("CURP must be %d characters, got %d", CURPLength, len(curp))
	}
	if !curpPattern.MatchString(curp) {
		return NewValidationError("CURP %q does not match the expected format", curp)
	}
	return nil
}
