package spec

import (
	"fmt"
	"strings"

	"job-dashboard/core/models"

	"gopkg.in/yaml.v3"
)

// Variant names a dashboard flavour and the create requests it accepts
type Variant string

const (
	VariantAccounts Variant = "accounts"
	VariantCURP     Variant = "curp"
)

// CreateSpec represents a create-request document. JSON bodies parse too,
// since JSON is valid YAML.
type CreateSpec struct {
	Type        string `yaml:"type"`  // accounts | demo_account | curp | demo_curp
	Count       *int   `yaml:"count"` // batch size for accounts and demo_curp
	CURPID      string `yaml:"curp_id"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	DateOfBirth string `yaml:"date_of_birth"`
}

// ParseCreateRequest parses a create-request document into a validated
// request for the given variant
func ParseCreateRequest(doc string, variant Variant) (models.CreateRequest, error) {
	var spec CreateSpec
	if err := yaml.Unmarshal([]byte(doc), &spec); err != nil {
		return nil, models.NewValidationError("failed to parse request: %v", err)
	}
	return spec.Request(variant)
}

// Request converts the document into a create request and validates it
func (s CreateSpec) Request(variant Variant) (models.CreateRequest, error) {
	kind := strings.TrimSpace(strings.ToLower(s.Type))
	if kind == "" {
		kind = defaultKind(variant)
	}

	var req models.CreateRequest
	switch kind {
	case "accounts":
		req = models.AccountBatch{Count: countOr(s.Count, 1)}
	case "demo_account":
		req = models.DemoAccount{}
	case "curp":
		req = models.CURPRequest{
			CURPID:      strings.ToUpper(strings.TrimSpace(s.CURPID)),
			FirstName:   strings.TrimSpace(s.FirstName),
			LastName:    strings.TrimSpace(s.LastName),
			DateOfBirth: strings.TrimSpace(s.DateOfBirth),
		}
	case "demo_curp":
		req = models.DemoCURPBatch{Count: countOr(s.Count, 1)}
	default:
		return nil, models.NewValidationError("unknown request type %q", s.Type)
	}

	if !Supports(variant, req) {
		return nil, models.NewValidationError("request type %q is not available for the %s dashboard", kind, variant)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Supports reports whether the variant's backend accepts req
func Supports(variant Variant, req models.CreateRequest) bool {
	switch req.(type) {
	case models.AccountBatch, models.DemoAccount:
		return variant == VariantAccounts
	case models.CURPRequest, models.DemoCURPBatch:
		return variant == VariantCURP
	}
	return false
}

// ParseVariant validates a variant name
func ParseVariant(name string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(name))); v {
	case VariantAccounts, VariantCURP:
		return v, nil
	}
	return "", fmt.Errorf("unknown dashboard variant %q", name)
}

func defaultKind(variant Variant) string {
	if variant == VariantCURP {
		return "curp"
	}
	return "accounts"
}

func countOr(count *int, fallback int) int {
	if count == nil {
		return fallback
	}
	return *count
}
