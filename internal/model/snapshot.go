package model

import "time"

// VerificationSnapshot is the complete set of manually-confirmed facts for one
// property at a point in time. The assessment engine only ever reads it; each
// fact is atomic and facts accumulate, they are never retracted. Pointer and
// nil-slice fields mean "not yet checked", which the engine skips rather than
// guesses at.
type VerificationSnapshot struct {
	PropertyID string              `json:"property_id" yaml:"property_id"`
	Title      *TitleVerification  `json:"title,omitempty" yaml:"title,omitempty"`
	Charges    []Charge            `json:"charges,omitempty" yaml:"charges,omitempty"`
	Covenants  []Covenant          `json:"covenants,omitempty" yaml:"covenants,omitempty"`
	Planning   *PlanningStatus     `json:"planning,omitempty" yaml:"planning,omitempty"`
	Licensing  *HMOLicensing       `json:"licensing,omitempty" yaml:"licensing,omitempty"`
	Physical   *PhysicalInspection `json:"physical,omitempty" yaml:"physical,omitempty"`

	// Enriched carries automated enrichment signals (EPC-style condition
	// rating averages) that arrive before any manual verification.
	Enriched bool `json:"enriched,omitempty" yaml:"enriched,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// TitleVerification holds the Land Registry title facts.
type TitleVerification struct {
	TitleNumber     string `json:"title_number,omitempty" yaml:"title_number,omitempty"`
	TenureConfirmed string `json:"tenure_confirmed,omitempty" yaml:"tenure_confirmed,omitempty"` // freehold, leasehold
	IsSingleTitle   *bool  `json:"is_single_title,omitempty" yaml:"is_single_title,omitempty"`
	TitleClass      string `json:"title_class,omitempty" yaml:"title_class,omitempty"` // absolute, qualified, possessory
	ProprietorName  string `json:"proprietor_name,omitempty" yaml:"proprietor_name,omitempty"`
	VerifiedBy      string `json:"verified_by,omitempty" yaml:"verified_by,omitempty"`
	Notes           string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ConsentLikelihood classifies how a charge-holding lender is expected to
// respond to a consent request.
type ConsentLikelihood string

const (
	ConsentLikely       ConsentLikelihood = "likely"
	ConsentUncertain    ConsentLikelihood = "uncertain"
	ConsentUnlikely     ConsentLikelihood = "unlikely"
	ConsentRefused      ConsentLikelihood = "refused"
	ConsentNotYetSought ConsentLikelihood = ""
)

// Charge is one registered charge or mortgage on the title.
type Charge struct {
	LenderName            string            `json:"lender_name" yaml:"lender_name"`
	ChargeType            string            `json:"charge_type" yaml:"charge_type"` // legal_charge, equitable_charge, charging_order, restriction
	IsAllMonies           bool              `json:"is_all_monies,omitempty" yaml:"is_all_monies,omitempty"`
	HasConsentRestriction bool              `json:"has_consent_restriction,omitempty" yaml:"has_consent_restriction,omitempty"`
	ConsentLikelihood     ConsentLikelihood `json:"consent_likelihood,omitempty" yaml:"consent_likelihood,omitempty"`
	ConsentFeeQuoted      *int64            `json:"consent_fee_quoted,omitempty" yaml:"consent_fee_quoted,omitempty"`
	EstimatedBalance      *int64            `json:"estimated_balance,omitempty" yaml:"estimated_balance,omitempty"`
}

// CovenantType classifies a restrictive covenant.
type CovenantType string

const (
	CovenantUseRestriction      CovenantType = "use_restriction"
	CovenantAlienation          CovenantType = "alienation"
	CovenantBuildingRestriction CovenantType = "building_restriction"
	CovenantOther               CovenantType = "other"
)

// Covenant is one restrictive covenant affecting the land.
type Covenant struct {
	Summary           string       `json:"summary" yaml:"summary"`
	Type              CovenantType `json:"type" yaml:"type"`
	AffectsSplit      bool         `json:"affects_split,omitempty" yaml:"affects_split,omitempty"`
	BreachRisk        string       `json:"breach_risk,omitempty" yaml:"breach_risk,omitempty"` // none, low, medium, high
	InsuranceEstimate *int64       `json:"insurance_estimate,omitempty" yaml:"insurance_estimate,omitempty"`
}

// PlanningStatus holds the planning verification facts.
type PlanningStatus struct {
	UseClass              string `json:"use_class,omitempty" yaml:"use_class,omitempty"` // C3, C4, sui_generis
	UseClassVerified      bool   `json:"use_class_verified,omitempty" yaml:"use_class_verified,omitempty"`
	ConversionConsented   *bool  `json:"conversion_consented,omitempty" yaml:"conversion_consented,omitempty"`
	BuildingRegsSignedOff *bool  `json:"building_regs_signed_off,omitempty" yaml:"building_regs_signed_off,omitempty"`
	InArticle4Area        *bool  `json:"in_article4_area,omitempty" yaml:"in_article4_area,omitempty"`
	InConservationArea    *bool  `json:"in_conservation_area,omitempty" yaml:"in_conservation_area,omitempty"`
}

// HMOLicensing holds the HMO licensing verification facts.
type HMOLicensing struct {
	RequiresMandatoryLicence *bool  `json:"requires_mandatory_licence,omitempty" yaml:"requires_mandatory_licence,omitempty"`
	RequiresSelectiveLicence *bool  `json:"requires_selective_licence,omitempty" yaml:"requires_selective_licence,omitempty"`
	LicenceHeld              *bool  `json:"licence_held,omitempty" yaml:"licence_held,omitempty"`
	LicenceNumber            string `json:"licence_number,omitempty" yaml:"licence_number,omitempty"`
	FireSafetyCompliant      *bool  `json:"fire_safety_compliant,omitempty" yaml:"fire_safety_compliant,omitempty"`
}

// UnitInspection records what the viewing established for one unit.
type UnitInspection struct {
	Identifier          string `json:"identifier" yaml:"identifier"`
	SelfContained       *bool  `json:"self_contained,omitempty" yaml:"self_contained,omitempty"`
	HasOwnEntrance      *bool  `json:"has_own_entrance,omitempty" yaml:"has_own_entrance,omitempty"`
	HasOwnKitchen       *bool  `json:"has_own_kitchen,omitempty" yaml:"has_own_kitchen,omitempty"`
	HasOwnBathroom      *bool  `json:"has_own_bathroom,omitempty" yaml:"has_own_bathroom,omitempty"`
	EstimatedRefurbCost *int64 `json:"estimated_refurb_cost,omitempty" yaml:"estimated_refurb_cost,omitempty"`
	ConditionRating     string `json:"condition_rating,omitempty" yaml:"condition_rating,omitempty"`
}

// PhysicalInspection holds the physical verification facts from a viewing.
type PhysicalInspection struct {
	Units              []UnitInspection `json:"units,omitempty" yaml:"units,omitempty"`
	StructuralConcerns []string         `json:"structural_concerns,omitempty" yaml:"structural_concerns,omitempty"`
	BoundaryIssues     []string         `json:"boundary_issues,omitempty" yaml:"boundary_issues,omitempty"`
	UtilitiesSeparate  *bool            `json:"utilities_separate,omitempty" yaml:"utilities_separate,omitempty"`
	ViewedBy           string           `json:"viewed_by,omitempty" yaml:"viewed_by,omitempty"`
}

// HasTitleFacts reports whether any title category fact is confirmed.
func (s *VerificationSnapshot) HasTitleFacts() bool {
	return s.Title != nil && (s.Title.TenureConfirmed != "" || s.Title.IsSingleTitle != nil || s.Title.TitleClass != "")
}

// HasPlanningFacts reports whether any planning category fact is confirmed.
func (s *VerificationSnapshot) HasPlanningFacts() bool {
	if s.Planning != nil {
		return true
	}
	return s.Licensing != nil
}

// HasPhysicalFacts reports whether a physical inspection exists.
func (s *VerificationSnapshot) HasPhysicalFacts() bool {
	return s.Physical != nil
}

// AllUnitsDetermined reports whether every inspected unit has a
// self-containment determination. False when there is no inspection or the
// inspection covers no units.
func (s *VerificationSnapshot) AllUnitsDetermined() bool {
	if s.Physical == nil || len(s.Physical.Units) == 0 {
		return false
	}
	for _, u := range s.Physical.Units {
		if u.SelfContained == nil {
			return false
		}
	}
	return true
}

// Merge overlays newly verified facts onto the snapshot. A section present in
// delta supersedes the stored section wholesale; absent sections are left
// untouched, so facts accumulate across verification rounds.
func (s *VerificationSnapshot) Merge(delta *VerificationSnapshot) {
	if delta == nil {
		return
	}
	if delta.Title != nil {
		s.Title = delta.Title
	}
	if len(delta.Charges) > 0 {
		s.Charges = delta.Charges
	}
	if len(delta.Covenants) > 0 {
		s.Covenants = delta.Covenants
	}
	if delta.Planning != nil {
		s.Planning = delta.Planning
	}
	if delta.Licensing != nil {
		s.Licensing = delta.Licensing
	}
	if delta.Physical != nil {
		s.Physical = delta.Physical
	}
	if delta.Enriched {
		s.Enriched = true
	}
}
