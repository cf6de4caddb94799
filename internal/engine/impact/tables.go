package impact

// Table-driven facts. Each table maps one normalised fact value to a canned
// impact; evaluators copy the entry and fill in Category/Field/Value so the
// tables themselves stay immutable.

var tenureTable = map[string]Impact{
	"freehold": {
		Type:        Enabler,
		ScoreDelta:  30,
		Headline:    "Freehold tenure confirmed",
		Explanation: "Freehold ownership gives full control over a title split with no superior landlord consent required.",
	},
	"leasehold": {
		Type:        Blocker,
		ScoreDelta:  -100,
		Headline:    "BLOCKER: Leasehold tenure",
		Explanation: "A leasehold interest cannot be split into new long leases without freeholder participation; the core strategy is not viable.",
		RequiredActions: []string{
			"Confirm tenure against the registered title",
		},
		MitigationOptions: []string{
			"Negotiate purchase of the freehold interest",
			"Approach the freeholder for a deed of variation",
		},
	},
}

var singleTitleTable = map[bool]Impact{
	true: {
		Type:        Enabler,
		ScoreDelta:  20,
		Headline:    "Single registered title",
		Explanation: "The whole property sits on one title, so the full split uplift is available.",
	},
	false: {
		Type:        Blocker,
		ScoreDelta:  -100,
		Headline:    "BLOCKER: Already split across multiple titles",
		Explanation: "The property is already registered as separate titles; there is no split uplift left to capture.",
	},
}

var titleClassTable = map[string]Impact{
	"absolute": {
		Type:        MinorPositive,
		ScoreDelta:  5,
		Headline:    "Absolute title class",
		Explanation: "Title absolute is the strongest class of registration and raises no lender concerns.",
	},
	"qualified": {
		Type:        MinorNegative,
		ScoreDelta:  -10,
		CostDelta:   500,
		Headline:    "Qualified title class",
		Explanation: "Qualified title carries a registration defect; indemnity insurance is usually accepted by lenders.",
		MitigationOptions: []string{
			"Obtain title indemnity insurance",
		},
	},
	"possessory": {
		Type:        MajorNegative,
		ScoreDelta:  -30,
		CostDelta:   1500,
		DelayWeeks:  4,
		Headline:    "Possessory title class",
		Explanation: "Possessory title restricts lending on the new leases and typically needs indemnity cover or upgrade to absolute.",
		RequiredActions: []string{
			"Investigate the root of title with the conveyancer",
		},
		MitigationOptions: []string{
			"Apply to upgrade the class of title",
			"Obtain title indemnity insurance",
		},
	},
}

var useClassTable = map[string]Impact{
	"C3": {
		Type:        Enabler,
		ScoreDelta:  15,
		Headline:    "C3 dwellinghouse use",
		Explanation: "Residential C3 use supports a straightforward split into self-contained dwellings.",
	},
	"C4": {
		Type:        MinorNegative,
		ScoreDelta:  -10,
		Headline:    "C4 small HMO use",
		Explanation: "C4 use means the building currently operates as a small HMO; conversion to separate dwellings may need planning permission.",
		RequiredActions: []string{
			"Confirm whether a change of use application is required",
		},
	},
	"sui_generis": {
		Type:        MajorNegative,
		ScoreDelta:  -25,
		CostDelta:   2000,
		DelayWeeks:  12,
		Headline:    "Sui generis use",
		Explanation: "Sui generis use always needs express planning consent to change, adding cost and a long determination period.",
		RequiredActions: []string{
			"Submit a change of use application",
		},
	},
}

var conversionConsentTable = map[bool]Impact{
	true: {
		Type:        MinorPositive,
		ScoreDelta:  10,
		Headline:    "Conversion has planning consent",
		Explanation: "The conversion into separate units has express planning permission on record.",
	},
	false: {
		Type:        Blocker,
		ScoreDelta:  -100,
		Headline:    "BLOCKER: Conversion not consented",
		Explanation: "The physical conversion has no planning permission; the split cannot complete until the use is regularised.",
		RequiredActions: []string{
			"Apply for retrospective planning permission or a lawful development certificate",
		},
	},
}

var buildingRegsTable = map[bool]Impact{
	true: {
		Type:        MinorPositive,
		ScoreDelta:  5,
		Headline:    "Building regulations signed off",
		Explanation: "Completion certificates exist for the conversion works.",
	},
	false: {
		Type:        MinorNegative,
		ScoreDelta:  -15,
		CostDelta:   2500,
		Headline:    "No building regulations sign-off",
		Explanation: "Conversion works lack completion certificates; lenders on the new leases will expect regularisation.",
		RequiredActions: []string{
			"Apply for a regularisation certificate",
		},
		MitigationOptions: []string{
			"Obtain building regulations indemnity insurance",
		},
	},
}

var article4Table = map[bool]Impact{
	true: {
		Type:        MinorNegative,
		ScoreDelta:  -10,
		Headline:    "Article 4 direction in force",
		Explanation: "Permitted development rights are withdrawn locally, so otherwise-permitted changes need express consent.",
		RequiredActions: []string{
			"Check the scope of the Article 4 direction with the local authority",
		},
	},
	false: {
		Type:        Neutral,
		ScoreDelta:  0,
		Headline:    "No Article 4 direction",
		Explanation: "Permitted development rights are intact.",
	},
}
