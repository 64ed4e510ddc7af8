package domain

// Plan names of the built-in catalog.
const (
	PlanFree     = "Free"
	PlanPro      = "Pro"
	PlanBusiness = "Business"
)

// Feature keys carried by plans.
const (
	FeatureBasicAnalytics    = "basic_analytics"
	FeatureAdvancedAnalytics = "advanced_analytics"
	FeatureCustomSlugs       = "custom_slugs"
	FeatureCustomDomains     = "custom_domains"
	FeatureWhiteLabel        = "white_label"
	FeaturePrioritySupport   = "priority_support"
)

// DefaultPlans returns the plans seeded into an empty database.
func DefaultPlans() []SubscriptionPlan {
	return []SubscriptionPlan{
		{
			Name:     PlanFree,
			Price:    0,
			Currency: "USD",
			Interval: IntervalMonth,
			MaxLinks: DefaultMaxLinks,
			Features: EncodeFeatures([]string{FeatureBasicAnalytics}),
			IsActive: true,
		},
		{
			Name:     PlanPro,
			Price:    9.99,
			Currency: "USD",
			Interval: IntervalMonth,
			MaxLinks: 25,
			Features: EncodeFeatures([]string{
				FeatureBasicAnalytics,
				FeatureAdvancedAnalytics,
				FeatureCustomSlugs,
				FeatureCustomDomains,
			}),
			IsActive: true,
		},
		{
			Name:     PlanBusiness,
			Price:    29.99,
			Currency: "USD",
			Interval: IntervalMonth,
			MaxLinks: 100,
			Features: EncodeFeatures([]string{
				FeatureBasicAnalytics,
				FeatureAdvancedAnalytics,
				FeatureCustomSlugs,
				FeatureCustomDomains,
				FeatureWhiteLabel,
				FeaturePrioritySupport,
			}),
			IsActive: true,
		},
	}
}

// DefaultAddons returns the addons seeded into an empty database.
func DefaultAddons() []Addon {
	return []Addon{
		{Key: AddonWhiteLabel, Name: "White label", Price: 4.99, IsActive: true},
	}
}
