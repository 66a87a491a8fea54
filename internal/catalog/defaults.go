package catalog

const (
	BaselineVendorID  = "no-nac"
	DefaultIndustryID = "financial"
)

func tiers(small, medium, large, enterprise float64) map[SizeTier]float64 {
	return map[SizeTier]float64{
		TierSmall:      small,
		TierMedium:     medium,
		TierLarge:      large,
		TierEnterprise: enterprise,
	}
}

func allCapabilities() NetworkRequirements {
	return NetworkRequirements{CloudIntegration: true, LegacyDevices: true, BYOD: true, IoT: true, Wireless: true, RemoteWork: true}
}

var defaultVendors = []Vendor{
	{
		ID:             "portnox",
		Name:           "Portnox Cloud",
		Architecture:   ArchCloud,
		Pricing:        tiers(4.0, 3.0, 2.5, 2.0),
		Implementation: Implementation{Days: 14, CostPct: 0.10},
		FTE:            FTE{Required: 0.25},
		Maintenance:    Maintenance{Pct: 0, DowntimeHours: 2},
		Security:       SecurityScores{ZeroTrust: 95, DeviceAuth: 95, RiskAssessment: 90, RemediationSpeed: 90},
		Compliance: map[string]Coverage{
			"pci-dss": 1, "hipaa": 1, "gdpr": 1, "sox": 0.9, "nist-csf": 0.95, "iso27001": 1, "cmmc": 0.9, "ferpa": 1, "fedramp": 0.6,
		},
		Features: map[string]bool{
			"cloud_native": true, "agentless": true, "zero_trust": true, "iot_profiling": true, "byod_onboarding": true,
			"auto_remediation": true, "radius_as_a_service": true, "tacacs": true, "siem_integration": true, "on_prem_appliance": false,
		},
		Capabilities: allCapabilities(),
	},
	{
		ID:             "cisco-ise",
		Name:           "Cisco ISE",
		Architecture:   ArchOnPremises,
		Pricing:        tiers(120, 100, 85, 70),
		Hardware:       tiers(50000, 150000, 250000, 400000),
		Implementation: Implementation{Days: 90, CostPct: 0.50},
		FTE:            FTE{Required: 2.0},
		Maintenance:    Maintenance{Pct: 0.20, DowntimeHours: 24},
		Security:       SecurityScores{ZeroTrust: 75, DeviceAuth: 85, RiskAssessment: 80, RemediationSpeed: 60},
		Compliance: map[string]Coverage{
			"pci-dss": 1, "hipaa": 0.9, "gdpr": 0.85, "sox": 0.9, "nist-csf": 0.9, "iso27001": 0.9, "cmmc": 0.85, "ferpa": 0.8, "fedramp": 0.9,
		},
		Features: map[string]bool{
			"cloud_native": false, "agentless": false, "zero_trust": true, "iot_profiling": true, "byod_onboarding": true,
			"auto_remediation": true, "radius_as_a_service": false, "tacacs": true, "siem_integration": true, "on_prem_appliance": true,
		},
		Capabilities: NetworkRequirements{LegacyDevices: true, BYOD: true, IoT: true, Wireless: true, RemoteWork: true},
	},
	{
		ID:             "aruba-clearpass",
		Name:           "Aruba ClearPass",
		Architecture:   ArchOnPremises,
		Pricing:        tiers(95, 80, 70, 60),
		Hardware:       tiers(40000, 120000, 200000, 320000),
		Implementation: Implementation{Days: 60, CostPct: 0.40},
		FTE:            FTE{Required: 1.5},
		Maintenance:    Maintenance{Pct: 0.18, DowntimeHours: 16},
		Security:       SecurityScores{ZeroTrust: 75, DeviceAuth: 85, RiskAssessment: 80, RemediationSpeed: 65},
		Compliance: map[string]Coverage{
			"pci-dss": 1, "hipaa": 0.9, "gdpr": 0.85, "sox": 0.85, "nist-csf": 0.85, "iso27001": 0.85, "cmmc": 0.8, "ferpa": 0.8,
		},
		Features: map[string]bool{
			"cloud_native": false, "agentless": true, "zero_trust": true, "iot_profiling": true, "byod_onboarding": true,
			"auto_remediation": true, "radius_as_a_service": false, "tacacs": true, "siem_integration": true, "on_prem_appliance": true,
		},
		Capabilities: NetworkRequirements{LegacyDevices: true, BYOD: true, IoT: true, Wireless: true},
	},
	{
		ID:             "forescout",
		Name:           "Forescout",
		Architecture:   ArchOnPremises,
		Pricing:        tiers(110, 95, 80, 68),
		Hardware:       tiers(60000, 140000, 240000, 380000),
		Implementation: Implementation{Days: 75, CostPct: 0.45},
		FTE:            FTE{Required: 1.75},
		Maintenance:    Maintenance{Pct: 0.20, DowntimeHours: 20},
		Security:       SecurityScores{ZeroTrust: 70, DeviceAuth: 80, RiskAssessment: 85, RemediationSpeed: 70},
		Compliance: map[string]Coverage{
			"pci-dss": 0.95, "hipaa": 0.9, "gdpr": 0.8, "sox": 0.8, "nist-csf": 0.9, "iso27001": 0.85, "cmmc": 0.85, "fedramp": 0.8,
		},
		Features: map[string]bool{
			"cloud_native": false, "agentless": true, "zero_trust": true, "iot_profiling": true, "byod_onboarding": false,
			"auto_remediation": true, "radius_as_a_service": false, "tacacs": false, "siem_integration": true, "on_prem_appliance": true,
		},
		Capabilities: NetworkRequirements{LegacyDevices: true, IoT: true, Wireless: true},
	},
	{
		ID:             "fortinac",
		Name:           "FortiNAC",
		Architecture:   ArchHybrid,
		Pricing:        tiers(70, 60, 50, 42),
		Hardware:       tiers(30000, 90000, 160000, 260000),
		Implementation: Implementation{Days: 45, CostPct: 0.35},
		FTE:            FTE{Required: 1.25},
		Maintenance:    Maintenance{Pct: 0.18, DowntimeHours: 12},
		Security:       SecurityScores{ZeroTrust: 65, DeviceAuth: 75, RiskAssessment: 75, RemediationSpeed: 60},
		Compliance: map[string]Coverage{
			"pci-dss": 0.9, "hipaa": 0.8, "gdpr": 0.75, "sox": 0.75, "nist-csf": 0.8, "iso27001": 0.8,
		},
		Features: map[string]bool{
			"cloud_native": false, "agentless": true, "zero_trust": false, "iot_profiling": true, "byod_onboarding": true,
			"auto_remediation": true, "radius_as_a_service": false, "tacacs": false, "siem_integration": true, "on_prem_appliance": true,
		},
		Capabilities: NetworkRequirements{CloudIntegration: true, LegacyDevices: true, BYOD: true, IoT: true, Wireless: true},
	},
	{
		ID:             "juniper-mist",
		Name:           "Juniper Mist Access Assurance",
		Architecture:   ArchCloud,
		Pricing:        tiers(4.5, 3.8, 3.2, 2.8),
		Implementation: Implementation{Days: 30, CostPct: 0.15},
		FTE:            FTE{Required: 0.75},
		Maintenance:    Maintenance{DowntimeHours: 6},
		Security:       SecurityScores{ZeroTrust: 80, DeviceAuth: 85, RiskAssessment: 80, RemediationSpeed: 75},
		Compliance: map[string]Coverage{
			"pci-dss": 0.9, "hipaa": 0.85, "gdpr": 0.9, "sox": 0.8, "nist-csf": 0.85, "iso27001": 0.9,
		},
		Features: map[string]bool{
			"cloud_native": true, "agentless": true, "zero_trust": true, "iot_profiling": true, "byod_onboarding": true,
			"auto_remediation": false, "radius_as_a_service": true, "tacacs": false, "siem_integration": true, "on_prem_appliance": false,
		},
		Capabilities: NetworkRequirements{CloudIntegration: true, BYOD: true, IoT: true, Wireless: true, RemoteWork: true},
	},
	{
		ID:             "arista-agni",
		Name:           "Arista AGNI",
		Architecture:   ArchCloud,
		Pricing:        tiers(3.5, 3.2, 2.8, 2.4),
		Implementation: Implementation{Days: 30, CostPct: 0.12},
		FTE:            FTE{Required: 0.5},
		Maintenance:    Maintenance{DowntimeHours: 4},
		Security:       SecurityScores{ZeroTrust: 85, DeviceAuth: 85, RiskAssessment: 80, RemediationSpeed: 80},
		Compliance: map[string]Coverage{
			"pci-dss": 0.9, "hipaa": 0.85, "gdpr": 0.9, "sox": 0.8, "nist-csf": 0.9, "iso27001": 0.9,
		},
		Features: map[string]bool{
			"cloud_native": true, "agentless": true, "zero_trust": true, "iot_profiling": true, "byod_onboarding": true,
			"auto_remediation": true, "radius_as_a_service": true, "tacacs": false, "siem_integration": true, "on_prem_appliance": false,
		},
		Capabilities: NetworkRequirements{CloudIntegration: true, BYOD: true, IoT: true, Wireless: true, RemoteWork: true},
	},
	{
		ID:             "securew2",
		Name:           "SecureW2 JoinNow",
		Architecture:   ArchCloud,
		Pricing:        tiers(2.5, 2.0, 1.8, 1.5),
		Implementation: Implementation{Days: 21, CostPct: 0.10},
		FTE:            FTE{Required: 0.5},
		Maintenance:    Maintenance{DowntimeHours: 4},
		Security:       SecurityScores{ZeroTrust: 70, DeviceAuth: 90, RiskAssessment: 60, RemediationSpeed: 55},
		Compliance: map[string]Coverage{
			"pci-dss": 0.85, "hipaa": 0.8, "gdpr": 0.85, "nist-csf": 0.75, "iso27001": 0.8, "ferpa": 0.9,
		},
		Features: map[string]bool{
			"cloud_native": true, "agentless": false, "zero_trust": true, "iot_profiling": false, "byod_onboarding": true,
			"auto_remediation": false, "radius_as_a_service": true, "tacacs": false, "siem_integration": true, "on_prem_appliance": false,
		},
		Capabilities: NetworkRequirements{CloudIntegration: true, BYOD: true, Wireless: true, RemoteWork: true},
	},
	{
		ID:           BaselineVendorID,
		Name:         "No NAC (manual controls)",
		Architecture: ArchNone,
		FTE:          FTE{Required: 1.5},
		Maintenance:  Maintenance{DowntimeHours: 40},
		Features:     map[string]bool{},
	},
}

func vectors(ua, lm, cd, rw, iot, ins [2]float64) []ThreatVector {
	return []ThreatVector{
		{Category: ThreatUnauthorizedAccess, Impact: ua[0], Frequency: ua[1]},
		{Category: ThreatLateralMovement, Impact: lm[0], Frequency: lm[1]},
		{Category: ThreatCompromisedDevice, Impact: cd[0], Frequency: cd[1]},
		{Category: ThreatRansomware, Impact: rw[0], Frequency: rw[1]},
		{Category: ThreatIoTExploitation, Impact: iot[0], Frequency: iot[1]},
		{Category: ThreatInsider, Impact: ins[0], Frequency: ins[1]},
	}
}

var defaultIndustries = []Industry{
	{
		ID:                          "financial",
		Name:                        "Financial Services",
		AverageDeviceCount:          5000,
		BreachProbabilityWithoutNAC: 0.28,
		BreachProbabilityWithNAC:    0.12,
		CostPerRecord:               210,
		RecordsAtRisk:               50000,
		InsurancePremiumWithoutNAC:  250000,
		InsurancePremiumWithNAC:     175000,
		ThreatVectors:               vectors([2]float64{90, 70}, [2]float64{85, 55}, [2]float64{80, 60}, [2]float64{95, 45}, [2]float64{60, 30}, [2]float64{85, 35}),
		ComplianceFrameworks:        []string{"pci-dss", "sox", "gdpr", "nist-csf", "iso27001"},
	},
	{
		ID:                          "healthcare",
		Name:                        "Healthcare",
		AverageDeviceCount:          3000,
		BreachProbabilityWithoutNAC: 0.32,
		BreachProbabilityWithNAC:    0.14,
		CostPerRecord:               429,
		RecordsAtRisk:               40000,
		InsurancePremiumWithoutNAC:  220000,
		InsurancePremiumWithNAC:     150000,
		ThreatVectors:               vectors([2]float64{85, 65}, [2]float64{80, 50}, [2]float64{85, 65}, [2]float64{95, 60}, [2]float64{80, 55}, [2]float64{75, 35}),
		ComplianceFrameworks:        []string{"hipaa", "gdpr", "nist-csf", "iso27001"},
	},
	{
		ID:                          "retail",
		Name:                        "Retail",
		AverageDeviceCount:          2500,
		BreachProbabilityWithoutNAC: 0.25,
		BreachProbabilityWithNAC:    0.11,
		CostPerRecord:               165,
		RecordsAtRisk:               60000,
		InsurancePremiumWithoutNAC:  150000,
		InsurancePremiumWithNAC:     105000,
		ThreatVectors:               vectors([2]float64{80, 60}, [2]float64{70, 45}, [2]float64{75, 55}, [2]float64{85, 40}, [2]float64{65, 40}, [2]float64{60, 30}),
		ComplianceFrameworks:        []string{"pci-dss", "gdpr"},
	},
	{
		ID:                          "manufacturing",
		Name:                        "Manufacturing",
		AverageDeviceCount:          4000,
		BreachProbabilityWithoutNAC: 0.22,
		BreachProbabilityWithNAC:    0.10,
		CostPerRecord:               150,
		RecordsAtRisk:               20000,
		InsurancePremiumWithoutNAC:  140000,
		InsurancePremiumWithNAC:     100000,
		ThreatVectors:               vectors([2]float64{75, 50}, [2]float64{85, 50}, [2]float64{70, 50}, [2]float64{95, 55}, [2]float64{85, 60}, [2]float64{60, 25}),
		ComplianceFrameworks:        []string{"nist-csf", "iso27001", "cmmc"},
	},
	{
		ID:                          "education",
		Name:                        "Education",
		AverageDeviceCount:          3500,
		BreachProbabilityWithoutNAC: 0.27,
		BreachProbabilityWithNAC:    0.13,
		CostPerRecord:               173,
		RecordsAtRisk:               30000,
		InsurancePremiumWithoutNAC:  90000,
		InsurancePremiumWithNAC:     65000,
		ThreatVectors:               vectors([2]float64{70, 70}, [2]float64{65, 50}, [2]float64{70, 70}, [2]float64{85, 50}, [2]float64{55, 45}, [2]float64{50, 30}),
		ComplianceFrameworks:        []string{"ferpa", "gdpr"},
	},
	{
		ID:                          "government",
		Name:                        "Government",
		AverageDeviceCount:          6000,
		BreachProbabilityWithoutNAC: 0.24,
		BreachProbabilityWithNAC:    0.10,
		CostPerRecord:               185,
		RecordsAtRisk:               80000,
		InsurancePremiumWithoutNAC:  200000,
		InsurancePremiumWithNAC:     140000,
		ThreatVectors:               vectors([2]float64{90, 60}, [2]float64{90, 50}, [2]float64{80, 50}, [2]float64{90, 45}, [2]float64{70, 40}, [2]float64{90, 40}),
		ComplianceFrameworks:        []string{"fedramp", "nist-csf", "cmmc"},
	},
	{
		ID:                          "technology",
		Name:                        "Technology",
		AverageDeviceCount:          2000,
		BreachProbabilityWithoutNAC: 0.23,
		BreachProbabilityWithNAC:    0.10,
		CostPerRecord:               183,
		RecordsAtRisk:               35000,
		InsurancePremiumWithoutNAC:  160000,
		InsurancePremiumWithNAC:     110000,
		ThreatVectors:               vectors([2]float64{80, 55}, [2]float64{80, 50}, [2]float64{75, 55}, [2]float64{85, 45}, [2]float64{60, 40}, [2]float64{80, 40}),
		ComplianceFrameworks:        []string{"gdpr", "iso27001", "sox", "nist-csf"},
	},
}

// Default returns the built-in catalog. Each call returns an independent copy.
func Default() *Catalog {
	c, err := New(defaultVendors, defaultIndustries)
	if err != nil {
		panic("catalog: built-in tables invalid: " + err.Error())
	}
	return c
}
