package checklist

import "github.com/vbonduro/housecheck/internal/domain"

// Fallback returns the built-in template for checkType. It is used whenever
// the database cannot supply an active template, so an inspection can always
// start. Unknown check types get the home-check sections.
func Fallback(checkType string) *domain.Template {
	var sections []domain.Section
	name := "Home Check"
	switch checkType {
	case domain.CheckTypeProperty:
		name = "Property Check"
		sections = propertyCheckSections()
	default:
		sections = homeCheckSections()
	}
	return &domain.Template{
		CheckType: checkType,
		Name:      name,
		Sections:  sections,
	}
}

func section(key, name string, items ...domain.Item) domain.Section {
	for i := range items {
		items[i].ID = key + "." + items[i].ID
		items[i].SortOrder = i
		if items[i].Kind == nil {
			items[i].Kind = domain.CheckItem{}
		}
	}
	return domain.Section{Key: key, Name: name, Items: items}
}

func homeCheckSections() []domain.Section {
	secs := []domain.Section{
		section("exterior", "Exterior",
			domain.Item{ID: "doors_locked", Label: "All exterior doors locked", Required: true},
			domain.Item{ID: "windows_intact", Label: "Windows intact and closed", Required: true},
			domain.Item{ID: "roof_gutters", Label: "Roof and gutters clear of debris"},
			domain.Item{ID: "landscaping", Label: "Landscaping and walkways", Kind: domain.PhotoItem{MinPhotos: 1}},
		),
		section("interior", "Interior",
			domain.Item{ID: "water_leaks", Label: "No signs of water leaks", Required: true},
			domain.Item{ID: "pests", Label: "No signs of pests", Required: true},
			domain.Item{ID: "thermostat", Label: "Thermostat at set temperature", Required: true},
			domain.Item{ID: "appliances", Label: "Appliances off or as instructed"},
			domain.Item{ID: "faucets_run", Label: "Faucets run and toilets flushed"},
		),
		section("security", "Security",
			domain.Item{ID: "alarm_armed", Label: "Alarm system armed", Required: true},
			domain.Item{ID: "cameras", Label: "Cameras online"},
			domain.Item{ID: "mail", Label: "Mail and packages collected"},
		),
		section("utilities", "Utilities",
			domain.Item{ID: "water_heater", Label: "Water heater operating"},
			domain.Item{ID: "electrical_panel", Label: "No tripped breakers", Required: true},
			domain.Item{ID: "hvac_filter", Label: "HVAC filter condition"},
		),
		section("summary", "Summary",
			domain.Item{ID: "overall", Label: "Overall condition notes", Kind: domain.NoteItem{}},
			domain.Item{ID: "photos", Label: "General photos of the home", Kind: domain.PhotoItem{MinPhotos: 1}},
		),
	}
	return numberSections(secs)
}

func propertyCheckSections() []domain.Section {
	secs := []domain.Section{
		section("exterior", "Exterior",
			domain.Item{ID: "structure", Label: "Structure and siding", Required: true, Kind: domain.PhotoItem{MinPhotos: 1}},
			domain.Item{ID: "roof", Label: "Roof condition", Required: true},
			domain.Item{ID: "drainage", Label: "Drainage and grading"},
			domain.Item{ID: "fences_gates", Label: "Fences and gates"},
		),
		section("interior", "Interior",
			domain.Item{ID: "walls_ceilings", Label: "Walls and ceilings free of damage", Required: true},
			domain.Item{ID: "floors", Label: "Floors and carpets", Required: true},
			domain.Item{ID: "kitchen", Label: "Kitchen fixtures and appliances", Required: true},
			domain.Item{ID: "bathrooms", Label: "Bathrooms and plumbing fixtures", Required: true},
			domain.Item{ID: "smoke_detectors", Label: "Smoke and CO detectors tested", Required: true},
		),
		section("security", "Security",
			domain.Item{ID: "locks", Label: "Locks and keys functional", Required: true},
			domain.Item{ID: "lighting", Label: "Exterior lighting working"},
		),
		section("utilities", "Utilities",
			domain.Item{ID: "meters", Label: "Meter readings recorded", Required: true, Kind: domain.PhotoItem{MinPhotos: 1}},
			domain.Item{ID: "hvac", Label: "HVAC system operating", Required: true},
			domain.Item{ID: "water_shutoff", Label: "Main water shutoff located"},
		),
		section("summary", "Summary",
			domain.Item{ID: "tenant_issues", Label: "Tenant reported issues", Kind: domain.NoteItem{}},
			domain.Item{ID: "recommendations", Label: "Maintenance recommendations", Kind: domain.NoteItem{}},
		),
	}
	return numberSections(secs)
}

func numberSections(secs []domain.Section) []domain.Section {
	for i := range secs {
		secs[i].SortOrder = i
	}
	return secs
}
