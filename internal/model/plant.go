package model

// CareInstructions is the normalized care block every plant provider must
// fill in. Providers that lack a field use a human-readable placeholder
// rather than an empty string, so the frontend never renders blanks.
type CareInstructions struct {
	Light         string `json:"light"`
	Watering      string `json:"watering"`
	Fertilization string `json:"fertilization"`
	IdealTemp     string `json:"ideal_temp"`
}

// PlantRecord is the single output shape both plant-data providers are
// normalized into. The two upstream APIs disagree on almost every field
// name and nesting; nothing upstream of this struct leaks to callers.
type PlantRecord struct {
	ID               string           `json:"id"`
	CommonName       string           `json:"common_name"`
	ScientificName   string           `json:"scientific_name"`
	Description      string           `json:"description"`
	CareInstructions CareInstructions `json:"care_instructions"`
	ImageURL         string           `json:"image_url"`
}
