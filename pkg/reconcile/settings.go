package reconcile

// Settings are the profile limits handed to the pipeline at construction.
type Settings struct {
	MaxRolesPerProject       int `json:"maxRolesPerProject"`
	ProfileDescriptionLength int `json:"profileDescriptionLength"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxRolesPerProject:       3,
		ProfileDescriptionLength: 4000,
	}
}
