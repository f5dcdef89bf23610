package prompts

// Profile is a named prompt configuration loaded from YAML.
type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// System is sent as the system instruction on every request
	System string `yaml:"system" json:"system"`
	// Instruction is the default user instruction when the caller sends none
	Instruction string `yaml:"instruction" json:"instruction"`
	// ExampleHeader introduces each inlined reference example
	ExampleHeader string `yaml:"example_header" json:"example_header"`
	Canvas        Canvas `yaml:"canvas" json:"canvas"`
}

// Canvas describes the drawing surface the model is asked to target
type Canvas struct {
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
	Background string `yaml:"background" json:"background"`
}

// profileFile is the on-disk shape of config/*.yaml
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}
