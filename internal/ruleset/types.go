package ruleset

type Ruleset struct {
	RulesetID          string   `yaml:"ruleset_id"`
	RulesetVersion     string   `yaml:"ruleset_version"`
	RequiredFields     []string `yaml:"required_fields"`
	AmountField        string   `yaml:"amount_field"`
	AccreditationField string   `yaml:"accreditation_field"`
	TextFields         []string `yaml:"text_fields"`
	Markers            []Marker `yaml:"markers"`
}

type Marker struct {
	Term        string `yaml:"term"`
	AllowSuffix bool   `yaml:"allow_suffix"`
}
