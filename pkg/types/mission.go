// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Weights are the aggregation weights for match, prestige and cost. They
// must sum to 1.
type Weights struct {
	Match    float64 `json:"weight_match" yaml:"weight_match"`
	Prestige float64 `json:"weight_prestige" yaml:"weight_prestige"`
	Cost     float64 `json:"weight_cost" yaml:"weight_cost"`
}

// DefaultWeights favour curriculum fit over prestige and cost.
var DefaultWeights = Weights{Match: 0.55, Prestige: 0.25, Cost: 0.20}

// Profile describes the student running the mission.
type Profile struct {
	Name        string  `json:"name" yaml:"name"`
	Country     string  `json:"country,omitempty" yaml:"country,omitempty"`
	Currency    string  `json:"currency,omitempty" yaml:"currency,omitempty"`
	Preferences Weights `json:"preferences" yaml:"preferences"`
}

// CurrentStudies describes the curriculum being transferred from. Courses
// may be listed inline or loaded from CurriculumFile.
type CurrentStudies struct {
	Degree            string         `json:"degree" yaml:"degree"`
	CurrentUniversity string         `json:"current_university,omitempty" yaml:"current_university,omitempty"`
	CurriculumFile    string         `json:"curriculum_file,omitempty" yaml:"curriculum_file,omitempty"`
	Courses           []CourseRecord `json:"courses,omitempty" yaml:"courses,omitempty"`
}

// Target is a candidate university to evaluate.
type Target struct {
	Name string `json:"name" yaml:"name"`
	City string `json:"city" yaml:"city"`

	// ProgramQuery is appended to the university name when searching
	// (e.g. "grado ingeniería informática plan de estudios").
	ProgramQuery string `json:"program_query" yaml:"program_query"`

	Country  string `json:"country,omitempty" yaml:"country,omitempty"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	// PreferredDomains are official domains (e.g. "upm.es") that earn a
	// discovery bonus and restrict site-aware search backends.
	PreferredDomains []string `json:"preferred_domains,omitempty" yaml:"preferred_domains,omitempty"`

	// ProgramURLs are manually curated seed URLs added to discovery.
	ProgramURLs []string `json:"program_urls,omitempty" yaml:"program_urls,omitempty"`
}

// Targets groups the universities under evaluation.
type Targets struct {
	Universities []Target `json:"universities" yaml:"universities"`
}

// Mission is the user-supplied description of one transfer evaluation.
type Mission struct {
	ID             string         `json:"id" yaml:"id"`
	Goal           string         `json:"goal,omitempty" yaml:"goal,omitempty"`
	Profile        Profile        `json:"my_profile" yaml:"my_profile"`
	CurrentStudies CurrentStudies `json:"current_studies" yaml:"current_studies"`
	Targets        Targets        `json:"targets" yaml:"targets"`

	// Prestige rules take precedence over the built-in prestige table.
	Prestige []PrestigeRule `json:"prestige,omitempty" yaml:"prestige,omitempty"`
}
