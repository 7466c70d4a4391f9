// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mission loads and validates the mission file that describes the
// student, their curriculum and the universities to compare.
package mission

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/transfer-engine/internal/rank"
	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// FieldError describes one invalid mission field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the full list of problems found in a mission.
type ValidationErrors []FieldError

func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return "invalid mission: " + strings.Join(msgs, "; ")
}

// curriculumFile is the on-disk shape of a curriculum file.
type curriculumFile struct {
	Courses []types.CourseRecord `yaml:"courses"`
}

// Load reads the mission at path, resolves its curriculum file relative to
// the mission's directory and validates the result. Missing weights fall back
// to types.DefaultWeights.
func Load(path string) (types.Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Mission{}, fmt.Errorf("reading mission %s: %w", path, err)
	}

	var m types.Mission
	if err := yaml.Unmarshal(data, &m); err != nil {
		return types.Mission{}, fmt.Errorf("parsing mission %s: %w", path, err)
	}

	if m.Profile.Preferences == (types.Weights{}) {
		m.Profile.Preferences = types.DefaultWeights
	}

	if m.CurrentStudies.CurriculumFile != "" {
		cpath := m.CurrentStudies.CurriculumFile
		if !filepath.IsAbs(cpath) {
			cpath = filepath.Join(filepath.Dir(path), cpath)
		}
		courses, err := LoadCurriculum(cpath)
		if err != nil {
			return types.Mission{}, err
		}
		m.CurrentStudies.Courses = append(m.CurrentStudies.Courses, courses...)
	}

	if errs := Validate(m); len(errs) > 0 {
		return types.Mission{}, errs
	}
	return m, nil
}

// LoadCurriculum reads a YAML curriculum file with a top-level courses list.
func LoadCurriculum(path string) ([]types.CourseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading curriculum %s: %w", path, err)
	}
	var cf curriculumFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing curriculum %s: %w", path, err)
	}
	var out []types.CourseRecord
	for _, c := range cf.Courses {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Validate checks the mission before any network activity.
func Validate(m types.Mission) ValidationErrors {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	if strings.TrimSpace(m.ID) == "" {
		add("id", "mission id is required")
	}

	if err := rank.ValidateWeights(m.Profile.Preferences); err != nil {
		add("my_profile.preferences", err.Error())
	}

	if len(m.CurrentStudies.Courses) == 0 {
		add("current_studies.courses", "at least one course is required (inline or via curriculum_file)")
	}
	for i, c := range m.CurrentStudies.Courses {
		if strings.TrimSpace(c.Name) == "" {
			add(fmt.Sprintf("current_studies.courses[%d].name", i), "course name is required")
		}
	}

	if len(m.Targets.Universities) == 0 {
		add("targets.universities", "at least one university is required")
	}
	seen := make(map[string]bool)
	for i, t := range m.Targets.Universities {
		field := fmt.Sprintf("targets.universities[%d]", i)
		if strings.TrimSpace(t.Name) == "" {
			add(field+".name", "university name is required")
			continue
		}
		if seen[textutil.Slug(t.Name)] {
			add(field+".name", fmt.Sprintf("duplicate university %q", t.Name))
		}
		seen[textutil.Slug(t.Name)] = true
		if strings.TrimSpace(t.ProgramQuery) == "" && len(t.ProgramURLs) == 0 {
			add(field+".program_query", "program_query or program_urls is required")
		}
		for _, u := range t.ProgramURLs {
			if pu, err := url.ParseRequestURI(u); err != nil || pu.Host == "" {
				add(field+".program_urls", fmt.Sprintf("invalid URL %q", u))
			}
		}
	}

	for i, r := range m.Prestige {
		field := fmt.Sprintf("prestige[%d]", i)
		if len(r.Patterns) == 0 {
			add(field+".patterns", "at least one pattern is required")
		}
		if r.Score < 0 || r.Score > 100 {
			add(field+".score", "score must be between 0 and 100")
		}
	}

	return errs
}

// ErrUnknownUniversity is returned by Select when a name matches no target.
var ErrUnknownUniversity = errors.New("unknown university")

// Select returns the targets whose names (or slugs) are listed in names,
// preserving mission order. An empty names list selects every target.
func Select(m types.Mission, names []string) ([]types.Target, error) {
	if len(names) == 0 {
		return m.Targets.Universities, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[textutil.Slug(n)] = true
	}
	var out []types.Target
	for _, t := range m.Targets.Universities {
		if want[textutil.Slug(t.Name)] {
			out = append(out, t)
			delete(want, textutil.Slug(t.Name))
		}
	}
	for n := range want {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUniversity, n)
	}
	return out, nil
}
