// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mission

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

const sampleMission = `
id: transfer-2026
goal: Transfer to a Spanish computer engineering degree
my_profile:
  name: Ana
  country: PE
  currency: EUR
  preferences:
    weight_match: 0.55
    weight_prestige: 0.25
    weight_cost: 0.20
current_studies:
  degree: Ingeniería de Sistemas
  curriculum_file: curriculum.yaml
targets:
  universities:
    - name: Universidad Politécnica de Madrid
      city: Madrid
      program_query: grado ingeniería informática plan de estudios
      preferred_domains: [upm.es]
    - name: Universitat de València
      city: Valencia
      program_urls: [https://www.uv.es/grado-informatica/plan.pdf]
`

const sampleCurriculum = `
courses:
  - name: Algorithms
    credits: 6
  - name: Databases
  - name: "  "
`

func writeMission(t *testing.T, mission, curriculum string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "curriculum.yaml"), []byte(curriculum), 0o644))
	path := filepath.Join(dir, "mission.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mission), 0o644))
	return path
}

func TestLoad_ResolvesCurriculumRelativeToMission(t *testing.T) {
	m, err := Load(writeMission(t, sampleMission, sampleCurriculum))
	require.NoError(t, err)

	assert.Equal(t, "transfer-2026", m.ID)
	require.Len(t, m.CurrentStudies.Courses, 2)
	assert.Equal(t, "Algorithms", m.CurrentStudies.Courses[0].Name)
	assert.Equal(t, 6.0, m.CurrentStudies.Courses[0].Credits)
	require.Len(t, m.Targets.Universities, 2)
	assert.Equal(t, []string{"upm.es"}, m.Targets.Universities[0].PreferredDomains)
}

func TestLoad_DefaultWeightsWhenOmitted(t *testing.T) {
	mission := strings.Replace(sampleMission, `  preferences:
    weight_match: 0.55
    weight_prestige: 0.25
    weight_cost: 0.20
`, "", 1)
	m, err := Load(writeMission(t, mission, sampleCurriculum))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultWeights, m.Profile.Preferences)
}

func TestLoad_RejectsBadWeightsBeforeWork(t *testing.T) {
	mission := strings.Replace(sampleMission, "weight_cost: 0.20", "weight_cost: 0.50", 1)
	_, err := Load(writeMission(t, mission, sampleCurriculum))
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "my_profile.preferences", verrs[0].Field)
}

func TestLoad_MissingCurriculumFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mission.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMission), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading curriculum")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	m := types.Mission{
		Profile: types.Profile{Preferences: types.DefaultWeights},
		Targets: types.Targets{Universities: []types.Target{
			{Name: "UPM", ProgramQuery: "grado"},
			{Name: "upm", ProgramQuery: "grado"},
			{Name: "UV", ProgramURLs: []string{"not a url"}},
		}},
		Prestige: []types.PrestigeRule{{Score: 120}},
	}

	errs := Validate(m)
	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "current_studies.courses")
	assert.Contains(t, fields, "targets.universities[1].name")
	assert.Contains(t, fields, "targets.universities[2].program_urls")
	assert.Contains(t, fields, "prestige[0].patterns")
	assert.Contains(t, fields, "prestige[0].score")
}

func TestSelect(t *testing.T) {
	m := types.Mission{Targets: types.Targets{Universities: []types.Target{
		{Name: "Universidad de Granada"}, {Name: "Universidad de Sevilla"},
	}}}

	all, err := Select(m, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := Select(m, []string{"universidad_de_sevilla"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Universidad de Sevilla", one[0].Name)

	_, err = Select(m, []string{"Oxford"})
	assert.ErrorIs(t, err, ErrUnknownUniversity)
}
