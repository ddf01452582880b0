package search

import (
	"testing"
	"time"

	"talent-bridge-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeEmptyCriteria(t *testing.T) {
	f := Compose(types.SearchCriteria{}, time.Now())
	assert.True(t, f.IsEmpty())

	blank := "   "
	f = Compose(types.SearchCriteria{Skills: []string{"", "  "}, ProjectType: &blank}, time.Now())
	assert.True(t, f.IsEmpty(), "空白条件不应生成过滤")
}

func TestComposeAllCriteria(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	dept := uint64(7)
	years := 3
	project := "Web_Shop 100%"

	f := Compose(types.SearchCriteria{
		Skills:             []string{"Python", "python ", "SQL"},
		DepartmentID:       &dept,
		MinExperienceYears: &years,
		ProjectType:        &project,
	}, now)

	require.Len(t, f.Conditions, 4)

	assert.Equal(t, ConditionSkillsAny, f.Conditions[0].Kind)
	assert.Equal(t, []string{"python", "sql"}, f.Conditions[0].Skills)

	assert.Equal(t, ConditionDepartment, f.Conditions[1].Kind)
	assert.Equal(t, uint64(7), f.Conditions[1].DepartmentID)

	assert.Equal(t, ConditionMinExperience, f.Conditions[2].Kind)
	assert.Equal(t, time.Date(2021, 3, 15, 10, 0, 0, 0, time.UTC), f.Conditions[2].StartedBefore)

	assert.Equal(t, ConditionProjectNameContains, f.Conditions[3].Kind)
	assert.Equal(t, `%web\_shop 100\%%`, f.Conditions[3].LikePattern)
}

func TestComposeOnlyPresentCriteria(t *testing.T) {
	dept := uint64(2)
	f := Compose(types.SearchCriteria{DepartmentID: &dept}, time.Now())

	require.Len(t, f.Conditions, 1)
	assert.Equal(t, ConditionDepartment, f.Conditions[0].Kind)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, EscapeLike(`a\b%c_d`))
	assert.Equal(t, "'; DROP TABLE employees; --", EscapeLike("'; DROP TABLE employees; --"), "引号交给参数绑定处理")
}
