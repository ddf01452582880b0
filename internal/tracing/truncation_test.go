package tracing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))

	long := strings.Repeat("a", 50) + strings.Repeat("b", 50)
	out := TruncateString(long, 21)
	assert.Equal(t, strings.Repeat("a", 9)+"..."+strings.Repeat("b", 9), out)
}

func TestSafeAttributeValueMasksPersonalFields(t *testing.T) {
	assert.Equal(t, "an****om", SafeAttributeValue("employee.email", "anna@xom", 100))
	assert.Equal(t, "Ma*er", SafeAttributeValue("first_name", "Maier", 100))
	assert.Equal(t, "plain", SafeAttributeValue("department", "plain", 100))
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "a*", MaskPII("ab"))
	assert.Equal(t, "a*c", MaskPII("abc"))
	assert.Equal(t, "ab**ef", MaskPII("abcdef"))
}
