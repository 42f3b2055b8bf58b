package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnifiedDiffOmitsUnchangedFiles(t *testing.T) {
	before := map[string]string{
		"src/main.c": "int main(void){return 0;}\n",
		"src/same.c": "void same(void){}\n",
	}
	after := map[string]string{
		"src/main.c": "int main(void){return 1;}\n",
		"src/same.c": "void same(void){}\n",
	}

	diff := UnifiedDiff(before, after)
	assert.Contains(t, diff, "src/main.c")
	assert.NotContains(t, diff, "src/same.c")
	assert.Contains(t, diff, "-int main(void){return 0;}")
	assert.Contains(t, diff, "+int main(void){return 1;}")
}

func TestUnifiedDiffMarksNewAndDeletedFiles(t *testing.T) {
	before := map[string]string{"src/old.c": "gone\n"}
	after := map[string]string{"src/new.c": "fresh\n"}

	diff := UnifiedDiff(before, after)
	assert.Contains(t, diff, "--- /dev/null\n+++ src/new.c")
	assert.Contains(t, diff, "--- src/old.c\n+++ /dev/null")
}

func TestUnifiedDiffDeterministicOrder(t *testing.T) {
	before := map[string]string{"src/b.c": "1\n", "src/a.c": "1\n", "src/c.c": "1\n"}
	after := map[string]string{"src/b.c": "2\n", "src/a.c": "2\n", "src/c.c": "2\n"}

	first := UnifiedDiff(before, after)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, UnifiedDiff(before, after))
	}
	assert.Less(t, strings.Index(first, "src/a.c"), strings.Index(first, "src/b.c"))
	assert.Less(t, strings.Index(first, "src/b.c"), strings.Index(first, "src/c.c"))
}

func TestUnifiedDiffIdenticalInputs(t *testing.T) {
	files := map[string]string{"src/main.c": "x\n"}
	assert.Empty(t, UnifiedDiff(files, files))
}
