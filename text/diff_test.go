package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleDiff = `--- a/main.go
+++ b/main.go
@@ -1,4 +1,4 @@
 func main() {
-	fmt.Println("hello")
+	fmt.Println("hello, world")
+	os.Exit(0)
 }
`

func TestAddedAndDeletedLinesParsesHeaders(t *testing.T) {
	added, deleted := AddedAndDeletedLines(sampleDiff)
	assert.Equal(t, []string{"\tfmt.Println(\"hello, world\")", "\tos.Exit(0)"}, added)
	assert.Equal(t, []string{"\tfmt.Println(\"hello\")"}, deleted)
}

func TestAddedAndDeletedLinesFallbackScan(t *testing.T) {
	raw := "+new line\n-old line\n context\n+++not content\n---not content"
	added, deleted := AddedAndDeletedLines(raw)
	assert.Equal(t, []string{"new line"}, added)
	assert.Equal(t, []string{"old line"}, deleted)
}

func TestAddedAndDeletedLinesEmpty(t *testing.T) {
	added, deleted := AddedAndDeletedLines("")
	assert.Empty(t, added)
	assert.Empty(t, deleted)
}

func TestCharacterDifferences(t *testing.T) {
	added, deleted := CharacterDifferences("abc", "abc")
	assert.Zero(t, added)
	assert.Zero(t, deleted)

	added, deleted = CharacterDifferences("", "abcd")
	assert.Equal(t, 4, added)
	assert.Zero(t, deleted)

	added, deleted = CharacterDifferences("abcd", "")
	assert.Zero(t, added)
	assert.Equal(t, 4, deleted)

	added, deleted = CharacterDifferences("hello", "help")
	assert.Equal(t, 1, added)
	assert.Equal(t, 2, deleted)
}
