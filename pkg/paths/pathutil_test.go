package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRelPath(t *testing.T) {
	assert.NoError(t, ValidateRelPath("voxel/hero.vox"))
	assert.NoError(t, ValidateRelPath("a.png"))
	assert.NoError(t, ValidateRelPath("file with spaces.png"))
	assert.NoError(t, ValidateRelPath("日本語.txt"))

	assert.Error(t, ValidateRelPath(""))
	assert.Error(t, ValidateRelPath("/absolute/path"))
	assert.Error(t, ValidateRelPath("../escape"))
	assert.Error(t, ValidateRelPath("foo/../../etc/passwd"))
	assert.Error(t, ValidateRelPath("foo\x00bar"))
	assert.Error(t, ValidateRelPath("."))
	assert.Error(t, ValidateRelPath("./"))
}

func TestValidateRelPathTraversalVariants(t *testing.T) {
	cases := []string{
		"../",
		"foo/../../../etc/shadow",
		"a/b/c/../../../../tmp/x",
		"..",
	}
	for _, c := range cases {
		assert.Error(t, ValidateRelPath(c), "should reject: %q", c)
	}
}

func TestIsWithinDir(t *testing.T) {
	assert.True(t, IsWithinDir("/srv/assets", "/srv/assets/a.png"))
	assert.True(t, IsWithinDir("/srv/assets/", "/srv/assets/a.png"))
	assert.True(t, IsWithinDir("/srv/assets", "/srv/assets"))

	assert.False(t, IsWithinDir("/srv/assets", "/srv/other"))
	assert.False(t, IsWithinDir("/srv/assets", "/etc/passwd"))
	assert.False(t, IsWithinDir("/srv/assets", "/srv/assetsX/a"))
}
