package cli

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveVersionInfo_LdflagsOverride(t *testing.T) {
	origV, origC, origD := version, commit, date
	defer func() { version, commit, date = origV, origC, origD }()

	version, commit, date = "1.2.3", "abc123", "2024-01-01"
	v, c, d := resolveVersionInfo()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc123", c)
	assert.Equal(t, "2024-01-01", d)
}

func TestResolveVersionInfo_DevFallback(t *testing.T) {
	origV, origC, origD := version, commit, date
	defer func() { version, commit, date = origV, origC, origD }()

	version, commit, date = "dev", "unknown", "unknown"
	v, c, d := resolveVersionInfo()

	assert.NotEmpty(t, v)
	// In a test binary, ReadBuildInfo returns test module info.
	t.Logf("resolved: version=%s commit=%s date=%s", v, c, d)
}

func TestPrintVersionInfo(t *testing.T) {
	origV := version
	defer func() { version = origV }()
	version = "0.9.0"

	var out bytes.Buffer
	printVersionInfo(&out)

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "usaccidents 0.9.0 "), line)
	assert.Contains(t, line, runtime.GOOS+"/"+runtime.GOARCH)
	assert.Equal(t, 1, strings.Count(line, "\n"))
}
