package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/changegate/model/request"
)

func TestPaths_Resolve(t *testing.T) {
	paths := &Paths{
		Form:    "/erp/forms/*",
		Report:  "/erp/reports",
		SQL:     "/erp/sql",
		Library: "/erp/lib",
	}

	testCases := []struct {
		description string
		programType request.ProgramType
		pathCode    string
		ext         string
		expect      string
		expectOK    bool
	}{
		{
			description: "form path with code substitution",
			programType: request.ProgramForm,
			pathCode:    "fl",
			ext:         ".fmb",
			expect:      "/erp/forms/fl",
			expectOK:    true,
		},
		{
			description: "library path has no placeholder",
			programType: request.ProgramLibrary,
			pathCode:    "fl",
			ext:         ".pll",
			expect:      "/erp/lib",
			expectOK:    true,
		},
		{
			description: "db object falls back to extension",
			programType: request.ProgramDBObject,
			ext:         ".sql",
			expect:      "/erp/sql",
			expectOK:    true,
		},
		{
			description: "jsp falls back to the report path",
			programType: request.ProgramDBObject,
			ext:         ".jsp",
			expect:      "/erp/reports",
			expectOK:    true,
		},
		{
			description: "extension fallback is case insensitive",
			programType: request.ProgramTerminalAccess,
			pathCode:    "fl",
			ext:         ".FMB",
			expect:      "/erp/forms/fl",
			expectOK:    true,
		},
		{
			description: "placeholder without path code cannot resolve",
			programType: request.ProgramForm,
			ext:         ".fmb",
			expectOK:    false,
		},
		{
			description: "unknown extension with no type path cannot resolve",
			programType: request.ProgramTerminalAccess,
			ext:         ".txt",
			expectOK:    false,
		},
	}

	for _, testCase := range testCases {
		actual, ok := paths.Resolve(testCase.programType, testCase.pathCode, testCase.ext)
		assert.Equal(t, testCase.expectOK, ok, testCase.description)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestPaths_Resolve_Unconfigured(t *testing.T) {
	paths := &Paths{}
	_, ok := paths.Resolve(request.ProgramForm, "fl", ".fmb")
	assert.False(t, ok)
}
