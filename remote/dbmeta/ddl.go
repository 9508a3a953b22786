// Package dbmeta extracts database object definitions from the legacy
// database by running sqlplus on the remote host; the engine stores the
// returned DDL as the pre-change backup of an object about to be updated.
package dbmeta

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/viant/changegate/remote"
)

// Object identifiers are interpolated into SQL; restrict them to plain
// Oracle identifier characters.
var safeIdentifier = regexp.MustCompile(`^[A-Z0-9_$#]+$`)

// Service extracts DDL through DBMS_METADATA over a shell runner.
type Service struct {
	runner    remote.Runner
	user      string
	password  string
	connect   string // host:port/service
	timeoutMs int
}

var _ remote.DDLSource = (*Service)(nil)

// New creates a DDL source. connect is the database connect string in
// host:port/service form.
func New(runner remote.Runner, user, password, connect string, timeoutMs int) *Service {
	return &Service{runner: runner, user: user, password: password, connect: connect, timeoutMs: timeoutMs}
}

// ExtractDDL returns the current definition of schema.object. objectType
// follows the DBMS_METADATA vocabulary; a UI value like "PACKAGE BODY" is
// normalised to "PACKAGE_BODY".
func (s *Service) ExtractDDL(ctx context.Context, schema, object, objectType string) (string, error) {
	schema = strings.ToUpper(strings.TrimSpace(schema))
	object = strings.ToUpper(strings.TrimSpace(object))
	objectType = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(objectType)), " ", "_")
	for _, identifier := range []string{schema, object, objectType} {
		if !safeIdentifier.MatchString(identifier) {
			return "", fmt.Errorf("invalid object identifier %q", identifier)
		}
	}

	script := strings.Join([]string{
		"SET HEADING OFF FEEDBACK OFF PAGESIZE 0 LONG 2000000 LONGCHUNKSIZE 2000000 TRIMSPOOL ON LINESIZE 32767;",
		fmt.Sprintf("SELECT DBMS_METADATA.GET_DDL('%s', '%s', '%s') FROM DUAL;", objectType, object, schema),
		"EXIT;",
	}, "\n")
	command := fmt.Sprintf("sqlplus -s %s/%s@%s <<'EOF'\n%s\nEOF", s.user, s.password, s.connect, script)

	output, status, err := s.runner.Run(ctx, command, s.timeoutMs)
	if err != nil {
		return "", fmt.Errorf("ddl extraction failed for %s.%s: %w", schema, object, err)
	}
	ddl := strings.TrimSpace(output)
	if status != 0 || ddl == "" || strings.Contains(ddl, "ORA-") {
		return "", fmt.Errorf("object not found or not extractable: %s.%s (%s): %s", schema, object, objectType, firstLine(ddl))
	}
	return ddl, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
