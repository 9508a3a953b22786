// Package criteria matches DAO list parameters against entity attributes.
package criteria

import (
	"github.com/viant/changegate/service/dao"
)

// FilterByStatus reports whether an entity with the given lifecycle status
// passes the supplied list parameters. An empty parameter set matches
// everything; a "Status" parameter matches a single value or any of a
// value list.
func FilterByStatus(status string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter.Name != "Status" {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			return status == actual
		case []string:
			for _, candidate := range actual {
				if status == candidate {
					return true
				}
			}
			return false
		}
	}
	return true
}
