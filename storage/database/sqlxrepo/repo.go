package sqlxrepos

import (
	"strings"

	"github.com/trezcool/kiongozi/core"
)

// getExec returns the transaction passed by a service, if any.
func getExec(def core.DBExecutor, exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return def
}

// orderBy builds an ORDER BY clause from the orderings whose field maps to a known column.
func orderBy(ordering []core.DBOrdering, columns map[string]string, def string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		clauses = append(clauses, def)
	}
	clauses = append(clauses, "id ASC")
	return " ORDER BY " + strings.Join(clauses, ", ")
}
