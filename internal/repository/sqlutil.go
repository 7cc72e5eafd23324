package repository

import "strings"

// inClause returns "?,?,?" for n ids and the ids as query args.
func inClause(ids []uint64) (string, []interface{}) {
    ph := make([]string, len(ids))
    args := make([]interface{}, len(ids))
    for i, id := range ids {
        ph[i] = "?"
        args[i] = id
    }
    return strings.Join(ph, ","), args
}
