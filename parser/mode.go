package parser

import (
	"fmt"
	"strings"
)

type ParserMode int

const (
	ParserModeMysql = ParserMode(iota)
	ParserModePostgres
	ParserModeSQLite3
	ParserModeMssql
)

func (m ParserMode) String() string {
	switch m {
	case ParserModeMysql:
		return "mysql"
	case ParserModePostgres:
		return "postgres"
	case ParserModeSQLite3:
		return "sqlite3"
	case ParserModeMssql:
		return "mssql"
	default:
		return fmt.Sprintf("ParserMode(%d)", int(m))
	}
}

// ParseParserMode accepts the dialect names used by the commands and the config file.
func ParseParserMode(name string) (ParserMode, error) {
	switch strings.ToLower(name) {
	case "mysql":
		return ParserModeMysql, nil
	case "postgres", "postgresql", "psql":
		return ParserModePostgres, nil
	case "sqlite3", "sqlite":
		return ParserModeSQLite3, nil
	case "mssql", "sqlserver", "tsql":
		return ParserModeMssql, nil
	default:
		return 0, fmt.Errorf("unknown dialect: %q", name)
	}
}
