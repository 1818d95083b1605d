package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorDump flattens an error chain into log fields.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	FSOp   string `json:"fs_op,omitempty"`
	FSPath string `json:"fs_path,omitempty"`

	JSONOffset int64 `json:"json_offset,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), Code: codeOf(err)}
	walk(err, func(e error) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	})

	if pathErr := (*fs.PathError)(nil); stdErrors.As(err, &pathErr) {
		d.FSOp, d.FSPath = pathErr.Op, pathErr.Path
	}
	if syntaxErr := (*json.SyntaxError)(nil); stdErrors.As(err, &syntaxErr) {
		d.JSONOffset = syntaxErr.Offset
	}
	if pgErr := (*pgconn.PgError)(nil); stdErrors.As(err, &pgErr) {
		d.PGCode = pgErr.Code
		d.PGConstraint = pgErr.ConstraintName
		d.PGTable = pgErr.TableName
		d.PGDetail = pgErr.Detail
	}
	return d
}

func codeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return ""
}

// walk visits err and its causes depth first, following joined errors.
func walk(err error, visit func(error)) {
	if err == nil {
		return
	}
	visit(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}
