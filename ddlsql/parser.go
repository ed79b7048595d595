// Package ddlsql turns MySQL-family CREATE TABLE / ALTER TABLE statements
// into the in-memory dict.Table / dict.ColMap the DDL driver and instant
// engine operate on, using TiDB's standalone SQL parser.
package ddlsql

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	"github.com/pingcap/tidb/pkg/parser/mysql"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"dictengine/charset"
	"dictengine/dict"
	"dictengine/dicterr"
)

// Parser wraps a TiDB SQL parser instance. It is not safe for concurrent
// use by multiple goroutines, matching the wrapped parser.Parser.
type Parser struct {
	p *parser.Parser
}

// NewParser returns a ready-to-use Parser.
func NewParser() *Parser {
	return &Parser{p: parser.New()}
}

// parseOne parses sql expecting exactly one statement and returns its AST
// node.
func (p *Parser) parseOne(sql string) (ast.StmtNode, error) {
	stmtNodes, _, err := p.p.Parse(sql, "", "")
	if err != nil {
		return nil, dicterr.New(dicterr.Unsupported, dicterr.CategoryPolicy, "", "parse error: %s", err)
	}
	if len(stmtNodes) != 1 {
		return nil, dicterr.New(dicterr.Unsupported, dicterr.CategoryPolicy, "", "expected exactly one statement, got %d", len(stmtNodes))
	}
	return stmtNodes[0], nil
}

// colSpec is the intermediate column description built while walking
// ast.ColumnDef/ast.ColumnOption, before it is lowered into a dict.Col or
// dict.VCol.
type colSpec struct {
	name          string
	mtype         dict.MType
	ptype         dict.PType
	len           uint16
	mbMin, mbMax  uint8
	notNull       bool
	primaryKey    bool
	autoIncrement bool
	uniqueKey     bool
	generated     bool
	generatedStored bool
	defaultText   *string // rendered DEFAULT clause, nil if none was given
}

// buildColSpec converts one ast.ColumnDef into a colSpec, walking its
// options the same way a schema-diff column parser would, but emitting a
// storage-engine column instead of a schema-diff one.
func buildColSpec(colDef *ast.ColumnDef) *colSpec {
	tp := colDef.Tp
	mtype, fixedLen := mtypeFor(tp.GetType())
	csID := charset.IDForName(strings.ToLower(tp.GetCharset()))
	mbMax := charset.MaxBytesPerChar(csID)

	spec := &colSpec{
		name:  colDef.Name.Name.O,
		mtype: mtype,
		mbMin: 1,
		mbMax: mbMax,
	}
	spec.len = lengthFor(mtype, tp, fixedLen, mbMax)
	spec.ptype = spec.ptype.WithCharsetID(csID)
	if mysql.HasUnsignedFlag(tp.GetFlag()) {
		spec.ptype |= dict.PTypeUnsigned
	}
	if mysql.HasBinaryFlag(tp.GetFlag()) {
		spec.ptype |= dict.PTypeBinary
	}

	for _, opt := range colDef.Options {
		switch opt.Tp {
		case ast.ColumnOptionNotNull:
			spec.notNull = true
		case ast.ColumnOptionNull:
			spec.notNull = false
		case ast.ColumnOptionPrimaryKey:
			spec.primaryKey = true
			spec.notNull = true
		case ast.ColumnOptionAutoIncrement:
			spec.autoIncrement = true
		case ast.ColumnOptionUniqKey:
			spec.uniqueKey = true
		case ast.ColumnOptionGenerated:
			spec.generated = true
			spec.generatedStored = opt.Stored
		case ast.ColumnOptionDefaultValue:
			spec.defaultText = exprToString(opt.Expr)
		}
	}
	if spec.notNull {
		spec.ptype |= dict.PTypeNotNull
	}
	if spec.generated && !spec.generatedStored {
		spec.ptype |= dict.PTypeVirtual
	}
	return spec
}

// mtypeFor maps a MySQL column type id to the storage engine's coarser
// MType, and reports whether the type has a fixed physical width (fixedLen
// in bytes, 0 if the width instead comes from the declared length).
func mtypeFor(tp byte) (dict.MType, int) {
	switch tp {
	case mysql.TypeTiny:
		return dict.MTypeInt, 1
	case mysql.TypeShort:
		return dict.MTypeInt, 2
	case mysql.TypeInt24:
		return dict.MTypeInt, 3
	case mysql.TypeLong:
		return dict.MTypeInt, 4
	case mysql.TypeLonglong:
		return dict.MTypeInt, 8
	case mysql.TypeYear:
		return dict.MTypeInt, 1
	case mysql.TypeFloat:
		return dict.MTypeFloat, 4
	case mysql.TypeDouble:
		return dict.MTypeDouble, 8
	case mysql.TypeNewDecimal, mysql.TypeDecimal:
		return dict.MTypeDecimal, 0
	case mysql.TypeVarchar, mysql.TypeVarString:
		return dict.MTypeVarchar, 0
	case mysql.TypeString:
		return dict.MTypeChar, 0
	case mysql.TypeTinyBlob, mysql.TypeMediumBlob, mysql.TypeLongBlob, mysql.TypeBlob:
		return dict.MTypeBlob, 0
	case mysql.TypeGeometry:
		return dict.MTypeGeometry, 0
	case mysql.TypeJSON, mysql.TypeEnum, mysql.TypeSet:
		return dict.MTypeVarchar, 0
	case mysql.TypeDate, mysql.TypeNewDate:
		return dict.MTypeInt, 3
	case mysql.TypeDatetime, mysql.TypeTimestamp:
		return dict.MTypeInt, 8
	case mysql.TypeDuration:
		return dict.MTypeInt, 3
	case mysql.TypeBit:
		return dict.MTypeInt, 0
	default:
		return dict.MTypeVarchar, 0
	}
}

// lengthFor resolves a column's stored byte length: fixed-width types use
// their physical width, character types scale the declared character
// length by the charset's max byte width, and anything unbounded (blobs,
// decimals this package does not size precisely) is left at 0, the
// "variable length" convention dict.Col.Len already carries elsewhere in
// this module.
func lengthFor(mtype dict.MType, tp interface {
	GetFlen() int
}, fixedLen int, mbMax uint8) uint16 {
	if fixedLen > 0 {
		return uint16(fixedLen)
	}
	switch mtype {
	case dict.MTypeChar, dict.MTypeVarchar:
		flen := tp.GetFlen()
		if flen <= 0 {
			return 0
		}
		budget := flen * int(mbMax)
		if budget > 0xFFFF {
			return 0xFFFF
		}
		return uint16(budget)
	case dict.MTypeDecimal:
		flen := tp.GetFlen()
		if flen <= 0 || flen > 0xFFFF {
			return 0
		}
		return uint16(flen)
	default:
		return 0
	}
}

// exprToString restores expr back to SQL text, unquoting a single string
// literal if that's all it is.
func exprToString(expr ast.ExprNode) *string {
	if expr == nil {
		return nil
	}
	var sb strings.Builder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := expr.Restore(ctx); err != nil {
		return nil
	}
	s := strings.TrimSpace(sb.String())
	if unquoted, ok := tryUnquoteSQLStringLiteral(s); ok {
		return &unquoted
	}
	return &s
}

func tryUnquoteSQLStringLiteral(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

// indexColumnNames extracts the plain column-name list from a constraint's
// key-part specifications, ignoring prefix lengths (not modeled by
// dict.Field.PrefixLen at parse time; callers that need prefix indexes set
// PrefixLen separately).
func indexColumnNames(keys []*ast.IndexPartSpecification) []string {
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if k.Column != nil {
			names = append(names, k.Column.Name.O)
		}
	}
	return names
}

func fmtUnsupported(format string, args ...any) error {
	return dicterr.New(dicterr.Unsupported, dicterr.CategoryPolicy, "", format, args...)
}
