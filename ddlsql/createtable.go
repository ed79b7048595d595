package ddlsql

import (
	"sort"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"

	"dictengine/dict"
	"dictengine/dicterr"
)

// pendingIndex is a secondary index collected while walking column options
// and table constraints, resolved into a dict.Index once every column of
// the table is known.
type pendingIndex struct {
	name    string
	unique  bool
	fulltext bool
	columns []string
}

// pendingForeign mirrors a parsed FOREIGN KEY constraint; its referenced
// table is named, not yet resolved, since the referenced table may not
// exist in the caller's dictionary cache at parse time.
type pendingForeign struct {
	id                  string
	columns             []string
	referencedTable     string
	referencedColumns   []string
	onDeleteCascade     bool
	onDeleteSetNull     bool
	onUpdateCascade     bool
	onUpdateSetNull     bool
}

// ParseCreateTable parses a single CREATE TABLE statement into a dict.Table
// ready for ddl.RunTableCreate/RunIndexCreate, plus any FOREIGN KEY
// constraints found (resolved separately via fkey.Install once the
// referenced table is known to the caller).
func (p *Parser) ParseCreateTable(sql string) (*dict.Table, []*dict.Foreign, error) {
	stmt, err := p.parseOne(sql)
	if err != nil {
		return nil, nil, err
	}
	create, ok := stmt.(*ast.CreateTableStmt)
	if !ok {
		return nil, nil, fmtUnsupported("expected CREATE TABLE, got %T", stmt)
	}
	return convertCreateTable(create)
}

func convertCreateTable(stmt *ast.CreateTableStmt) (*dict.Table, []*dict.Foreign, error) {
	name := qualifiedName(stmt.Table)
	table := dict.NewTable(name)

	var specs []*colSpec
	var pkColumns []string
	var indexes []*pendingIndex
	var foreigns []*pendingForeign

	for _, colDef := range stmt.Cols {
		spec := buildColSpec(colDef)
		specs = append(specs, spec)
		if spec.primaryKey {
			pkColumns = appendUnique(pkColumns, spec.name)
		}
		if spec.uniqueKey {
			indexes = append(indexes, &pendingIndex{name: spec.name, unique: true, columns: []string{spec.name}})
		}
	}

	for _, c := range stmt.Constraints {
		switch c.Tp {
		case ast.ConstraintPrimaryKey:
			for _, n := range indexColumnNames(c.Keys) {
				pkColumns = appendUnique(pkColumns, n)
			}
		case ast.ConstraintUniq, ast.ConstraintUniqKey, ast.ConstraintUniqIndex:
			indexes = append(indexes, &pendingIndex{name: indexNameOrDefault(c.Name, c.Keys), unique: true, columns: indexColumnNames(c.Keys)})
		case ast.ConstraintIndex, ast.ConstraintKey:
			indexes = append(indexes, &pendingIndex{name: indexNameOrDefault(c.Name, c.Keys), columns: indexColumnNames(c.Keys)})
		case ast.ConstraintFulltext:
			indexes = append(indexes, &pendingIndex{name: indexNameOrDefault(c.Name, c.Keys), fulltext: true, columns: indexColumnNames(c.Keys)})
		case ast.ConstraintForeignKey:
			foreigns = append(foreigns, buildPendingForeign(name, c.Name, indexColumnNames(c.Keys), c.Refer))
		}
	}

	if err := materializeColumns(table, specs, pkColumns); err != nil {
		return nil, nil, err
	}
	table.AddSystemColumns()
	if err := materializeClusteredIndex(table, pkColumns); err != nil {
		return nil, nil, err
	}
	for _, ix := range indexes {
		materializeSecondaryIndex(table, ix)
	}

	fks := make([]*dict.Foreign, 0, len(foreigns))
	for _, pf := range foreigns {
		fks = append(fks, resolvePendingForeign(table, pf))
	}
	return table, fks, nil
}

// materializeColumns assigns Ind positions to every physical (non-virtual)
// column in declaration order and records generated-virtual columns for a
// second pass once base-column pointers can be resolved.
func materializeColumns(table *dict.Table, specs []*colSpec, pkColumns []string) error {
	byName := make(map[string]*dict.Col, len(specs))
	ind := 0
	for _, spec := range specs {
		if spec.generated && spec.ptype&dict.PTypeVirtual != 0 {
			continue // virtual columns are not physical; handled below
		}
		col := &dict.Col{Ind: ind, MType: spec.mtype, PType: spec.ptype, Len: spec.len, MBMinLen: spec.mbMin, MBMaxLen: spec.mbMax, Name: spec.name}
		table.Cols = append(table.Cols, col)
		table.ColNames = append(table.ColNames, spec.name)
		byName[spec.name] = col
		ind++
	}
	table.NCols, table.NDef = ind, ind

	vpos := 0
	for _, spec := range specs {
		if !(spec.generated && spec.ptype&dict.PTypeVirtual != 0) {
			continue
		}
		// A virtual column's base columns are approximated as every
		// physical column already declared before it; full SQL-expression
		// parsing to recover its true dependency set is outside ddlsql's
		// scope.
		var bases []dict.BaseCol
		for _, c := range table.Cols {
			bases = append(bases, dict.BaseCol{Col: c})
		}
		v := &dict.VCol{
			MCol:    dict.Col{Ind: vpos, MType: spec.mtype, PType: spec.ptype, Len: spec.len, Name: spec.name},
			VPos:    vpos,
			BaseCol: bases,
		}
		table.VCols = append(table.VCols, v)
		vpos++
	}
	table.NVCols, table.NVDef = vpos, vpos

	for _, pk := range pkColumns {
		if _, ok := byName[pk]; !ok {
			return dicterr.New(dicterr.Unsupported, dicterr.CategoryPolicy, table.Name, "primary key column %q not declared", pk)
		}
	}
	return nil
}

// systemColNames are excluded from the clustered index's Fields even though
// AddSystemColumns has already appended them to table.Cols by the time this
// runs: Fields holds only user and hidden-rowid columns, matching
// index.FirstUserField()'s NUniq-only boundary.
var systemColNames = map[string]bool{"DB_ROW_ID": true, "DB_TRX_ID": true, "DB_ROLL_PTR": true}

// materializeClusteredIndex builds the clustered index: the user's PRIMARY
// KEY if one was declared, or the hidden DB_ROW_ID column AddSystemColumns
// already appended otherwise. Its Fields carry the key columns followed by
// every remaining user column.
func materializeClusteredIndex(table *dict.Table, pkColumns []string) error {
	if len(pkColumns) == 0 {
		rowID := findCol(table, "DB_ROW_ID")
		fields := []*dict.Field{{Col: dict.ColumnRef{Live: rowID}, Name: rowID.Name}}
		fields = append(fields, nonKeyFields(table, systemColNames)...)
		idx := &dict.Index{
			Name:   "PRIMARY",
			Type:   dict.IndexClustered | dict.IndexUnique,
			Table:  table,
			NUniq:  1,
			Fields: fields,
		}
		idx.NDef = len(idx.Fields)
		table.Indexes = append(table.Indexes, idx)
		return nil
	}

	seen := map[string]bool{"DB_ROW_ID": true, "DB_TRX_ID": true, "DB_ROLL_PTR": true}
	fields := make([]*dict.Field, 0, len(table.Cols))
	for _, name := range pkColumns {
		col := findCol(table, name)
		if col == nil {
			return dicterr.New(dicterr.Unsupported, dicterr.CategoryPolicy, table.Name, "primary key column %q not found", name)
		}
		col.PType |= dict.PTypeNotNull
		fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
		seen[name] = true
	}
	fields = append(fields, nonKeyFields(table, seen)...)
	idx := &dict.Index{
		Name:   "PRIMARY",
		Type:   dict.IndexClustered | dict.IndexUnique,
		Table:  table,
		NUniq:  len(pkColumns),
		Fields: fields,
	}
	idx.NDef = len(idx.Fields)
	table.Indexes = append(table.Indexes, idx)
	return nil
}

// nonKeyFields returns Fields for every physical column of table not named
// in skip, in Ind order.
func nonKeyFields(table *dict.Table, skip map[string]bool) []*dict.Field {
	var fields []*dict.Field
	for _, col := range table.Cols {
		if skip[col.Name] {
			continue
		}
		fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
	}
	return fields
}

func materializeSecondaryIndex(table *dict.Table, pi *pendingIndex) {
	clustered := table.Clustered()
	fields := make([]*dict.Field, 0, len(pi.columns))
	seen := make(map[string]bool, len(pi.columns))
	for _, name := range pi.columns {
		col := findCol(table, name)
		if col == nil {
			continue
		}
		fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
		seen[name] = true
	}
	nUniq := len(fields)
	if !pi.unique {
		// A non-unique secondary index's uniqueness key appends the
		// clustered index's key columns (its first NUniq fields).
		for _, f := range clustered.Fields[:clustered.NUniq] {
			col := f.Col.Column()
			if col == nil || seen[col.Name] {
				continue
			}
			fields = append(fields, &dict.Field{Col: dict.ColumnRef{Live: col}, Name: col.Name})
		}
		nUniq = len(fields)
	}
	typ := dict.IndexType(0)
	if pi.unique {
		typ |= dict.IndexUnique
	}
	if pi.fulltext {
		typ |= dict.IndexFTS
	}
	idx := &dict.Index{
		Name:   indexDisplayName(pi, table),
		Type:   typ,
		Table:  table,
		NUniq:  nUniq,
		Fields: fields,
	}
	idx.NDef = len(idx.Fields)
	table.Indexes = append(table.Indexes, idx)
}

func indexDisplayName(pi *pendingIndex, table *dict.Table) string {
	if pi.name != "" {
		return pi.name
	}
	return strings.Join(pi.columns, "_")
}

func buildPendingForeign(childTable, name string, columns []string, refer *ast.ReferenceDef) *pendingForeign {
	pf := &pendingForeign{id: name, columns: columns}
	if refer == nil {
		return pf
	}
	pf.referencedTable = refer.Table.Name.O
	if refer.Table.Schema.O != "" {
		pf.referencedTable = refer.Table.Schema.O + "/" + refer.Table.Name.O
	} else if idx := strings.Index(childTable, "/"); idx >= 0 {
		pf.referencedTable = childTable[:idx] + "/" + refer.Table.Name.O
	}
	for _, spec := range refer.IndexPartSpecifications {
		if spec.Column != nil {
			pf.referencedColumns = append(pf.referencedColumns, spec.Column.Name.O)
		}
	}
	if refer.OnDelete != nil {
		switch refer.OnDelete.ReferOpt {
		case ast.ReferOptionCascade:
			pf.onDeleteCascade = true
		case ast.ReferOptionSetNull:
			pf.onDeleteSetNull = true
		}
	}
	if refer.OnUpdate != nil {
		switch refer.OnUpdate.ReferOpt {
		case ast.ReferOptionCascade:
			pf.onUpdateCascade = true
		case ast.ReferOptionSetNull:
			pf.onUpdateSetNull = true
		}
	}
	return pf
}

func resolvePendingForeign(table *dict.Table, pf *pendingForeign) *dict.Foreign {
	var t dict.ForeignActionType
	if pf.onDeleteCascade {
		t |= dict.FKDeleteCascade
	}
	if pf.onDeleteSetNull {
		t |= dict.FKDeleteSetNull
	}
	if pf.onUpdateCascade {
		t |= dict.FKUpdateCascade
	}
	if pf.onUpdateSetNull {
		t |= dict.FKUpdateSetNull
	}
	id := pf.id
	if id != "" && !strings.Contains(id, "/") {
		if idx := strings.Index(table.Name, "/"); idx >= 0 {
			id = table.Name[:idx] + "/" + id
		}
	}
	return &dict.Foreign{
		ID:                   id,
		Type:                 t,
		ForeignTable:         table,
		ForeignColNames:      pf.columns,
		ReferencedTableName:  pf.referencedTable,
		ReferencedColNames:   pf.referencedColumns,
	}
}

func qualifiedName(tn *ast.TableName) string {
	if tn.Schema.O != "" {
		return tn.Schema.O + "/" + tn.Name.O
	}
	return tn.Name.O
}

func findCol(table *dict.Table, name string) *dict.Col {
	for _, c := range table.Cols {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
}

func indexNameOrDefault(name string, keys []*ast.IndexPartSpecification) string {
	if name != "" {
		return name
	}
	names := indexColumnNames(keys)
	sort.Strings(names)
	return strings.Join(names, "_")
}
