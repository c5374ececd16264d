package diff

import (
	"fmt"

	"github.com/strataform/strata/pkg/model"
)

// Rename-detection thresholds. Empirical heuristics; they stay fixed
// constants rather than configuration so identical snapshots can never
// diff differently across installations.
const (
	tableRenameThreshold  = 0.6
	columnRenameThreshold = 0.75
)

// Options selects the diffing context. Dialect affects only type-name
// normalization inside rename scoring, never which operations are emitted.
type Options struct {
	Dialect string
}

// Diff computes the operation set taking the previous snapshot to the
// current one. Both snapshots are normalized internally, so callers may pass
// raw definitions. Output order follows the current snapshot's declaration
// order; statement ordering for execution is pkg/migrate's concern.
func Diff(previous, current []model.Definition, opts Options) Result {
	return DiffTables(NormalizeModels(previous), NormalizeModels(current), opts)
}

// DiffTables diffs two already-normalized table lists.
func DiffTables(prev, curr []Table, opts Options) Result {
	d := &differ{
		dialect: opts.Dialect,
		result:  Result{Operations: []Operation{}, Warnings: []string{}},
	}
	d.run(prev, curr)
	return d.result
}

type differ struct {
	dialect string
	result  Result
}

// tablePair is a previous table matched to its current identity, either by
// name or by an accepted rename.
type tablePair struct {
	prev *Table
	curr *Table
}

func (d *differ) run(prev, curr []Table) {
	prevByName := indexTables(prev)

	var pairs []tablePair
	matchedPrev := map[string]bool{}
	matchedCurr := map[string]bool{}

	for i := range curr {
		c := &curr[i]
		if p, ok := prevByName[c.Name]; ok {
			pairs = append(pairs, tablePair{prev: p, curr: c})
			matchedPrev[p.Name] = true
			matchedCurr[c.Name] = true
		}
	}

	// Rename detection: best Jaccard match over column-name sets, scanned in
	// declaration order so ties resolve deterministically.
	for i := range prev {
		p := &prev[i]
		if matchedPrev[p.Name] {
			continue
		}
		var best *Table
		bestScore := 0.0
		for j := range curr {
			c := &curr[j]
			if matchedCurr[c.Name] {
				continue
			}
			if score := jaccard(p.Columns, c.Columns); score > bestScore {
				best, bestScore = c, score
			}
		}
		if best == nil || bestScore < tableRenameThreshold {
			continue
		}
		d.emit(Operation{Kind: OpRenameTable, Table: p.Name, NewName: best.Name})
		pairs = append(pairs, tablePair{prev: p, curr: best})
		matchedPrev[p.Name] = true
		matchedCurr[best.Name] = true
	}

	// Additions carry their full definition, foreign keys included, so a new
	// table renders as one CREATE TABLE rather than a table plus constraint
	// operations.
	for i := range curr {
		c := &curr[i]
		if matchedCurr[c.Name] {
			continue
		}
		def := c
		d.emit(Operation{Kind: OpAddTable, Table: c.Name, TableDef: def})
	}

	for i := range prev {
		p := &prev[i]
		if matchedPrev[p.Name] {
			continue
		}
		d.emit(Operation{Kind: OpDropTable, Table: p.Name})
		d.warnf("table %q will be dropped", p.Name)
	}

	for _, pair := range pairs {
		renames := d.reconcileColumns(pair)
		d.reconcileForeignKeys(pair, renames)
	}
}

// reconcileColumns diffs one matched table's columns and returns the
// accepted old-name to new-name rename mapping, which the foreign-key pass
// uses to follow renamed constraint columns.
func (d *differ) reconcileColumns(pair tablePair) map[string]string {
	table := pair.curr.Name
	renames := map[string]string{}

	for _, c := range pair.curr.Columns {
		if p, ok := pair.prev.Column(c.Name); ok {
			d.diffColumnAttrs(table, p, c)
		}
	}

	var removed []Column
	for _, p := range pair.prev.Columns {
		if _, ok := pair.curr.Column(p.Name); !ok {
			removed = append(removed, p)
		}
	}
	var added []Column
	for _, c := range pair.curr.Columns {
		if _, ok := pair.prev.Column(c.Name); !ok {
			added = append(added, c)
		}
	}

	usedAdded := make([]bool, len(added))
	for _, old := range removed {
		bestIdx := -1
		bestScore := 0.0
		for j, candidate := range added {
			if usedAdded[j] {
				continue
			}
			if score := d.columnScore(old, candidate); score > bestScore {
				bestIdx, bestScore = j, score
			}
		}
		if bestIdx >= 0 && bestScore >= columnRenameThreshold {
			next := added[bestIdx]
			usedAdded[bestIdx] = true
			renames[old.Name] = next.Name
			d.emit(Operation{Kind: OpRenameColumn, Table: table, ColumnName: old.Name, NewName: next.Name})
			d.diffColumnAttrs(table, old, next)
			continue
		}
		d.emit(Operation{Kind: OpDropColumn, Table: table, ColumnName: old.Name})
		d.warnf("column %q.%q will be dropped", table, old.Name)
	}

	for j, c := range added {
		if usedAdded[j] {
			continue
		}
		// Existing rows have no value for a new column, so it must be
		// nullable unless a default fills it.
		col := c
		if col.Default == "" {
			col.Nullable = true
		}
		d.emit(Operation{Kind: OpAddColumn, Table: table, Column: &col})
	}

	return renames
}

func (d *differ) diffColumnAttrs(table string, old, next Column) {
	if old.Type != next.Type {
		col := next
		d.emit(Operation{Kind: OpAlterColumnType, Table: table, Column: &col, FromType: old.Type})
	}
	if old.Nullable != next.Nullable {
		col := next
		d.emit(Operation{Kind: OpAlterNullable, Table: table, Column: &col})
	}
	if old.Default != next.Default {
		col := next
		d.emit(Operation{Kind: OpAlterDefault, Table: table, Column: &col})
	}
}

// reconcileForeignKeys diffs constraint tuples keyed by
// (column, refTable, refColumn). A tuple sharing its column slot with a
// previous tuple but pointing at a different target is a retarget, not a
// drop plus add.
func (d *differ) reconcileForeignKeys(pair tablePair, renames map[string]string) {
	table := pair.curr.Name

	prevFKs := make([]ForeignKey, len(pair.prev.ForeignKeys))
	copy(prevFKs, pair.prev.ForeignKeys)
	for i := range prevFKs {
		if next, ok := renames[prevFKs[i].Column]; ok {
			prevFKs[i].Column = next
		}
	}

	matched := make([]bool, len(prevFKs))
	for _, fk := range pair.curr.ForeignKeys {
		sameSlot := -1
		sameTuple := -1
		for i, p := range prevFKs {
			if matched[i] || p.Column != fk.Column {
				continue
			}
			if p.RefTable == fk.RefTable && p.RefColumn == fk.RefColumn {
				sameTuple = i
				break
			}
			sameSlot = i
		}

		switch {
		case sameTuple >= 0:
			matched[sameTuple] = true
		case sameSlot >= 0:
			matched[sameSlot] = true
			f := fk
			d.emit(Operation{Kind: OpAlterForeignKey, Table: table, ForeignKey: &f})
		default:
			f := fk
			d.emit(Operation{Kind: OpAddForeignKey, Table: table, ForeignKey: &f})
		}
	}

	for i, p := range prevFKs {
		if matched[i] {
			continue
		}
		f := p
		d.emit(Operation{Kind: OpDropForeignKey, Table: table, ForeignKey: &f})
		d.warnf("foreign key %q.%q -> %q will be dropped", table, p.Column, p.RefTable)
	}
}

// columnScore is the weighted rename heuristic. Same mapped SQL type is the
// dominant component; nullability, default, primary-key flag, and same
// semantic type each contribute equally. Maximum 1.0.
func (d *differ) columnScore(a, b Column) float64 {
	score := 0.0
	if nativeType(d.dialect, a.Type) == nativeType(d.dialect, b.Type) {
		score += 0.4
	}
	if a.Nullable == b.Nullable {
		score += 0.15
	}
	if a.Default == b.Default {
		score += 0.15
	}
	if a.PrimaryKey == b.PrimaryKey {
		score += 0.15
	}
	if a.Type == b.Type {
		score += 0.15
	}
	return score
}

// jaccard computes set similarity over column names.
func jaccard(a, b []Column) float64 {
	names := make(map[string]bool, len(a))
	for _, c := range a {
		names[c.Name] = true
	}
	intersection := 0
	union := len(names)
	for _, c := range b {
		if names[c.Name] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func indexTables(tables []Table) map[string]*Table {
	byName := make(map[string]*Table, len(tables))
	for i := range tables {
		byName[tables[i].Name] = &tables[i]
	}
	return byName
}

func (d *differ) emit(op Operation) {
	d.result.Operations = append(d.result.Operations, op)
}

func (d *differ) warnf(format string, args ...any) {
	d.result.Warnings = append(d.result.Warnings, fmt.Sprintf(format, args...))
}
