package models

import "testing"

func TestTable_NilBehavesAsEmpty(t *testing.T) {
	var tbl *Table[Product]

	if tbl.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tbl.Len())
	}
	if !tbl.IsEmpty() {
		t.Error("nil table should be empty")
	}
	if tbl.HasColumn("price") {
		t.Error("nil table should not report columns")
	}

	clone := tbl.Clone()
	if clone == nil || clone.Len() != 0 {
		t.Error("Clone() of nil table should be an empty table")
	}
}

func TestTable_HasColumn(t *testing.T) {
	tbl := NewTable([]string{"product_id", "price"}, []Product{{ProductID: 1}})

	if !tbl.HasColumn("price") {
		t.Error("expected price column")
	}
	if tbl.HasColumn("rating") {
		t.Error("rating column should be absent")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTable_CloneIsIndependent(t *testing.T) {
	tbl := NewTable([]string{"user_id"}, []User{{UserID: 1}})
	clone := tbl.Clone()
	clone.Rows[0].District = "강남구"
	clone.Columns[0] = "changed"

	if tbl.Rows[0].District != "" {
		t.Error("mutating clone rows leaked into source")
	}
	if tbl.Columns[0] != "user_id" {
		t.Error("mutating clone columns leaked into source")
	}
}

func TestEmptyDataset(t *testing.T) {
	ds := EmptyDataset()
	if ds.Products == nil || ds.Categories == nil || ds.GroupProducts == nil ||
		ds.GroupBoards == nil || ds.Participants == nil || ds.Users == nil || ds.Favorites == nil {
		t.Fatal("EmptyDataset() must not contain nil tables")
	}
	if ds.Participants.Len() != 0 {
		t.Error("expected zero participants")
	}

	var nilDS *Dataset
	if nilDS.Clone().Users == nil {
		t.Error("Clone() of nil dataset should produce empty tables")
	}
}
