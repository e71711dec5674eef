package dataset

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const boardsCSV = `group_board_id,group_product_id,title,location,status,created_at,deadline,updated_at,current_participants,max_participants
1,10,공구방_1,서울,공구성공,2024-03-01 10:00:00,2024-03-08 10:00:00,2024-03-05 10:00:00,12,50
2,11,공구방_2,부산,모집중,2024-03-02,2024-03-09,not-a-date,5,
3,99,공구방_3,대구,공구실패,,2024-04-09,2024-04-03,7,60
`

func TestReadTable(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "boards.csv", boardsCSV)

	f, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}

	if f.Nrow() != 3 {
		t.Errorf("Nrow() = %d, want 3", f.Nrow())
	}
	wantCols := []string{"group_board_id", "group_product_id", "title", "location", "status",
		"created_at", "deadline", "updated_at", "current_participants", "max_participants"}
	if !slices.Equal(f.Columns(), wantCols) {
		t.Errorf("Columns() = %v, want %v", f.Columns(), wantCols)
	}

	capacity := f.Strings("max_participants")
	if capacity[1] != "" {
		t.Errorf("missing cell should read as empty, got %q", capacity[1])
	}
	if f.Strings("no_such_column") != nil {
		t.Error("absent column should return nil")
	}
}

func TestReadTable_StripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "users.csv", "\xEF\xBB\xBFuser_id,username\n1,kim\n")

	f, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if !f.HasColumn("user_id") {
		t.Errorf("expected user_id column after BOM strip, got %v", f.Columns())
	}
}

func TestReadTable_Errors(t *testing.T) {
	dir := t.TempDir()
	wide := writeCSV(t, dir, "wide.csv", "a,b\n1,2,3\n")
	empty := writeCSV(t, dir, "empty.csv", "")

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "absent.csv")},
		{"row wider than header", wide},
		{"no header row", empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadTable(tt.path); err == nil {
				t.Error("ReadTable() should fail")
			}
		})
	}
}

func TestReadTable_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "products.csv", "product_id,price\n")

	f, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if f.Nrow() != 0 {
		t.Errorf("Nrow() = %d, want 0", f.Nrow())
	}
	if !slices.Equal(f.Columns(), []string{"product_id", "price"}) {
		t.Errorf("Columns() = %v, want [product_id price]", f.Columns())
	}
	if got := f.Strings("price"); got == nil || len(got) != 0 {
		t.Errorf("Strings() on a header-only frame = %v, want empty non-nil", got)
	}

	products := decodeProducts(Normalize(TableProducts, f))
	if products.Len() != 0 || !products.HasColumn("price") {
		t.Errorf("decoded table = %d rows, columns %v", products.Len(), products.Columns)
	}
}

func TestReadTable_PadsShortRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "short.csv", "a,b,c\n1\n2,x,y\n")

	f, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if f.Nrow() != 2 {
		t.Fatalf("Nrow() = %d, want 2", f.Nrow())
	}
	if got := f.Strings("a"); !slices.Equal(got, []string{"1", "2"}) {
		t.Errorf("a = %v, want [1 2]", got)
	}
	if got := f.Strings("c"); !slices.Equal(got, []string{"", "y"}) {
		t.Errorf("c = %v, want [\"\" y]", got)
	}
}

func TestLoader_Candidates(t *testing.T) {
	l := NewLoader(Options{Policy: PolicyLenient, SearchDirs: []string{".", "data"}, Logger: quietLogger()})

	got := l.Candidates(TableFavorites)
	want := []string{
		"favorite_products_dummy_3000_updated.csv",
		filepath.Join("data", "favorite_products_dummy_3000_updated.csv"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("Candidates() = %v, want %v", got, want)
	}

	strict := NewLoader(Options{Policy: PolicyStrict, DataDir: "../data", Logger: quietLogger()})
	if c := strict.Candidates(TableFavorites); c != nil {
		t.Errorf("strict scheme has no favorites file, got %v", c)
	}
	if c := strict.Candidates(TableGroupBoards); len(c) != 1 || c[0] != filepath.Join("../data", "group_boards_dummy_data_500.csv") {
		t.Errorf("unexpected strict candidates %v", c)
	}
}

func TestLoader_LoadTable_CandidateOrder(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	file := SchemeLenient[TableGroupBoards]

	tests := []struct {
		name       string
		setup      func()
		wantSource string
		wantRows   int
		wantFound  bool
	}{
		{
			name:      "nothing present",
			setup:     func() {},
			wantFound: false,
		},
		{
			name:       "second directory only",
			setup:      func() { writeCSV(t, second, file, boardsCSV) },
			wantSource: filepath.Join(second, file),
			wantRows:   3,
			wantFound:  true,
		},
		{
			name:       "malformed first candidate is skipped",
			setup:      func() { writeCSV(t, first, file, "a,b\n1,2,3\n") },
			wantSource: filepath.Join(second, file),
			wantRows:   3,
			wantFound:  true,
		},
		{
			name:       "first valid candidate wins",
			setup:      func() { writeCSV(t, first, file, "group_board_id,status\n7,마감\n") },
			wantSource: filepath.Join(first, file),
			wantRows:   1,
			wantFound:  true,
		},
		{
			name:       "header-only first candidate still wins",
			setup:      func() { writeCSV(t, first, file, "group_board_id,status\n") },
			wantSource: filepath.Join(first, file),
			wantRows:   0,
			wantFound:  true,
		},
	}

	l := NewLoader(Options{Policy: PolicyLenient, SearchDirs: []string{first, second}, Logger: quietLogger()})

	// Cases build on each other's files, so they run in order.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			frame, source, found := l.LoadTable(TableGroupBoards)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
			if frame.Nrow() != tt.wantRows {
				t.Errorf("Nrow() = %d, want %d", frame.Nrow(), tt.wantRows)
			}
		})
	}
}

func TestLoader_Load_LenientEmptyTables(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, filepath.Join(dir, "data"), SchemeLenient[TableGroupBoards], boardsCSV)

	l := NewLoader(Options{Policy: PolicyLenient, SearchDirs: []string{dir, filepath.Join(dir, "data")}, Logger: quietLogger()})
	ds, report, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if report.Sample {
		t.Error("lenient policy must never fall back to sample data")
	}
	if len(report.Tables) != 7 {
		t.Errorf("expected 7 table reports, got %d", len(report.Tables))
	}
	if ds.GroupBoards.Len() != 3 {
		t.Errorf("GroupBoards.Len() = %d, want 3", ds.GroupBoards.Len())
	}
	if ds.Participants == nil || ds.Participants.Len() != 0 {
		t.Error("missing participants should load as an empty table")
	}
	if ds.Favorites == nil || ds.Favorites.Len() != 0 {
		t.Error("missing favorites should load as an empty table")
	}
	if !ds.GroupBoards.HasColumn("deadline") {
		t.Error("decoded table should keep source columns")
	}

	board := ds.GroupBoards.Rows[1]
	if board.UpdatedAt != nil {
		t.Error("unparseable updated_at should be nil")
	}
	if board.CreatedAt == nil || board.CreatedAt.Day() != 2 {
		t.Errorf("created_at not parsed: %v", board.CreatedAt)
	}
	if board.MaxParticipants != nil {
		t.Error("empty max_participants should be nil")
	}
	if ds.GroupBoards.Rows[2].CreatedAt != nil {
		t.Error("empty created_at should be nil")
	}
}

func TestLoader_Load_StrictFallsBackToSample(t *testing.T) {
	dir := t.TempDir()
	// Only one of six files present: the strict policy treats that as failure.
	writeCSV(t, dir, SchemeStrict[TableGroupBoards], boardsCSV)

	l := NewLoader(Options{Policy: PolicyStrict, DataDir: dir, Seed: 42, Logger: quietLogger()})
	ds, report, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !report.Sample {
		t.Fatal("expected sample fallback")
	}
	if ds.GroupBoards.Len() != sampleBoards {
		t.Errorf("GroupBoards.Len() = %d, want %d", ds.GroupBoards.Len(), sampleBoards)
	}
	if ds.Favorites == nil || ds.Favorites.Len() != 0 {
		t.Error("sample favorites should be an empty table")
	}
}

func TestLoader_Load_StrictAllFilesPresent(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, SchemeStrict[TableProducts], "product_id,category_id,name,price,rating\n1,1,사과,9999,4.5\n2,1,배,,\n")
	writeCSV(t, dir, SchemeStrict[TableGroupProducts], "group_product_id,product_id,category_id,discount_rate,min_quantity\n10,1,1,20,10\n")
	writeCSV(t, dir, SchemeStrict[TableCategories], "category_id,name,level,parent_category_id\n1,식품,medium,\n")
	writeCSV(t, dir, SchemeStrict[TableParticipants], "participant_id,group_board_id,user_id,role,joined_at,quantity\n1,1,5,리더,2024-03-01,2\n")
	writeCSV(t, dir, SchemeStrict[TableGroupBoards], boardsCSV)
	writeCSV(t, dir, SchemeStrict[TableUsers], "user_id,username,email,location,joined_date\n5,kim,k@example.com,서울특별시 강남구 역삼동,2023-05-01\n")

	l := NewLoader(Options{Policy: PolicyStrict, DataDir: dir, Seed: 42, Logger: quietLogger()})
	ds, report, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if report.Sample {
		t.Fatal("all files present, sample data should not be used")
	}
	if ds.Products.Len() != 2 || ds.GroupBoards.Len() != 3 || ds.Users.Len() != 1 {
		t.Errorf("unexpected row counts: products=%d boards=%d users=%d",
			ds.Products.Len(), ds.GroupBoards.Len(), ds.Users.Len())
	}
	if ds.Products.Rows[1].Price.Valid {
		t.Error("empty price should be null")
	}
	if ds.Users.Rows[0].Address == nil || *ds.Users.Rows[0].Address != "서울특별시 강남구 역삼동" {
		t.Error("users without an address column should read location")
	}
}

func TestLoader_Load_StrictHeaderOnlyKeepsRealData(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, SchemeStrict[TableProducts], "product_id,category_id,name,price,rating\n1,1,사과,9999,4.5\n")
	writeCSV(t, dir, SchemeStrict[TableGroupProducts], "group_product_id,product_id,category_id\n10,1,1\n")
	writeCSV(t, dir, SchemeStrict[TableCategories], "category_id,name\n1,식품\n")
	writeCSV(t, dir, SchemeStrict[TableParticipants], "participant_id,group_board_id,user_id,role,joined_at\n")
	writeCSV(t, dir, SchemeStrict[TableGroupBoards], boardsCSV)
	writeCSV(t, dir, SchemeStrict[TableUsers], "user_id,username,location\n5,kim,서울특별시 강남구\n")

	l := NewLoader(Options{Policy: PolicyStrict, DataDir: dir, Seed: 42, Logger: quietLogger()})
	ds, report, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if report.Sample {
		t.Fatal("an empty participants export should not trigger sample data")
	}
	if ds.GroupBoards.Len() != 3 || ds.Participants.Len() != 0 {
		t.Errorf("boards = %d, participants = %d, want 3 and 0", ds.GroupBoards.Len(), ds.Participants.Len())
	}
	if !ds.Participants.HasColumn("role") {
		t.Errorf("participants columns = %v, want header kept", ds.Participants.Columns)
	}
	for _, tr := range report.Tables {
		if tr.Table == TableParticipants && (!tr.Found || tr.Rows != 0) {
			t.Errorf("participants report = %+v, want found with 0 rows", tr)
		}
	}
}

func TestLoader_Load_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(Options{Policy: PolicyLenient, SearchDirs: []string{t.TempDir()}, Logger: quietLogger()})
	if _, _, err := l.Load(ctx); err == nil {
		t.Error("Load() with cancelled context should fail")
	}
}

func TestLoader_Key(t *testing.T) {
	a := NewLoader(Options{Policy: PolicyLenient, SearchDirs: []string{".", "data"}, Seed: 1})
	b := NewLoader(Options{Policy: PolicyLenient, SearchDirs: []string{".", "data"}, Seed: 1})
	c := NewLoader(Options{Policy: PolicyStrict, DataDir: "../data", Seed: 1})

	if a.Key() != b.Key() {
		t.Error("identical options should produce identical keys")
	}
	if a.Key() == c.Key() {
		t.Error("different policies should produce different keys")
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"strict", PolicyStrict, false},
		{"lenient", PolicyLenient, false},
		{string(PolicyStrict), PolicyStrict, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
