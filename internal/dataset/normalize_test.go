package dataset

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	kst := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-01 10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-01T10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-01T10:30:00Z", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), true},
		{"2024-03-01 10:30:00.250000", time.Date(2024, 3, 1, 10, 30, 0, 250000000, time.UTC), true},
		{"2024-01-01 10:00:00+09:00", kst, true},
		{"2024-01-01 10:00:00+0900", kst, true},
		{"2024-01-01 10:00:00+09", kst, true},
		{"2024-01-01 10:00:00.5+09:00", kst.Add(500 * time.Millisecond), true},
		{"2024/03/01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024.03.01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"2024-13-45", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "participants.csv", "participant_id,joined_at,role\n1,2024-01-05,리더\n2,garbage,참여자\n3,,참여자\n")

	f, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}

	n := Normalize(TableParticipants, f)
	joined := n.Times("joined_at")
	if len(joined) != 3 {
		t.Fatalf("expected 3 normalized values, got %d", len(joined))
	}
	if joined[0] == nil || joined[0].Day() != 5 {
		t.Errorf("row 0 should parse, got %v", joined[0])
	}
	if joined[1] != nil || joined[2] != nil {
		t.Error("unparseable and empty cells should be nil")
	}

	if f.Times("joined_at") != nil {
		t.Error("Normalize() must not modify its input frame")
	}
}

func TestNormalize_SkipsAbsentColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "boards.csv", "group_board_id,created_at\n1,2024-02-02\n")

	f, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}

	n := Normalize(TableGroupBoards, f)
	if n.Times("created_at") == nil {
		t.Error("created_at should be normalized")
	}
	if n.Times("deadline") != nil || n.Times("updated_at") != nil {
		t.Error("absent columns should be skipped")
	}
}

func TestNormalize_EmptyFrame(t *testing.T) {
	n := Normalize(TableGroupBoards, emptyFrame())
	if n.Nrow() != 0 || n.Times("created_at") != nil {
		t.Error("empty frame should pass through unchanged")
	}
}
