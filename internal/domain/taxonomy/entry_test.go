package taxonomy

import "testing"

func TestEntry_Text(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{"both", Entry{Description: "Lasers", Notes: "See 6A005"}, "Lasers\nSee 6A005"},
		{"description only", Entry{Description: " Lasers "}, "Lasers"},
		{"notes only", Entry{Notes: "See 6A005"}, "See 6A005"},
		{"empty", Entry{}, ""},
		{"whitespace", Entry{Description: "  ", Notes: "\t"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLeaves(t *testing.T) {
	entries := []Entry{
		{Code: "3A", IsLeaf: false},
		{Code: "3A001.a", IsLeaf: true},
		{Code: "3A001", IsLeaf: false},
		{Code: "3A001.b", IsLeaf: true},
	}
	got := Leaves(entries)
	if len(got) != 2 || got[0].Code != "3A001.a" || got[1].Code != "3A001.b" {
		t.Errorf("Leaves() = %+v", got)
	}
}
