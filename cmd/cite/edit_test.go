package main

import (
	"testing"

	"github.com/matsen/citeflow/internal/metadata"
)

func TestParseSetFlags(t *testing.T) {
	stmts, err := parseSetFlags([]string{
		"volume=12",
		"size=300",
		"date=2020 March",
		"person-group[author]=Smith, John",
		"person-group[author]=Doe, Jane",
		"conf-name=ICML",
	})
	if err != nil {
		t.Fatalf("parseSetFlags() error = %v", err)
	}

	d := metadata.NewCitationDescription()
	if err := d.SetStatements(stmts, metadata.ReplaceNothing); err != nil {
		t.Fatalf("SetStatements() error = %v", err)
	}
	if got := d.String(metadata.PropVolume); got != "12" {
		t.Errorf("volume = %q", got)
	}
	if n, ok := d.Int(metadata.PropSize); !ok || n != 300 {
		t.Errorf("size = %d, %v", n, ok)
	}
	if got := d.String(metadata.PropDate); got != "2020-03" {
		t.Errorf("date = %q, want 2020-03", got)
	}
	if got := d.Composites(metadata.PropAuthors); len(got) != 2 {
		t.Errorf("got %d authors, want 2", len(got))
	}
	if got := d.String(metadata.PropConfName); got != "ICML" {
		t.Errorf("conf-name = %q", got)
	}
}

func TestParseSetFlags_Errors(t *testing.T) {
	tests := []struct {
		name string
		flag string
	}{
		{"no equals", "volume"},
		{"unknown property", "colour=red"},
		{"bad integer", "size=many"},
		{"bad date", "date=someday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseSetFlags([]string{tt.flag}); err == nil {
				t.Errorf("parseSetFlags(%q) should fail", tt.flag)
			}
		})
	}
}
