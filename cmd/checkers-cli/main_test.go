package main

import (
	"testing"

	"github.com/park285/cheese-checkers/pkg/checkersdto"
)

func TestParseMove(t *testing.T) {
	mv, err := parseMove([]string{"5,0", "4,1"})
	if err != nil {
		t.Fatalf("parseMove: %v", err)
	}
	want := checkersdto.Move{From: checkersdto.Position{Row: 5, Col: 0}, To: checkersdto.Position{Row: 4, Col: 1}}
	if mv.From != want.From || mv.To != want.To {
		t.Fatalf("got %+v want %+v", mv, want)
	}

	for _, bad := range [][]string{{"5,0"}, {"5-0", "4,1"}, {"x,0", "4,1"}, {"5,0", "4,y"}} {
		if _, err := parseMove(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestFormatMove(t *testing.T) {
	quiet := checkersdto.Move{From: checkersdto.Position{Row: 5, Col: 0}, To: checkersdto.Position{Row: 4, Col: 1}}
	if got := formatMove(quiet); got != "5,0-4,1" {
		t.Fatalf("quiet move: %q", got)
	}
	jump := checkersdto.Move{
		From:     checkersdto.Position{Row: 5, Col: 0},
		To:       checkersdto.Position{Row: 3, Col: 2},
		Captures: []checkersdto.Position{{Row: 4, Col: 1}},
	}
	if got := formatMove(jump); got != "5,0x3,2" {
		t.Fatalf("capture: %q", got)
	}
}
