package main

import (
	"errors"
	"testing"

	"github.com/narralabs/narra-core/internal/batch"
	"github.com/narralabs/narra-core/internal/narrate"
)

func TestSplitEmptyDocumentsFailsBlankFiles(t *testing.T) {
	all := []batch.Item{
		{Name: "a.txt", Text: "once upon a time"},
		{Name: "blank.txt", Text: ""},
		{Name: "spaces.txt", Text: "  \n\t "},
		{Name: "b.txt", Text: "the end"},
	}

	items, positions, results := splitEmptyDocuments(all)

	if len(items) != 2 || items[0].Name != "a.txt" || items[1].Name != "b.txt" {
		t.Fatalf("expected only non-empty documents to run, got %v", items)
	}
	if len(positions) != 2 || positions[0] != 0 || positions[1] != 3 {
		t.Fatalf("unexpected positions mapping: %v", positions)
	}
	for _, i := range []int{1, 2} {
		var verr *narrate.ValidationError
		if !errors.As(results[i].Err, &verr) {
			t.Fatalf("result %d: expected validation error, got %v", i, results[i].Err)
		}
		if results[i].Name != all[i].Name {
			t.Fatalf("result %d carries wrong name: %s", i, results[i].Name)
		}
	}
	if results[0].Err != nil || results[3].Err != nil {
		t.Fatal("expected runnable slots left empty for the runner to fill")
	}
}

func TestSplitEmptyDocumentsAllValid(t *testing.T) {
	all := []batch.Item{{Name: "a.txt", Text: "hello"}}
	items, positions, results := splitEmptyDocuments(all)
	if len(items) != 1 || len(positions) != 1 || len(results) != 1 {
		t.Fatalf("unexpected split: %v %v %v", items, positions, results)
	}
}
