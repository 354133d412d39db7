package parse

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSV_PreviewAndStats(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,score,active\n")
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&b, "row%d,%d,true\n", i, i)
	}
	path := writeFile(t, "big.csv", []byte(b.String()))

	env := parseFile(t, path, Options{MaxRows: 100})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	if env.Type != TypeTable {
		t.Fatalf("type = %q", env.Type)
	}

	p := env.Data.(*TablePayload)
	if len(p.Preview) != 100 {
		t.Fatalf("preview rows = %d, want 100", len(p.Preview))
	}
	if env.Metadata["truncated"] != true {
		t.Fatal("must report truncation")
	}
	if env.Metadata["total_available"] != 5000 {
		t.Fatalf("total_available = %v, want 5000", env.Metadata["total_available"])
	}
	if env.Metadata["total_columns"] != 3 {
		t.Fatalf("total_columns = %v", env.Metadata["total_columns"])
	}

	// Column stats cover all 5000 rows, not just the preview.
	var score *Column
	for i := range p.Columns {
		if p.Columns[i].Name == "score" {
			score = &p.Columns[i]
		}
	}
	if score == nil {
		t.Fatal("missing score column")
	}
	if score.Type != "number" {
		t.Fatalf("score type = %q", score.Type)
	}
	if score.Min == nil || *score.Min != 0 {
		t.Fatalf("score min = %v, want 0", score.Min)
	}
	if score.Max == nil || *score.Max != 4999 {
		t.Fatalf("score max = %v, want 4999", score.Max)
	}
	if score.Mean == nil || *score.Mean != 2499.5 {
		t.Fatalf("score mean = %v, want 2499.5", score.Mean)
	}
}

func TestCSV_TypeInference(t *testing.T) {
	csv := "id,label,ratio,flag,note\n" +
		"1,alpha,0.5,true,\n" +
		"2,beta,1.5,false,hello\n" +
		"3,gamma,2.5,true,\n"
	path := writeFile(t, "typed.csv", []byte(csv))

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	p := env.Data.(*TablePayload)

	types := map[string]string{}
	missing := map[string]int{}
	for _, c := range p.Columns {
		types[c.Name] = c.Type
		missing[c.Name] = c.Missing
	}

	if types["id"] != "number" || types["ratio"] != "number" {
		t.Fatalf("numeric columns misclassified: %v", types)
	}
	if types["label"] != "text" {
		t.Fatalf("label type = %q", types["label"])
	}
	if types["flag"] != "bool" {
		t.Fatalf("flag type = %q", types["flag"])
	}
	if missing["note"] != 2 {
		t.Fatalf("note missing = %d, want 2", missing["note"])
	}

	// Preview cells carry typed values.
	first := p.Preview[0]
	if _, ok := first["id"].(float64); !ok {
		t.Fatalf("id cell = %T, want float64", first["id"])
	}
	if _, ok := first["flag"].(bool); !ok {
		t.Fatalf("flag cell = %T, want bool", first["flag"])
	}
	if first["note"] != nil {
		t.Fatalf("empty cell = %v, want nil", first["note"])
	}
}

func TestCSV_TSVDelimiter(t *testing.T) {
	path := writeFile(t, "data.tsv", []byte("a\tb\n1\t2\n"))

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	p := env.Data.(*TablePayload)
	if len(p.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(p.Columns))
	}
	if p.Preview[0]["b"] != float64(2) {
		t.Fatalf("cell = %v", p.Preview[0]["b"])
	}
}

func TestCSV_Malformed(t *testing.T) {
	// Unclosed quote is a structural violation.
	path := writeFile(t, "broken.csv", []byte("a,b\n\"unclosed,2\n3,4\n"))

	env := parseFile(t, path, Options{})
	if env.Success {
		t.Fatal("expected failure")
	}
	if env.Error.Kind != KindMalformedInput {
		t.Fatalf("kind = %q", env.Error.Kind)
	}
	if !strings.Contains(env.Error.Message, "line") {
		t.Fatalf("message should carry the line: %q", env.Error.Message)
	}
}

func TestCSV_Empty(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	env := parseFile(t, path, Options{})
	if env.Success {
		t.Fatal("expected failure for empty csv")
	}
	if env.Error.Kind != KindMalformedInput {
		t.Fatalf("kind = %q", env.Error.Kind)
	}
}

func TestCSV_HeaderOnly(t *testing.T) {
	path := writeFile(t, "header.csv", []byte("a,b,c\n"))

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("header-only csv must parse: %v", env.Error)
	}
	p := env.Data.(*TablePayload)
	if len(p.Preview) != 0 {
		t.Fatalf("preview = %d rows", len(p.Preview))
	}
	if env.Metadata["total_available"] != 0 {
		t.Fatalf("total_available = %v", env.Metadata["total_available"])
	}
}
