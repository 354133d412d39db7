package parse

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	fw, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(documentXML))
	w.Close()
	f.Close()
	return path
}

func TestDocx_ParagraphsAndTables(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>h1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>h2</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>b</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>After the table.</w:t></w:r></w:p>
</w:body>
</w:document>`
	path := buildDocx(t, docXML)

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	if env.Type != TypeDocx {
		t.Fatalf("type = %q", env.Type)
	}

	p := env.Data.(*DocxPayload)
	if len(p.Paragraphs) != 3 {
		t.Fatalf("paragraphs = %v", p.Paragraphs)
	}
	if p.Paragraphs[1] != "Second paragraph." {
		t.Fatalf("split runs must join: %q", p.Paragraphs[1])
	}
	if p.Paragraphs[2] != "After the table." {
		t.Fatalf("paragraph order lost: %v", p.Paragraphs)
	}

	if len(p.Tables) != 1 {
		t.Fatalf("tables = %d", len(p.Tables))
	}
	tbl := p.Tables[0]
	if len(tbl) != 2 || tbl[0][0] != "h1" || tbl[1][1] != "b" {
		t.Fatalf("table = %v", tbl)
	}

	if p.WordCount != 7 {
		t.Fatalf("word count = %d, want 7", p.WordCount)
	}
	if env.Metadata["table_count"] != 1 || env.Metadata["paragraph_count"] != 3 {
		t.Fatalf("meta = %v", env.Metadata)
	}
}

func TestDocx_ParagraphTruncation(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<w:p><w:r><w:t>para %d</w:t></w:r></w:p>`, i)
	}
	b.WriteString(`</w:body></w:document>`)
	path := buildDocx(t, b.String())

	env := parseFile(t, path, Options{MaxItems: 10})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	p := env.Data.(*DocxPayload)
	if len(p.Paragraphs) != 10 {
		t.Fatalf("paragraphs = %d, want 10", len(p.Paragraphs))
	}
	if env.Metadata["truncated"] != true {
		t.Fatal("must report truncation")
	}
	if env.Metadata["paragraph_count"] != 30 {
		t.Fatalf("paragraph_count = %v", env.Metadata["paragraph_count"])
	}
}

func TestDocx_EmptyParagraphsSkipped(t *testing.T) {
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p></w:p>
<w:p><w:r><w:t>   </w:t></w:r></w:p>
<w:p><w:r><w:t>real text</w:t></w:r></w:p>
</w:body></w:document>`
	path := buildDocx(t, docXML)

	env := parseFile(t, path, Options{})
	if !env.Success {
		t.Fatalf("parse failed: %v", env.Error)
	}
	p := env.Data.(*DocxPayload)
	if len(p.Paragraphs) != 1 || p.Paragraphs[0] != "real text" {
		t.Fatalf("paragraphs = %v", p.Paragraphs)
	}
}

func TestDocx_NotAnArchive(t *testing.T) {
	path := writeFile(t, "fake.docx", []byte("plain bytes"))

	env := parseFile(t, path, Options{})
	if env.Success {
		t.Fatal("expected failure")
	}
	if env.Error.Kind != KindMalformedInput {
		t.Fatalf("kind = %q", env.Error.Kind)
	}
}

func TestDocx_BrokenDocumentXML(t *testing.T) {
	// Valid archive, structurally broken part. A partial read must not be
	// reported as success.
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>first paragraph</w:t></w:r></w:p><w:p><w:r>`
	path := buildDocx(t, docXML)

	env := parseFile(t, path, Options{})
	if env.Success {
		t.Fatal("expected failure for truncated document xml")
	}
	if env.Error.Kind != KindMalformedInput {
		t.Fatalf("kind = %q", env.Error.Kind)
	}
}

func TestDocx_MissingDocumentPart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hollow.docx")
	f, _ := os.Create(path)
	w := zip.NewWriter(f)
	fw, _ := w.Create("word/styles.xml")
	fw.Write([]byte("<styles/>"))
	w.Close()
	f.Close()

	env := parseFile(t, path, Options{})
	if env.Success {
		t.Fatal("expected failure")
	}
	if env.Error.Kind != KindMalformedInput {
		t.Fatalf("kind = %q", env.Error.Kind)
	}
}
