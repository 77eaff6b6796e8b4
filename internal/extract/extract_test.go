package extract

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"medchat/internal/core"
)

func fileAttachment(name, data string) core.Attachment {
	return core.Attachment{Kind: core.AttachmentFile, Name: name, Data: data}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		att  core.Attachment
		want Kind
	}{
		{"image passes through", core.Attachment{Kind: core.AttachmentImage, Name: "x.png"}, KindNotAFile},
		{"txt by extension", fileAttachment("notes.txt", ""), KindPlainText},
		{"pdf by extension", fileAttachment("Report.PDF", ""), KindPDF},
		{"docx by extension", fileAttachment("letter.docx", ""), KindDocx},
		{"legacy doc recognized but unsupported", fileAttachment("report.doc", ""), KindUnsupportedDoc},
		{"txt by mime hint only", fileAttachment("upload", "data:text/plain;base64,aGk="), KindPlainText},
		{"pdf by mime hint only", fileAttachment("upload", "data:application/pdf;base64,aGk="), KindPDF},
		{"docx by mime hint only", fileAttachment("upload", "data:application/vnd.openxmlformats-officedocument.wordprocessingml.document;base64,aGk="), KindDocx},
		{"msword mime unsupported", fileAttachment("upload", "data:application/msword;base64,aGk="), KindUnsupportedDoc},
		{"extension wins over mime", fileAttachment("notes.txt", "data:application/pdf;base64,aGk="), KindPlainText},
		{"nothing matches", fileAttachment("archive.zip", ""), KindUnsupportedDoc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.att); got != tt.want {
				t.Fatalf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare base64", payload, "hello", false},
		{"data url prefix", "data:text/plain;base64," + payload, "hello", false},
		{"data url without mime", "data:;base64," + payload, "hello", false},
		{"invalid base64", "!!!not-base64!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestRunPlainText(t *testing.T) {
	res := Run(KindPlainText, b64("Hello\r\n\r\n\r\nWorld"), 20, 0)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	if res.Text != "Hello\n\nWorld" {
		t.Fatalf("Text = %q, want %q", res.Text, "Hello\n\nWorld")
	}
}

func TestRunPlainTextInvalidUTF8(t *testing.T) {
	raw := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0x80})
	res := Run(KindPlainText, raw, 3, 0)
	if res.Failure != DecodeFailure {
		t.Fatalf("Failure = %v, want DecodeFailure", res.Failure)
	}
}

func TestRunOversized(t *testing.T) {
	// Declared size exceeding the ceiling wins regardless of format.
	for _, kind := range []Kind{KindPlainText, KindPDF, KindDocx, KindUnsupportedDoc} {
		res := Run(kind, b64("tiny"), DefaultMaxBytes+1, 0)
		if res.Failure != OversizedInput {
			t.Fatalf("kind %v: Failure = %v, want OversizedInput", kind, res.Failure)
		}
	}
}

func TestRunUnsupported(t *testing.T) {
	res := Run(KindUnsupportedDoc, b64("anything"), 8, 0)
	if res.Failure != UnsupportedFormat {
		t.Fatalf("Failure = %v, want UnsupportedFormat", res.Failure)
	}
}

func TestRunBadBase64(t *testing.T) {
	res := Run(KindPlainText, "%%%", 3, 0)
	if res.Failure != DecodeFailure {
		t.Fatalf("Failure = %v, want DecodeFailure", res.Failure)
	}
}

// docxArchive builds a minimal .docx container around the given document.xml body.
func docxArchive(t *testing.T, documentXML string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRunDocx(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Blood pressure log</w:t></w:r></w:p>
    <w:p><w:r><w:t>Monday: 120/80</w:t></w:r></w:p>
  </w:body>
</w:document>`
	data := docxArchive(t, doc)
	res := Run(KindDocx, data, 10, 0)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	want := "Blood pressure log\nMonday: 120/80"
	if res.Text != want {
		t.Fatalf("Text = %q, want %q", res.Text, want)
	}
}

func TestRunDocxEmpty(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p></w:p></w:body>
</w:document>`
	res := Run(KindDocx, docxArchive(t, doc), 10, 0)
	if res.Failure != EmptyExtraction {
		t.Fatalf("Failure = %v, want EmptyExtraction", res.Failure)
	}
}

func TestRunDocxCorrupt(t *testing.T) {
	res := Run(KindDocx, b64("this is not a zip archive"), 25, 0)
	if res.Failure != ParseFailure {
		t.Fatalf("Failure = %v, want ParseFailure", res.Failure)
	}
}

func TestRunDocxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	_, _ = w.Write([]byte("<styles/>"))
	_ = zw.Close()

	res := Run(KindDocx, base64.StdEncoding.EncodeToString(buf.Bytes()), 10, 0)
	if res.Failure != ParseFailure {
		t.Fatalf("Failure = %v, want ParseFailure", res.Failure)
	}
}

func TestRunPDFCorrupt(t *testing.T) {
	res := Run(KindPDF, b64("%PDF-1.4 garbage with no xref"), 30, 0)
	if res.Failure != ParseFailure {
		t.Fatalf("Failure = %v, want ParseFailure", res.Failure)
	}
}

// minimalPDF builds a structurally valid PDF with zero pages, the smallest
// stand-in for a document whose parser yields no text.
func minimalPDF() string {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	off1 := buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	off2 := buf.Len()
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	start := buf.Len()
	buf.WriteString("xref\n0 3\n")
	buf.WriteString("0000000000 65535 f \n")
	fmt.Fprintf(&buf, "%010d 00000 n \n", off1)
	fmt.Fprintf(&buf, "%010d 00000 n \n", off2)
	buf.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\nstartxref\n")
	fmt.Fprintf(&buf, "%d\n", start)
	buf.WriteString("%%EOF\n")
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRunPDFNoText(t *testing.T) {
	res := Run(KindPDF, minimalPDF(), 10, 0)
	if res.Failure != EmptyExtraction {
		t.Fatalf("Failure = %v, want EmptyExtraction", res.Failure)
	}
}

func TestUserMessageWording(t *testing.T) {
	tests := []struct {
		kind    Kind
		failure ErrorKind
		substr  string
	}{
		{KindUnsupportedDoc, UnsupportedFormat, "format is not supported"},
		{KindPDF, EmptyExtraction, "scanned"},
		{KindPDF, ParseFailure, "password"},
		{KindDocx, EmptyExtraction, "Word document"},
		{KindDocx, ParseFailure, "re-saving"},
		{KindPlainText, EmptyExtraction, "empty"},
		{KindPlainText, DecodeFailure, "could not be read"},
		{KindPDF, OversizedInput, "larger than 5 MB"},
	}
	for _, tt := range tests {
		msg := UserMessage(tt.kind, tt.failure)
		if !strings.Contains(msg, tt.substr) {
			t.Errorf("UserMessage(%v, %v) = %q, want substring %q", tt.kind, tt.failure, msg, tt.substr)
		}
	}

	// Messages must differ between formats for the same failure.
	if UserMessage(KindPDF, ParseFailure) == UserMessage(KindDocx, ParseFailure) {
		t.Error("PDF and DOCX parse-failure messages should be distinct")
	}
	if UserMessage(KindPDF, EmptyExtraction) == UserMessage(KindDocx, EmptyExtraction) {
		t.Error("PDF and DOCX empty-extraction messages should be distinct")
	}
}
