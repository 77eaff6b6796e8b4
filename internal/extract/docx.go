package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"medchat/internal/sanitize"
)

// extractDocx pulls the text runs out of a DOCX archive. A .docx file is a
// zip containing word/document.xml; text lives in <w:t> elements and
// paragraphs (<w:p>) become line breaks.
func extractDocx(data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return failure(ParseFailure)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return failure(ParseFailure)
	}

	rc, err := docFile.Open()
	if err != nil {
		return failure(ParseFailure)
	}
	defer rc.Close()

	text, err := documentText(rc)
	if err != nil {
		return failure(ParseFailure)
	}
	text = sanitize.Sanitize(text)
	if text == "" {
		return failure(EmptyExtraction)
	}
	return textResult(text)
}

// documentText walks the WordprocessingML token stream.
func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "tab":
				b.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
