package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

const docxBodyPart = "word/document.xml"

// ReadDOCXFile returns the body paragraphs of the DOCX file at path.
func ReadDOCXFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "docx: open file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, eris.Wrap(err, "docx: stat file")
	}
	return ReadDOCX(f, info.Size())
}

// ReadDOCX returns the text of every top-level body paragraph in a DOCX
// container, in document order. Paragraphs inside tables and text boxes
// are skipped. Empty paragraphs are kept as empty strings.
func ReadDOCX(r io.ReaderAt, size int64) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, eris.Wrap(err, "docx: open zip")
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, eris.Errorf("docx: %s not found", docxBodyPart)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, eris.Wrap(err, "docx: open body part")
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrap(err, "docx: read body part")
	}

	return paragraphs(body)
}

// paragraphs walks WordprocessingML and collects w:p text. Text comes from
// w:t runs; w:tab and w:br become a tab and a newline.
func paragraphs(doc []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))

	var (
		out      []string
		buf      strings.Builder
		pDepth   int // nesting of w:p elements
		tblDepth int
		inRun    bool
		inText   bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "docx: decode xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "p":
				pDepth++
				if pDepth == 1 && tblDepth == 0 {
					buf.Reset()
				}
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				// w:tab also defines tab stops in paragraph properties.
				if inRun && collecting(pDepth, tblDepth) {
					buf.WriteByte('\t')
				}
			case "br", "cr":
				if inRun && collecting(pDepth, tblDepth) {
					buf.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth--
			case "p":
				if pDepth == 1 && tblDepth == 0 {
					out = append(out, buf.String())
				}
				pDepth--
			case "r":
				inRun = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && collecting(pDepth, tblDepth) {
				buf.Write(t)
			}
		}
	}

	return out, nil
}

func collecting(pDepth, tblDepth int) bool {
	return pDepth == 1 && tblDepth == 0
}

// Topic derives the survey topic from an uploaded file name.
func Topic(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
