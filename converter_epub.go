package htmldown

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// EpubConverter handles EPUB books. Every spine chapter is run through the
// HTML pipeline and the OPF metadata becomes the document metadata.
type EpubConverter struct {
	pipeline *Pipeline
}

// NewEpubConverter creates a new EpubConverter.
func NewEpubConverter(p *Pipeline) *EpubConverter {
	return &EpubConverter{pipeline: p}
}

func (c *EpubConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".epub" {
		return true
	}
	mime := strings.ToLower(info.MIMEType)
	return strings.HasPrefix(mime, "application/epub") ||
		strings.HasPrefix(mime, "application/x-epub+zip")
}

func (c *EpubConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*ConvertedDocument, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read EPUB: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open EPUB ZIP: %w", err)
	}

	opfPath, err := findOPFPath(zr)
	if err != nil {
		return nil, fmt.Errorf("find OPF: %w", err)
	}

	pkg, err := parseOPF(zr, opfPath)
	if err != nil {
		return nil, fmt.Errorf("parse OPF: %w", err)
	}

	var (
		body  strings.Builder
		toc   []TOCEntry
		first string
	)
	opfDir := path.Dir(opfPath)
	for _, ref := range pkg.spine {
		item, ok := pkg.manifest[ref]
		if !ok || !item.isHTML() {
			continue
		}

		chapterPath := item.href
		if opfDir != "." && !strings.HasPrefix(chapterPath, "/") {
			chapterPath = opfDir + "/" + chapterPath
		}
		chapter, err := readZipFile(zr, chapterPath)
		if err != nil {
			c.pipeline.logger.Debug("epub chapter skipped", "path", chapterPath, "err", err)
			continue
		}

		doc, err := c.pipeline.ConvertString(decodeText(chapter, StreamInfo{MIMEType: item.mediaType}, true))
		if err != nil {
			return nil, fmt.Errorf("chapter %s: %w", chapterPath, err)
		}
		if strings.TrimSpace(doc.Body) == "" {
			continue
		}
		if first == "" && doc.Title != UntitledDocument {
			first = doc.Title
		}
		body.WriteString(doc.Body)
		body.WriteString("\n\n")
		toc = append(toc, doc.TOC...)
	}

	title := pkg.meta.title
	if title == "" {
		title = first
	}
	if title == "" {
		title = UntitledDocument
	}

	return &ConvertedDocument{
		Title:    title,
		Body:     body.String(),
		Metadata: pkg.meta.toMetadata().Merge(c.pipeline.overrides),
		TOC:      toc,
	}, nil
}

type epubMetadata struct {
	title       string
	authors     []string
	language    string
	publisher   string
	date        string
	description string
	identifier  string
}

func (m epubMetadata) toMetadata() Metadata {
	var md Metadata
	set := func(k, v string) {
		if v != "" {
			md.Set(k, v)
		}
	}
	set("title", m.title)
	set("author", strings.Join(m.authors, ", "))
	set("language", m.language)
	set("publisher", m.publisher)
	set("date", m.date)
	set("description", m.description)
	set("identifier", m.identifier)
	return md
}

type manifestItem struct {
	href      string
	mediaType string
}

func (it manifestItem) isHTML() bool {
	switch strings.ToLower(path.Ext(it.href)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return strings.Contains(it.mediaType, "html")
}

type opfPackage struct {
	meta     epubMetadata
	manifest map[string]manifestItem
	spine    []string
}

// findOPFPath reads the package document path from META-INF/container.xml.
func findOPFPath(zr *zip.Reader) (string, error) {
	data, err := readZipFile(zr, "META-INF/container.xml")
	if err != nil {
		return "", err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "rootfile" {
			for _, attr := range se.Attr {
				if attr.Name.Local == "full-path" {
					return attr.Value, nil
				}
			}
		}
	}
	return "", fmt.Errorf("rootfile not found in container.xml")
}

var opfMetaFields = map[string]bool{
	"title": true, "creator": true, "language": true, "publisher": true,
	"date": true, "description": true, "identifier": true,
}

// parseOPF reads metadata, manifest and spine from the package document.
func parseOPF(zr *zip.Reader, opfPath string) (opfPackage, error) {
	data, err := readZipFile(zr, opfPath)
	if err != nil {
		return opfPackage{}, err
	}

	pkg := opfPackage{manifest: make(map[string]manifestItem)}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var (
		inMetadata bool
		field      string
	)
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			switch {
			case local == "metadata":
				inMetadata = true
			case inMetadata && opfMetaFields[local]:
				field = local
			case local == "item":
				var id string
				var item manifestItem
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "id":
						id = attr.Value
					case "href":
						item.href = attr.Value
					case "media-type":
						item.mediaType = attr.Value
					}
				}
				if id != "" {
					pkg.manifest[id] = item
				}
			case local == "itemref":
				for _, attr := range t.Attr {
					if attr.Name.Local == "idref" {
						pkg.spine = append(pkg.spine, attr.Value)
					}
				}
			}

		case xml.CharData:
			if !inMetadata || field == "" {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			m := &pkg.meta
			switch field {
			case "title":
				if m.title == "" {
					m.title = text
				}
			case "creator":
				m.authors = append(m.authors, text)
			case "language":
				m.language = text
			case "publisher":
				m.publisher = text
			case "date":
				m.date = text
			case "description":
				m.description = text
			case "identifier":
				m.identifier = text
			}

		case xml.EndElement:
			if t.Name.Local == "metadata" {
				inMetadata = false
			}
			field = ""
		}
	}
	return pkg, nil
}
