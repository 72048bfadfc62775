// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package htmldown

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ZipConverter handles ZIP archives by converting every member the
// pipeline accepts.
type ZipConverter struct {
	pipeline *Pipeline
}

// NewZipConverter creates a new ZipConverter.
func NewZipConverter(p *Pipeline) *ZipConverter {
	return &ZipConverter{pipeline: p}
}

func (c *ZipConverter) Accepts(info StreamInfo) bool {
	if info.Extension == ".zip" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(info.MIMEType), "application/zip")
}

func (c *ZipConverter) Convert(reader io.ReadSeeker, info StreamInfo) (*ConvertedDocument, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read ZIP: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open ZIP: %w", err)
	}

	var (
		body strings.Builder
		toc  []TOCEntry
	)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		member, err := readZipMember(f)
		if err != nil {
			c.pipeline.logger.Debug("zip member skipped", "name", f.Name, "err", err)
			continue
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		memberInfo := StreamInfo{
			Extension: ext,
			Filename:  filepath.Base(f.Name),
		}
		r := bytes.NewReader(member)
		memberInfo.MIMEType = detectMIMEType(r, ext)

		doc, err := c.pipeline.ConvertReader(r, memberInfo)
		if err != nil {
			if IsHookFailure(err) {
				return nil, err
			}
			c.pipeline.logger.Debug("zip member skipped", "name", f.Name, "err", err)
			continue
		}
		if strings.TrimSpace(doc.Body) == "" {
			continue
		}

		fmt.Fprintf(&body, "## File: %s\n\n", f.Name)
		body.WriteString(doc.Body)
		body.WriteString("\n\n")
		toc = append(toc, doc.TOC...)
	}

	title := info.Filename
	if title == "" {
		title = UntitledDocument
	}
	return &ConvertedDocument{
		Title:    title,
		Body:     body.String(),
		Metadata: Metadata{}.Merge(c.pipeline.overrides),
		TOC:      toc,
	}, nil
}

// readZipFile returns the contents of the named archive member.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readZipMember(f)
		}
	}
	return nil, fmt.Errorf("file %q not found in ZIP", name)
}

func readZipMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
