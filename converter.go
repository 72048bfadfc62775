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

import "io"

// StreamInfo holds metadata about the input being converted.
type StreamInfo struct {
	MIMEType  string
	Extension string
	Charset   string
	Filename  string
	LocalPath string
	URL       string
}

// ConvertedDocument holds the output of a conversion.
type ConvertedDocument struct {
	// Title is the text of the first heading, else the HTML title, else
	// UntitledDocument.
	Title string
	// Body is the converted flat markup.
	Body string
	// Metadata is the extracted front matter with caller overrides applied.
	Metadata Metadata
	TOC      []TOCEntry
}

// DocumentConverter is the interface all source converters implement.
type DocumentConverter interface {
	// Accepts returns true if this converter can handle the given input.
	// It MUST NOT change the read position of reader.
	Accepts(info StreamInfo) bool

	// Convert reads the source and runs it through the pipeline.
	Convert(reader io.ReadSeeker, info StreamInfo) (*ConvertedDocument, error)
}
